// Package reporter renders monitoring results for the terminal and exports
// scan reports to disk.
package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/rs/zerolog/log"

	"pagewatch/internal/history"
	"pagewatch/internal/monitor"
)

// shortHash is how many hex characters of a fingerprint the tables show.
const shortHash = 12

// TableRenderer writes go-pretty tables to an output stream.
type TableRenderer struct {
	out   io.Writer
	style table.Style
}

// NewTableRenderer creates a renderer writing to out.
func NewTableRenderer(out io.Writer) *TableRenderer {
	return &TableRenderer{out: out, style: table.StyleLight}
}

func (r *TableRenderer) newWriter() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(r.style)
	return t
}

// RenderWebsites prints the monitored websites with their last known state.
func (r *TableRenderer) RenderWebsites(entries []monitor.Entry) {
	t := r.newWriter()
	t.AppendHeader(table.Row{"Website", "Last Scan", "Changes Detected", "Status"})
	for _, e := range entries {
		t.AppendRow(table.Row{e.URL, e.LastScan.String(), e.Changes, e.Status})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
	})
	t.Render()
}

// RenderScan prints one row per checked URL followed by a summary line.
func (r *TableRenderer) RenderScan(report *monitor.Report) {
	t := r.newWriter()
	t.AppendHeader(table.Row{"Website", "Outcome", "Hash Before", "Hash After", "Error"})
	for _, res := range report.Results {
		t.AppendRow(table.Row{
			res.URL,
			string(res.Outcome),
			abbreviate(res.HashBefore),
			abbreviate(res.HashAfter),
			res.Error,
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 5, WidthMax: 60},
	})
	t.AppendFooter(table.Row{
		fmt.Sprintf("%d websites", len(report.Results)),
		fmt.Sprintf("%d changed", report.Count(monitor.OutcomeChanged)),
		"",
		"",
		fmt.Sprintf("%d errors", report.Count(monitor.OutcomeError)),
	})
	t.Render()
}

// RenderHistory prints history records, oldest first.
func (r *TableRenderer) RenderHistory(records []history.Record) {
	t := r.newWriter()
	t.AppendHeader(table.Row{"Time", "Website", "Status", "Changed", "Hash Before", "Hash After"})
	for _, rec := range records {
		t.AppendRow(table.Row{
			rec.Timestamp.Local().Format("2006-01-02 15:04:05"),
			rec.URL,
			rec.Status,
			rec.Changed,
			abbreviate(rec.HashBefore),
			abbreviate(rec.HashAfter),
		})
	}
	t.Render()
}

func abbreviate(hash string) string {
	if len(hash) <= shortHash {
		return hash
	}
	return hash[:shortHash]
}

// ScanDocument is the top-level structure of a JSON scan report.
type ScanDocument struct {
	GeneratedAt time.Time       `json:"generated_at"`
	Summary     ScanSummary     `json:"summary"`
	Report      *monitor.Report `json:"report"`
}

// ScanSummary provides a high-level overview of the scan results.
type ScanSummary struct {
	Websites      int      `json:"websites"`
	Changed       int      `json:"changed"`
	Unchanged     int      `json:"unchanged"`
	Initial       int      `json:"initial"`
	Errors        int      `json:"errors"`
	TotalDuration string   `json:"total_duration"`
	ChangedURLs   []string `json:"changed_urls"`
}

// Summarize builds the summary block of a report.
func Summarize(report *monitor.Report) ScanSummary {
	return ScanSummary{
		Websites:      len(report.Results),
		Changed:       report.Count(monitor.OutcomeChanged),
		Unchanged:     report.Count(monitor.OutcomeUnchanged),
		Initial:       report.Count(monitor.OutcomeInitial),
		Errors:        report.Count(monitor.OutcomeError),
		TotalDuration: report.FinishedAt.Sub(report.StartedAt).String(),
		ChangedURLs:   report.Changed(),
	}
}

// JSONExporter handles the creation of the JSON report file.
type JSONExporter struct {
	OutputPath string
}

// NewJSONExporter creates a new exporter that will write to the specified path.
func NewJSONExporter(outputPath string) (*JSONExporter, error) {
	// Ensure the output directory exists
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &JSONExporter{
		OutputPath: outputPath,
	}, nil
}

// Export generates and saves the JSON report.
func (e *JSONExporter) Export(report *monitor.Report) error {
	doc := ScanDocument{
		GeneratedAt: time.Now(),
		Summary:     Summarize(report),
		Report:      report,
	}
	file, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report to JSON: %w", err)
	}

	err = os.WriteFile(e.OutputPath, file, 0644)
	if err != nil {
		return fmt.Errorf("failed to write JSON report to file: %w", err)
	}

	log.Info().Str("path", e.OutputPath).Msg("JSON report saved successfully.")
	return nil
}
