package reporter

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagewatch/internal/history"
	"pagewatch/internal/monitor"
	"pagewatch/internal/state"
)

func sampleReport() *monitor.Report {
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	return &monitor.Report{
		RunID:      "run-42",
		StartedAt:  start,
		FinishedAt: start.Add(3 * time.Second),
		Results: []monitor.Result{
			{URL: "https://a.com", Outcome: monitor.OutcomeChanged, HashBefore: "0123456789abcdef0123", HashAfter: "fedcba98765432100000"},
			{URL: "https://b.com", Outcome: monitor.OutcomeUnchanged, HashBefore: "aa", HashAfter: "aa"},
			{URL: "https://c.com", Outcome: monitor.OutcomeError, Error: "unexpected status 503"},
		},
	}
}

func TestRenderWebsites(t *testing.T) {
	var buf bytes.Buffer
	NewTableRenderer(&buf).RenderWebsites([]monitor.Entry{
		{URL: "https://example.com", Website: state.Website{Changes: 3, Status: state.StatusChanged,
			LastScan: state.ScanTime{Time: time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local)}}},
		{URL: "https://new.com", Website: state.Website{Status: state.StatusPending}},
	})

	out := buf.String()
	assert.Contains(t, out, "CHANGES DETECTED")
	assert.Contains(t, out, "https://example.com")
	assert.Contains(t, out, "2024-01-02 03:04:05")
	assert.Contains(t, out, "Never")
	assert.Contains(t, out, state.StatusPending)
}

func TestRenderScan(t *testing.T) {
	var buf bytes.Buffer
	NewTableRenderer(&buf).RenderScan(sampleReport())

	// Footers are upper-cased by the table style.
	out := strings.ToLower(buf.String())
	assert.Contains(t, out, "0123456789ab")
	assert.NotContains(t, out, "0123456789abcdef0123")
	assert.Contains(t, out, "unexpected status 503")
	assert.Contains(t, out, "1 changed")
	assert.Contains(t, out, "1 errors")
}

func TestRenderHistory(t *testing.T) {
	var buf bytes.Buffer
	NewTableRenderer(&buf).RenderHistory([]history.Record{
		{Timestamp: time.Now(), URL: "https://a.com", Status: state.StatusChanged, Changed: true, HashBefore: "x", HashAfter: "y"},
	})
	assert.Contains(t, buf.String(), "https://a.com")
	assert.Contains(t, buf.String(), "true")
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleReport())
	assert.Equal(t, 3, s.Websites)
	assert.Equal(t, 1, s.Changed)
	assert.Equal(t, 1, s.Unchanged)
	assert.Equal(t, 1, s.Errors)
	assert.Equal(t, "3s", s.TotalDuration)
	assert.Equal(t, []string{"https://a.com"}, s.ChangedURLs)
}

func TestJSONExporter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "scan.json")
	exp, err := NewJSONExporter(path)
	require.NoError(t, err)
	require.NoError(t, exp.Export(sampleReport()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc ScanDocument
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "run-42", doc.Report.RunID)
	assert.Equal(t, 1, doc.Summary.Changed)
	require.Len(t, doc.Report.Results, 3)
	assert.Equal(t, "unexpected status 503", doc.Report.Results[2].Error)
}
