// Package history keeps the append-only log of scan outcomes.
package history

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Header is the first row of every history file.
var Header = []string{"run_id", "timestamp", "url", "hash_before", "hash_after", "changed", "status", "error"}

// ErrIncompatible is returned when an existing file does not carry Header.
var ErrIncompatible = errors.New("history file has an incompatible header")

// LegacyHeader is the per-run layout written by earlier releases: one row per
// scan listing the changed websites.
var LegacyHeader = []string{"timestamp", "changed_websites", "total_websites"}

// LegacySuffix replaces the extension of a legacy file when it is moved aside.
const LegacySuffix = ".legacy.csv"

// Record is one scanned URL within one run.
type Record struct {
	RunID      string    `json:"run_id"`
	Timestamp  time.Time `json:"timestamp"`
	URL        string    `json:"url"`
	HashBefore string    `json:"hash_before"`
	HashAfter  string    `json:"hash_after"`
	Changed    bool      `json:"changed"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
}

func (r Record) row() []string {
	return []string{
		r.RunID,
		r.Timestamp.Format(time.RFC3339),
		r.URL,
		r.HashBefore,
		r.HashAfter,
		strconv.FormatBool(r.Changed),
		r.Status,
		r.Error,
	}
}

// Log is a CSV history file. Appends are serialized.
type Log struct {
	mu   sync.Mutex
	path string
}

// NewLog creates a Log writing to path.
func NewLog(path string) *Log {
	return &Log{path: path}
}

// Path returns the file location.
func (l *Log) Path() string { return l.path }

// Append writes records at the end of the file, creating it with a header
// when it does not exist or is empty.
func (l *Log) Append(_ context.Context, records ...Record) error {
	if len(records) == 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if dir := filepath.Dir(l.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	fresh, err := l.checkHeader()
	if err != nil {
		return err
	}

	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open history file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if fresh {
		if err := w.Write(Header); err != nil {
			return fmt.Errorf("failed to write history header: %w", err)
		}
	}
	for _, r := range records {
		if err := w.Write(r.row()); err != nil {
			return fmt.Errorf("failed to write history row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush history: %w", err)
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("failed to sync history: %w", err)
	}

	log.Debug().Str("path", l.path).Int("rows", len(records)).Msg("History appended")
	return nil
}

// checkHeader reports whether the file is new (needs a header). A file in
// the older per-run layout is moved aside so a new log can start; any other
// layout is rejected.
func (l *Log) checkHeader() (bool, error) {
	first, err := firstRow(l.path)
	if err != nil {
		return false, err
	}
	switch {
	case first == nil:
		return true, nil
	case isHeader(first):
		return false, nil
	case isLegacyHeader(first):
		moved, err := moveAside(l.path)
		if err != nil {
			return false, err
		}
		log.Warn().Str("path", l.path).Str("moved_to", moved).Msg("Old history format found, starting a new history file")
		return true, nil
	default:
		return false, fmt.Errorf("%w: %s", ErrIncompatible, l.path)
	}
}

// firstRow returns the first CSV row of path, or nil when the file is
// missing or empty.
func firstRow(path string) ([]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open history file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	row, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history header: %w", err)
	}
	return row, nil
}

// moveAside renames path to <name>.legacy.csv, adding a timestamp when that
// name is taken, and returns the new location.
func moveAside(path string) (string, error) {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	target := base + LegacySuffix
	if _, err := os.Stat(target); err == nil {
		target = fmt.Sprintf("%s.legacy-%d.csv", base, time.Now().Unix())
	}
	if err := os.Rename(path, target); err != nil {
		return "", fmt.Errorf("failed to move old history file: %w", err)
	}
	return target, nil
}

// Read parses every row of the file. A missing file yields no records.
func (l *Log) Read(_ context.Context) ([]Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open history file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	first, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history header: %w", err)
	}
	if isLegacyHeader(first) {
		// Replaced on the next append.
		return nil, nil
	}
	if !isHeader(first) {
		return nil, fmt.Errorf("%w: %s", ErrIncompatible, l.path)
	}
	r.FieldsPerRecord = len(Header)

	var records []Record
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read history row: %w", err)
		}
		rec, err := parseRow(row)
		if err != nil {
			line, _ := r.FieldPos(0)
			return nil, fmt.Errorf("history line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func isHeader(row []string) bool {
	return strings.Join(row, ",") == strings.Join(Header, ",")
}

func isLegacyHeader(row []string) bool {
	return strings.Join(row, ",") == strings.Join(LegacyHeader, ",")
}

func parseRow(row []string) (Record, error) {
	ts, err := time.Parse(time.RFC3339, row[1])
	if err != nil {
		return Record{}, fmt.Errorf("bad timestamp %q: %w", row[1], err)
	}
	changed, err := strconv.ParseBool(row[5])
	if err != nil {
		return Record{}, fmt.Errorf("bad changed flag %q: %w", row[5], err)
	}
	return Record{
		RunID:      row[0],
		Timestamp:  ts,
		URL:        row[2],
		HashBefore: row[3],
		HashAfter:  row[4],
		Changed:    changed,
		Status:     row[6],
		Error:      row[7],
	}, nil
}

// Filter narrows a set of records.
type Filter struct {
	URL   string
	Since time.Time
	// Limit keeps only the last N matching records; 0 keeps all.
	Limit int
}

// Apply returns the records matching f, oldest first.
func (f Filter) Apply(records []Record) []Record {
	var out []Record
	for _, r := range records {
		if f.URL != "" && r.URL != f.URL {
			continue
		}
		if !f.Since.IsZero() && r.Timestamp.Before(f.Since) {
			continue
		}
		out = append(out, r)
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[len(out)-f.Limit:]
	}
	return out
}
