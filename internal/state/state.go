// Package state persists the last known fingerprint of every monitored website.
package state

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Status values shown for a website.
const (
	StatusPending   = "Pending"
	StatusInitial   = "Initial scan"
	StatusChanged   = "Changed"
	StatusUnchanged = "No changes"
	StatusError     = "Error"
)

// legacyLayout is how older state files wrote last_scan.
const legacyLayout = "2006-01-02 15:04:05"

// Store loads and saves the full website state.
type Store interface {
	Load(ctx context.Context) (Websites, error)
	Save(ctx context.Context, sites Websites) error
}

// Website is the tracked state of a single URL.
type Website struct {
	LastScan ScanTime `json:"last_scan"`
	Changes  int      `json:"changes"`
	Status   string   `json:"status"`
	LastHash string   `json:"last_hash,omitempty"`
	// LastError explains the most recent Error status.
	LastError string `json:"last_error,omitempty"`
}

// Websites maps a normalized URL to its state.
type Websites map[string]Website

// URLs returns the keys in lexical order.
func (w Websites) URLs() []string {
	urls := make([]string, 0, len(w))
	for u := range w {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls
}

// Clone returns an independent copy.
func (w Websites) Clone() Websites {
	out := make(Websites, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

// ScanTime is a timestamp that encodes as RFC 3339, or null when zero. It
// also decodes the "YYYY-MM-DD HH:MM:SS" local-time form of older files.
type ScanTime struct {
	time.Time
}

// MarshalJSON implements json.Marshaler.
func (t ScanTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339))
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *ScanTime) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("last_scan: %w", err)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	if parsed, err := time.Parse(time.RFC3339, s); err == nil {
		t.Time = parsed
		return nil
	}
	parsed, err := time.ParseInLocation(legacyLayout, s, time.Local)
	if err != nil {
		return fmt.Errorf("last_scan: unrecognized time %q", s)
	}
	t.Time = parsed
	return nil
}

// String renders the time for tables, "Never" when unset.
func (t ScanTime) String() string {
	if t.IsZero() {
		return "Never"
	}
	return t.Local().Format(legacyLayout)
}
