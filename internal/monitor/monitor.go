// Package monitor checks monitored websites for content changes.
//
// A scan fetches every URL in turn, fingerprints the body and compares it to
// the stored fingerprint. Failures are recorded per URL and never abort the
// batch. State is saved once at the end of the scan and the history log gets
// one row per scanned URL.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"pagewatch/internal/history"
	"pagewatch/internal/metrics"
	"pagewatch/internal/requester"
	"pagewatch/internal/state"
	"pagewatch/internal/util"
)

var (
	// ErrNotMonitored is returned when removing a URL that is not tracked.
	ErrNotMonitored = errors.New("url is not monitored")
	// ErrScanInProgress is returned when a scan is requested while one runs.
	ErrScanInProgress = errors.New("scan already in progress")
)

// Fetcher retrieves the current body of a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*requester.Page, error)
}

// Hasher fingerprints a page body.
type Hasher interface {
	Sum(body []byte) (string, error)
}

// HistoryWriter receives one record per scanned URL.
type HistoryWriter interface {
	Append(ctx context.Context, records ...history.Record) error
}

// Option customizes a Monitor.
type Option func(*Monitor)

// WithMetrics records check and scan metrics on r.
func WithMetrics(r *metrics.Recorder) Option {
	return func(m *Monitor) { m.metrics = r }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

// WithRunID replaces the run identifier generator.
func WithRunID(gen func() string) Option {
	return func(m *Monitor) { m.newRunID = gen }
}

// Monitor tracks a set of websites and detects changes to their content.
type Monitor struct {
	store    state.Store
	history  HistoryWriter
	fetcher  Fetcher
	hasher   Hasher
	metrics  *metrics.Recorder
	now      func() time.Time
	newRunID func() string

	mu       sync.Mutex
	sites    state.Websites
	scanning atomic.Bool
}

// New creates a Monitor and loads the current state from store.
func New(ctx context.Context, store state.Store, hist HistoryWriter, fetcher Fetcher, hasher Hasher, opts ...Option) (*Monitor, error) {
	m := &Monitor{
		store:    store,
		history:  hist,
		fetcher:  fetcher,
		hasher:   hasher,
		now:      time.Now,
		newRunID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(m)
	}

	if err := m.Reload(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

// Reload replaces the in-memory state with what the store holds, picking up
// websites added by other processes.
func (m *Monitor) Reload(ctx context.Context) error {
	sites, err := m.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}

	m.mu.Lock()
	m.sites = sites
	m.mu.Unlock()

	m.metrics.SetMonitored(len(sites))
	return nil
}

// Add starts monitoring the given URLs. Entries without a scheme get https://,
// blanks and already monitored URLs are skipped. It returns the normalized
// URLs that were newly added; invalid entries are reported in the error while
// valid ones are still added.
func (m *Monitor) Add(ctx context.Context, urls []string) ([]string, error) {
	var added []string
	var invalid []error

	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.sites.Clone()
	for _, raw := range urls {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		url, err := util.NormalizeURL(raw)
		if err != nil {
			invalid = append(invalid, err)
			continue
		}
		if _, exists := next[url]; exists {
			log.Debug().Str("url", url).Msg("Already monitored, skipping")
			continue
		}
		next[url] = state.Website{Status: state.StatusPending}
		added = append(added, url)
	}

	if len(added) > 0 {
		if err := m.store.Save(ctx, next); err != nil {
			return nil, fmt.Errorf("failed to save state: %w", err)
		}
		m.sites = next
		m.metrics.SetMonitored(len(next))
		log.Info().Strs("urls", added).Msg("Websites added")
	}

	return added, errors.Join(invalid...)
}

// Remove stops monitoring a URL.
func (m *Monitor) Remove(ctx context.Context, raw string) error {
	url, err := util.NormalizeURL(raw)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sites[url]; !ok {
		return fmt.Errorf("%w: %s", ErrNotMonitored, url)
	}

	next := m.sites.Clone()
	delete(next, url)
	if err := m.store.Save(ctx, next); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	m.sites = next
	m.metrics.SetMonitored(len(next))
	log.Info().Str("url", url).Msg("Website removed")
	return nil
}

// Websites returns a snapshot of all monitored websites ordered by URL.
func (m *Monitor) Websites() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := make([]Entry, 0, len(m.sites))
	for _, url := range m.sites.URLs() {
		entries = append(entries, Entry{URL: url, Website: m.sites[url]})
	}
	return entries
}

// Scan checks every monitored website once, in URL order. Per-URL failures
// are reported in the returned Report; only persistence failures and
// cancellation are returned as errors. When ctx is cancelled mid-scan, the
// URLs already checked are still persisted.
func (m *Monitor) Scan(ctx context.Context) (*Report, error) {
	if !m.scanning.CompareAndSwap(false, true) {
		return nil, ErrScanInProgress
	}
	defer m.scanning.Store(false)

	m.mu.Lock()
	work := m.sites.Clone()
	m.mu.Unlock()

	report := &Report{
		RunID:     m.newRunID(),
		StartedAt: m.now(),
	}
	logger := log.With().Str("run_id", report.RunID).Logger()
	logger.Info().Int("websites", len(work)).Msg("Scan started")

	updated := make(state.Websites, len(work))
	records := make([]history.Record, 0, len(work))

	for _, url := range work.URLs() {
		if ctx.Err() != nil {
			logger.Warn().Err(ctx.Err()).Msg("Scan interrupted")
			break
		}

		site, res := m.check(ctx, url, work[url])
		updated[url] = site
		report.Results = append(report.Results, res)
		records = append(records, history.Record{
			RunID:      report.RunID,
			Timestamp:  res.CheckedAt,
			URL:        url,
			HashBefore: res.HashBefore,
			HashAfter:  res.HashAfter,
			Changed:    res.Outcome == OutcomeChanged,
			Status:     site.Status,
			Error:      res.Error,
		})

		var ev *zerolog.Event
		if res.Outcome == OutcomeError {
			ev = logger.Warn().Str("error", res.Error)
		} else {
			ev = logger.Info()
		}
		ev.Str("url", url).Str("outcome", string(res.Outcome)).Dur("duration", res.Duration).Msg("Website checked")
	}

	report.FinishedAt = m.now()
	persistErr := m.persist(ctx, updated, records)

	m.metrics.ObserveScan(len(work), report.FinishedAt)
	logger.Info().
		Int("changed", report.Count(OutcomeChanged)).
		Int("unchanged", report.Count(OutcomeUnchanged)).
		Int("initial", report.Count(OutcomeInitial)).
		Int("errors", report.Count(OutcomeError)).
		Msg("Scan complete")

	if persistErr != nil {
		return report, persistErr
	}
	return report, ctx.Err()
}

// check fetches and fingerprints one URL and returns its next state.
func (m *Monitor) check(ctx context.Context, url string, site state.Website) (state.Website, Result) {
	res := Result{URL: url, HashBefore: site.LastHash}

	start := time.Now()
	page, err := m.fetcher.Fetch(ctx, url)
	res.Duration = time.Since(start)

	var sum string
	if err == nil {
		res.StatusCode = page.StatusCode
		sum, err = m.hasher.Sum(page.Body)
	}

	res.CheckedAt = m.now()
	if err != nil {
		var statusErr *requester.StatusError
		if errors.As(err, &statusErr) {
			res.StatusCode = statusErr.Code
		}
		res.Outcome = OutcomeError
		res.Err = err
		res.Error = err.Error()
		site.Status = state.StatusError
		site.LastError = res.Error
		m.metrics.ObserveCheck(string(res.Outcome), res.Duration)
		return site, res
	}

	res.HashAfter = sum
	switch {
	case site.LastHash == "":
		res.Outcome = OutcomeInitial
		site.Status = state.StatusInitial
	case site.LastHash != sum:
		res.Outcome = OutcomeChanged
		site.Status = state.StatusChanged
		site.Changes++
	default:
		res.Outcome = OutcomeUnchanged
		site.Status = state.StatusUnchanged
	}
	site.LastHash = sum
	site.LastError = ""
	if res.CheckedAt.After(site.LastScan.Time) {
		site.LastScan = state.ScanTime{Time: res.CheckedAt}
	}

	m.metrics.ObserveCheck(string(res.Outcome), res.Duration)
	return site, res
}

// persist merges the scanned websites into the live state, saves it once and
// appends the history rows. URLs removed while the scan ran stay removed from
// the state but keep their history row.
func (m *Monitor) persist(ctx context.Context, updated state.Websites, records []history.Record) error {
	// Persist even if the scan context was cancelled.
	ctx = context.WithoutCancel(ctx)

	m.mu.Lock()
	next := m.sites.Clone()
	for url, site := range updated {
		if _, ok := next[url]; ok {
			next[url] = site
		}
	}

	var errs []error
	if err := m.store.Save(ctx, next); err != nil {
		errs = append(errs, fmt.Errorf("failed to save state: %w", err))
	} else {
		m.sites = next
	}
	m.mu.Unlock()

	if err := m.history.Append(ctx, records...); err != nil {
		errs = append(errs, fmt.Errorf("failed to append history: %w", err))
	}
	return errors.Join(errs...)
}
