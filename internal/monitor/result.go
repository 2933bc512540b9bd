package monitor

import (
	"time"

	"pagewatch/internal/state"
)

// Outcome classifies the check of one URL.
type Outcome string

const (
	// OutcomeInitial is the first successful check of a URL; it stores the
	// baseline fingerprint and does not count as a change.
	OutcomeInitial   Outcome = "initial"
	OutcomeChanged   Outcome = "changed"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeError     Outcome = "error"
)

// Result is the outcome of checking one URL during a scan.
type Result struct {
	URL        string        `json:"url"`
	Outcome    Outcome       `json:"outcome"`
	HashBefore string        `json:"hash_before,omitempty"`
	HashAfter  string        `json:"hash_after,omitempty"`
	StatusCode int           `json:"status_code,omitempty"`
	Duration   time.Duration `json:"duration"`
	CheckedAt  time.Time     `json:"checked_at"`
	Error      string        `json:"error,omitempty"`
	Err        error         `json:"-"`
}

// Report is the result set of one scan run.
type Report struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Results    []Result  `json:"results"`
}

// Changed lists the URLs whose fingerprint changed, in scan order.
func (r *Report) Changed() []string {
	var urls []string
	for _, res := range r.Results {
		if res.Outcome == OutcomeChanged {
			urls = append(urls, res.URL)
		}
	}
	return urls
}

// Count returns how many results have the given outcome.
func (r *Report) Count(o Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == o {
			n++
		}
	}
	return n
}

// Entry is one row of the monitored websites listing.
type Entry struct {
	URL string
	state.Website
}
