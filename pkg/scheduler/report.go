package scheduler

import "time"

// Outcome is what happened to a source during a sweep
type Outcome string

// source outcomes
const (
	OutcomeSkippedInactive Outcome = "skipped-inactive"
	OutcomeNotDue          Outcome = "not-due"
	OutcomeUnsupported     Outcome = "unsupported"
	OutcomeInvalid         Outcome = "invalid"
	OutcomeEmpty           Outcome = "empty"
	OutcomeDelivered       Outcome = "delivered" // at least one item accepted
	OutcomeFailed          Outcome = "failed"
	OutcomeCanceled        Outcome = "canceled"
)

// SourceResult is the per-source part of a report
type SourceResult struct {
	SourceID   string        `json:"sourceId"`
	SourceName string        `json:"sourceName"`
	SourceType string        `json:"sourceType"`
	Outcome    Outcome       `json:"outcome"`
	Delivered  int           `json:"delivered"`
	Total      int           `json:"total"`
	Wait       time.Duration `json:"wait,omitempty"` // time left for not-due sources
	Error      string        `json:"error,omitempty"`
}

// Report describes one sweep. It is informational only, scheduling never looks at it.
type Report struct {
	ID            string         `json:"id"`
	Started       time.Time      `json:"started"`
	Duration      time.Duration  `json:"duration"`
	Sources       int            `json:"sources"`
	Due           int            `json:"due"`
	Items         int            `json:"items"`
	Delivered     int            `json:"delivered"`
	RegistryError string         `json:"registryError,omitempty"`
	Results       []SourceResult `json:"results"`
}

// summarize fills totals from results
func (r *Report) summarize() {
	r.Due, r.Items, r.Delivered = 0, 0, 0
	for _, res := range r.Results {
		switch res.Outcome {
		case OutcomeSkippedInactive, OutcomeNotDue, OutcomeInvalid, OutcomeCanceled:
			continue
		}
		r.Due++
		r.Items += res.Total
		r.Delivered += res.Delivered
	}
}

// Count returns the number of sources with the given outcome
func (r *Report) Count(o Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == o {
			n++
		}
	}
	return n
}
