package model

import "time"

// RunSummary aggregates one complete run: the per-identifier records plus
// run-level metadata. Report writers consume it, and it is the unit the
// run-history database stores.
type RunSummary struct {
	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// Elapsed is the wall-clock duration of the run.
	Elapsed time.Duration `json:"elapsed"`

	// LandingURL is the landing page the lookup form was discovered on.
	LandingURL string `json:"landing_url"`

	// ProxyMode describes how requests were routed ("direct" or the
	// proxy host). Credentials never appear here.
	ProxyMode string `json:"proxy_mode"`

	// Records holds one entry per input identifier, in input order.
	// Entries that never reached the Emitted state (cancelled runs) are
	// included so callers can see how far the run got.
	Records []*ResultRecord `json:"records"`
}

// NewRunSummary creates a summary for the given records.
func NewRunSummary(records []*ResultRecord) *RunSummary {
	return &RunSummary{
		StartedAt: time.Now(),
		Records:   records,
	}
}

// EmittedRecords returns only the records that reached the terminal state.
// These are the records that belong in output rows.
func (s *RunSummary) EmittedRecords() []*ResultRecord {
	emitted := make([]*ResultRecord, 0, len(s.Records))
	for _, r := range s.Records {
		if r != nil && r.State == StateEmitted {
			emitted = append(emitted, r)
		}
	}
	return emitted
}

// TotalIdentifiers returns the number of identifiers in the run.
func (s *RunSummary) TotalIdentifiers() int {
	return len(s.Records)
}

// FailedCount returns how many emitted records carry a lookup error.
func (s *RunSummary) FailedCount() int {
	count := 0
	for _, r := range s.EmittedRecords() {
		if r.Err != nil || r.ErrorMessage != "" {
			count++
		}
	}
	return count
}

// ReferenceCount returns the total number of media references discovered.
func (s *RunSummary) ReferenceCount() int {
	count := 0
	for _, r := range s.EmittedRecords() {
		count += len(r.References)
	}
	return count
}

// StoredCount returns the total number of media files written to disk.
func (s *RunSummary) StoredCount() int {
	count := 0
	for _, r := range s.EmittedRecords() {
		count += len(r.Stored)
	}
	return count
}

// StoredBytes returns the total size of all stored media files.
func (s *RunSummary) StoredBytes() int64 {
	var total int64
	for _, r := range s.EmittedRecords() {
		for _, m := range r.Stored {
			total += m.Size
		}
	}
	return total
}
