package model

import "time"

// ResultRecord is the single output row produced for one certificate
// identifier. Every identifier read from input yields exactly one record,
// even when the lookup fails or the detail page carries no media; an empty
// reference list is valid output, never a dropped row.
//
// Design decision: References holds URLs rather than full MediaReference
// values because the output sink only needs the ordered URL list; the
// richer reference data stays internal to the pipeline. Stored media paths
// are a local side effect and are tracked separately in Stored.
type ResultRecord struct {
	// Identifier is the opaque certificate identifier from the input file.
	Identifier string `json:"identifier"`

	// References is the ordered, deduplicated list of resolved media URLs
	// discovered for this identifier. A URL appears here even when its
	// local download failed; only the artifact is missing in that case.
	References []string `json:"references"`

	// Stored lists the media files actually written for this identifier.
	// len(Stored) <= len(References) when downloads failed.
	Stored []StoredMedia `json:"stored,omitempty"`

	// State is the record's position in the pipeline state machine.
	State RecordState `json:"state"`

	// ProcessedAt is when the record reached its terminal state.
	ProcessedAt time.Time `json:"processed_at"`

	// Err holds the lookup error for identifiers that failed at the
	// Requested stage. Excluded from JSON; ErrorMessage carries the text.
	Err error `json:"-"`

	// ErrorMessage is the string form of Err for serialization.
	ErrorMessage string `json:"error,omitempty"`
}

// NewResultRecord creates a pending record for the given identifier.
func NewResultRecord(identifier string) *ResultRecord {
	return &ResultRecord{
		Identifier: identifier,
		References: make([]string, 0),
		State:      StatePending,
	}
}

// SetError records a per-identifier failure and its message.
// The record remains valid output: it emits with an empty reference list.
func (r *ResultRecord) SetError(err error) {
	r.Err = err
	if err != nil {
		r.ErrorMessage = err.Error()
	}
}

// AddReference appends a resolved media URL in discovery order.
func (r *ResultRecord) AddReference(url string) {
	r.References = append(r.References, url)
}

// AddStored appends a stored media artifact.
func (r *ResultRecord) AddStored(m StoredMedia) {
	r.Stored = append(r.Stored, m)
}

// Emit marks the record terminal and stamps the processing time.
// Calling Emit more than once is a no-op; emitted records never mutate.
func (r *ResultRecord) Emit() {
	if r.State == StateEmitted {
		return
	}
	r.State = StateEmitted
	r.ProcessedAt = time.Now()
}
