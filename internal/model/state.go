package model

// RecordState tracks how far an identifier has progressed through the
// per-identifier pipeline.
//
// The states form a linear progression:
//
//	Pending -> Requested -> Parsed -> Resolved -> Emitted
//
// An identifier whose lookup submission fails skips directly from Requested
// to Emitted with an empty reference list; it is never retried beyond the
// transport-level retry policy.
//
// Design decision: We model the progression as an explicit enum rather than
// inferring it from which fields are populated because:
//  1. Cancellation handling needs to know exactly where a record stopped
//  2. Partial-failure behavior is testable without a live transport
//  3. The state name gives log lines and the history database a stable vocabulary
type RecordState int

const (
	// StatePending means the identifier has been read from input but no
	// network activity has started yet.
	StatePending RecordState = iota

	// StateRequested means the lookup form has been submitted for this
	// identifier and the detail page response is being awaited.
	StateRequested

	// StateParsed means the detail page was parsed and the media references
	// for this identifier are known.
	StateParsed

	// StateResolved means every media reference has had its download
	// attempted, successfully or not.
	StateResolved

	// StateEmitted is the terminal state: the result record has been handed
	// to the output sink and must not change afterwards.
	StateEmitted
)

// String returns the lowercase state name used in logs and the database.
func (s RecordState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRequested:
		return "requested"
	case StateParsed:
		return "parsed"
	case StateResolved:
		return "resolved"
	case StateEmitted:
		return "emitted"
	default:
		return "unknown"
	}
}
