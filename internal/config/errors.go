package config

import "errors"

// Configuration validation errors.
// These are returned by Config.Validate() and name the specific problem.
//
// Design decision: We use package-level sentinel errors rather than creating
// error instances inside Validate() so that callers can use errors.Is() for
// programmatic handling while the messages stay human-readable.
var (
	// ErrNoInput is returned when no input CSV path is configured.
	ErrNoInput = errors.New("no input file specified: provide a CSV of certificate identifiers with --input")

	// ErrNoLandingURL is returned when the landing page URL is empty.
	// The lookup form cannot be discovered without it.
	ErrNoLandingURL = errors.New("no landing URL specified")

	// ErrNoStorageRoot is returned when the media storage directory is empty.
	ErrNoStorageRoot = errors.New("no storage root specified for downloaded media")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	// A zero or negative timeout would fail every request immediately.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidConcurrency is returned when the fan-out limit is not
	// positive. Zero concurrency would process nothing.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidRetries is returned when the retry count is negative.
	// Use 0 to disable retries.
	ErrInvalidRetries = errors.New("invalid retries: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Use 0 to fall back to the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified. Only one summary format can be used.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
