package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These defaults mirror the behavior of the lookup site itself and the
// rate tolerance of its anti-bot defenses; change them with care.
const (
	// DefaultLandingURL is the lookup site's landing page. The lookup form
	// is discovered here once per run and reused for every identifier.
	DefaultLandingURL = "https://www.cgccards.com/"

	// DefaultImagesSelector is the CSS selector for the detail page
	// container that holds a certificate's media. Only elements inside
	// this container are considered media references.
	DefaultImagesSelector = "div.certlookup-images-item"

	// DefaultIdentifierColumn is the input CSV header of the column holding
	// certificate identifiers.
	DefaultIdentifierColumn = "Cert"

	// DefaultConcurrency is the number of identifiers processed in
	// parallel. 2 is deliberately small: the target site sits behind
	// anti-bot defenses and higher fan-out trips its rate thresholds.
	DefaultConcurrency = 2

	// DefaultTimeout is the per-request timeout applied uniformly to the
	// landing-page fetch, each lookup submission, and each media download.
	DefaultTimeout = 30 * time.Second

	// DefaultRetries is the number of additional attempts for a request
	// that fails transiently (network error, 429, 5xx).
	DefaultRetries = 2

	// DefaultStorageRoot is the directory under which one subdirectory per
	// identifier is created for downloaded media.
	DefaultStorageRoot = "images"

	// DefaultOutputPath is the CSV file the result records are written to.
	DefaultOutputPath = "certsnap_media.csv"

	// DefaultUserAgent identifies certsnap in HTTP requests. A descriptive
	// User-Agent lets site operators recognize the traffic in their logs.
	DefaultUserAgent = "Mozilla/5.0 (compatible; certsnap/1.0; +https://github.com/certsnap/certsnap)"

	// DefaultMaxBodySize limits how much of any response body is read.
	// 10MB comfortably fits full-resolution certificate scans while
	// bounding memory use.
	DefaultMaxBodySize = 10 * 1024 * 1024

	// AppName is the application name used for XDG directory paths.
	AppName = "certsnap"
)

// Config holds all options for a certsnap run.
// It is populated from CLI flags, validated once, and passed into the
// pipeline at construction time; nothing reads process-wide state.
//
// Design decision: We use a single flat struct instead of nested sub-configs
// because the option count is manageable and flat access keeps the cmd layer
// simple. Revisit if the configuration grows substantially.
type Config struct {
	// InputPath is the CSV file holding certificate identifiers.
	InputPath string

	// IdentifierColumn is the header of the input column holding
	// identifiers. When left empty the reader falls back to the first
	// column; when set explicitly, a missing column is a fatal error.
	IdentifierColumn string

	// LandingURL is the lookup site's landing page address.
	LandingURL string

	// ImagesSelector is the CSS selector of the detail-page media container.
	ImagesSelector string

	// ProxyURL is the authenticating HTTP proxy used to traverse the
	// site's anti-bot defenses, e.g. "http://APIKEY:@proxy.example.com:8001".
	// Empty means direct connection (useful only against test servers).
	ProxyURL string

	// StorageRoot is the directory media files are written under,
	// one subdirectory per identifier.
	StorageRoot string

	// OutputPath is the CSV output file. "-" writes to stdout.
	OutputPath string

	// Concurrency is the bounded fan-out across identifiers. Each
	// identifier's own pipeline stays sequential regardless of this value.
	Concurrency int

	// Timeout is the per-request timeout for every network fetch.
	Timeout time.Duration

	// Retries is the bounded retry count for transient request failures.
	Retries int

	// UserAgent is the User-Agent header for all requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64

	// Verbose enables debug-level log output.
	Verbose bool

	// JSONReport switches the run summary to JSON.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport switches the run summary to Markdown.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is where the run summary goes when set; stdout otherwise.
	// The primary CSV sink (OutputPath) is unaffected.
	ReportFile string

	// DBDir is the directory for the SQLite run-history database.
	// Defaults to the XDG data directory.
	DBDir string

	// SaveToDB controls whether the run is recorded in the history database.
	SaveToDB bool

	// ConfigFilePath is an explicit .certsnap config file path, if given.
	ConfigFilePath string

	// Site holds the site tuning loaded from the config file.
	Site SiteConfig
}

// NewConfig returns a Config with all defaults applied.
//
// Design decision: We use a constructor rather than relying on zero values
// because most defaults are non-zero, and the constructor doubles as
// documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		IdentifierColumn: DefaultIdentifierColumn,
		LandingURL:       DefaultLandingURL,
		ImagesSelector:   DefaultImagesSelector,
		StorageRoot:      DefaultStorageRoot,
		OutputPath:       DefaultOutputPath,
		Concurrency:      DefaultConcurrency,
		Timeout:          DefaultTimeout,
		Retries:          DefaultRetries,
		UserAgent:        DefaultUserAgent,
		MaxBodySize:      DefaultMaxBodySize,
	}
}

// XDGDataDir returns the XDG data directory for certsnap.
// On Linux: ~/.local/share/certsnap
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for certsnap.
// On Linux: ~/.config/certsnap
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the configuration and returns the first problem found.
// It runs once after flag parsing, before any network activity, so that
// misconfiguration fails fast with a clear message.
func (c *Config) Validate() error {
	if c.InputPath == "" {
		return ErrNoInput
	}
	if c.LandingURL == "" {
		return ErrNoLandingURL
	}
	if c.StorageRoot == "" {
		return ErrNoStorageRoot
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.Retries < 0 {
		return ErrInvalidRetries
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	return nil
}
