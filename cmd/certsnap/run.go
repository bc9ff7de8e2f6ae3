package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/certsnap/certsnap/internal/config"
	"github.com/certsnap/certsnap/internal/database"
	"github.com/certsnap/certsnap/internal/input"
	"github.com/certsnap/certsnap/internal/log"
	"github.com/certsnap/certsnap/internal/lookup"
	"github.com/certsnap/certsnap/internal/media"
	"github.com/certsnap/certsnap/internal/model"
	"github.com/certsnap/certsnap/internal/pipeline"
	"github.com/certsnap/certsnap/internal/proxy"
	"github.com/certsnap/certsnap/internal/report"
)

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Resolve certificate identifiers and download their media",
		Long: `Run reads certificate identifiers from a CSV file, resolves each one
through the lookup site's form, downloads the media found on the detail
pages, and writes a CSV mapping every identifier to its media URLs.

Every input identifier produces exactly one output row, in input order.
Identifiers that fail to resolve emit a row with empty reference columns.

Examples:
  # Resolve identifiers through an anti-bot proxy
  certsnap run --input certs.csv --proxy http://APIKEY:@proxy.zenrows.com:8001

  # Read identifiers from a custom column
  certsnap run --input certs.csv --column "Cert Number"

  # Write media and output to custom locations
  certsnap run --input certs.csv --storage ./media --output results.csv

  # Emit a Markdown run report alongside the CSV
  certsnap run --input certs.csv --markdown --report-file report.md

  # Use a custom configuration file
  certsnap run --input certs.csv -c myconfig.yaml

Configuration file (.certsnap) example:
  site:
    imagesSelector: "div.certlookup-images-item"
    cookie: "cf_clearance=abc123"
    headers:
      Accept-Language: "en-US,en;q=0.9"`,
		Args: cobra.NoArgs,
		RunE: runRunCmd,
	}

	// Input flags
	cmd.Flags().StringP("input", "i", "",
		"CSV file holding certificate identifiers (required)")
	cmd.Flags().String("column", config.DefaultIdentifierColumn,
		"Input column holding identifiers (falls back to the first column when unset)")

	// Connection flags
	cmd.Flags().StringP("proxy", "p", "",
		"Authenticating HTTP proxy URL, e.g. http://APIKEY:@proxy.example.com:8001")
	cmd.Flags().String("landing-url", config.DefaultLandingURL,
		"Landing page where the lookup form is discovered")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Per-request timeout")
	cmd.Flags().IntP("retries", "r", config.DefaultRetries,
		"Retry count for transient request failures (429, 5xx, network errors)")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with every request")

	// Processing flags
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency,
		"Number of identifiers resolved in parallel")
	cmd.Flags().StringP("storage", "s", config.DefaultStorageRoot,
		"Directory downloaded media is stored under, one subdirectory per identifier")
	cmd.Flags().StringP("output", "o", config.DefaultOutputPath,
		"CSV output file path (\"-\" for stdout)")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .certsnap in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Write a JSON run report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Write a Markdown run report (mutually exclusive with --json)")
	cmd.Flags().String("report-file", "",
		"Write the run report to this path instead of stdout")

	// History database flags
	cmd.Flags().Bool("no-db", false,
		"Skip recording the run in the history database")
	cmd.Flags().String("db-dir", "",
		"Directory for the run-history database (default: XDG data directory)")

	return cmd
}

// runRunCmd executes the run command.
func runRunCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// The secure logger masks proxy credentials before they reach any
	// log output.
	logger := log.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Interrupts stop scheduling new identifiers; identifiers already
	// emitted keep their output rows.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runResolve(ctx, cfg, logger)
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.InputPath, err = cmd.Flags().GetString("input")
	if err != nil {
		return nil, err
	}

	// An unset --column keeps the input reader's fallback behavior: try
	// the default header, otherwise use the first column. An explicit
	// --column makes a missing header a fatal error.
	if cmd.Flags().Changed("column") {
		cfg.IdentifierColumn, err = cmd.Flags().GetString("column")
		if err != nil {
			return nil, err
		}
	} else {
		cfg.IdentifierColumn = ""
	}

	cfg.ProxyURL, err = cmd.Flags().GetString("proxy")
	if err != nil {
		return nil, err
	}

	cfg.LandingURL, err = cmd.Flags().GetString("landing-url")
	if err != nil {
		return nil, err
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.Retries, err = cmd.Flags().GetInt("retries")
	if err != nil {
		return nil, err
	}

	cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
	if err != nil {
		return nil, err
	}

	cfg.Concurrency, err = cmd.Flags().GetInt("concurrency")
	if err != nil {
		return nil, err
	}

	cfg.StorageRoot, err = cmd.Flags().GetString("storage")
	if err != nil {
		return nil, err
	}

	cfg.OutputPath, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load site tuning from the config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently run with defaults.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cf, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.Site = cf.Merge(cfg.Site)
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	if cfg.Site.ImagesSelector != "" {
		cfg.ImagesSelector = cfg.Site.ImagesSelector
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("report-file")
	if err != nil {
		return nil, err
	}

	noDB, err := cmd.Flags().GetBool("no-db")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noDB

	cfg.DBDir, err = cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if cfg.DBDir == "" {
		cfg.DBDir = config.XDGDataDir()
	}

	cfg.Verbose = getVerboseFlag(cmd)

	return cfg, nil
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// runResolve executes the resolution run.
func runResolve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	identifiers, err := input.ReadIdentifiers(cfg.InputPath, cfg.IdentifierColumn)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	logger.Info("starting run",
		"identifiers", len(identifiers),
		"landingURL", cfg.LandingURL,
		"proxy", cfg.ProxyURL,
		"concurrency", cfg.Concurrency,
	)

	client, err := proxy.NewClient(cfg.ProxyURL, cfg.Timeout,
		proxy.WithUserAgent(cfg.UserAgent),
		proxy.WithRetries(cfg.Retries),
		proxy.WithCookie(cfg.Site.Cookie),
		proxy.WithHeaders(cfg.Site.Headers),
		proxy.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("failed to create proxy client: %w", err)
	}

	status := client.CheckConnection(ctx)
	if status != proxy.StatusOK && status != proxy.StatusDirect {
		return fmt.Errorf("proxy check failed: %s (make sure the proxy endpoint is reachable)", status)
	}
	logger.Info("connection mode verified", "status", status.String())

	// Open database connection if saving is enabled
	var db *database.RunDB
	if cfg.SaveToDB {
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close() //nolint:errcheck // Read-mostly handle, close on exit
		logger.Info("database opened", "dir", cfg.DBDir)
	}

	httpClient := client.NewHTTPClient()

	// The lookup form is discovered once per run and reused for every
	// identifier; each discovery costs a billable proxy request.
	form, err := discoverLookupForm(ctx, httpClient, cfg)
	if err != nil {
		return err
	}
	logger.Info("lookup form discovered",
		"action", form.Action,
		"method", form.Method,
		"input", form.InputName,
	)

	store := media.NewStore(cfg.StorageRoot)
	fetcher := media.NewFetcher(httpClient, store, cfg.MaxBodySize, logger)

	bp := pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline {
			p := pipeline.New(pipeline.WithLogger(logger))
			lookupStep := pipeline.NewLookupStep(httpClient, form, cfg.MaxBodySize)
			parseStep := pipeline.NewParseStep(lookupStep, cfg.ImagesSelector, logger)
			fetchStep := pipeline.NewFetchStep(parseStep, fetcher)
			p.AddSteps(lookupStep, parseStep, fetchStep)
			return p
		},
		pipeline.WithConcurrency(cfg.Concurrency),
		pipeline.WithBatchLogger(logger),
	)

	startTime := time.Now()
	records, runErr := bp.ProcessBatch(ctx, identifiers)

	summary := model.NewRunSummary(records)
	summary.StartedAt = startTime
	summary.Elapsed = time.Since(startTime)
	summary.LandingURL = cfg.LandingURL
	summary.ProxyMode = proxyMode(cfg.ProxyURL)

	// Output and persistence still run after an interrupt: whatever was
	// emitted before cancellation is valid output.
	if err := writeOutputCSV(cfg, summary); err != nil {
		return err
	}

	if err := outputReport(cfg, summary); err != nil {
		logger.Error("report output failed", "error", err)
	}

	if db != nil {
		// The run context may already be cancelled; saving uses its own.
		id, err := db.SaveRun(context.Background(), summary)
		if err != nil {
			logger.Error("failed to save run", "error", err)
		} else {
			logger.Info("run saved to history", "runID", id)
		}
	}

	if runErr != nil {
		return fmt.Errorf("run interrupted: %w", runErr)
	}
	return nil
}

// discoverLookupForm fetches the landing page and locates the lookup form.
func discoverLookupForm(ctx context.Context, client *http.Client, cfg *config.Config) (*lookup.Form, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.LandingURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid landing URL: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch landing page: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // Read-only response body

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("landing page returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, cfg.MaxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read landing page: %w", err)
	}

	// Relative form actions resolve against the final URL after redirects.
	form, err := lookup.DiscoverForm(bytes.NewReader(body), resp.Request.URL.String(), cfg.Site.FormSelector)
	if err != nil {
		return nil, fmt.Errorf("failed to discover lookup form on %s: %w", cfg.LandingURL, err)
	}
	return form, nil
}

// writeOutputCSV writes the primary CSV output and prints the run summary.
func writeOutputCSV(cfg *config.Config, summary *model.RunSummary) error {
	var output *os.File
	if cfg.OutputPath == "-" {
		output = os.Stdout
	} else {
		f, err := os.OpenFile(cfg.OutputPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close() //nolint:errcheck // Errors surface on the csv flush
		output = f
	}

	if _, err := report.NewCSVWriter(output).Write(summary); err != nil {
		return fmt.Errorf("failed to write output CSV: %w", err)
	}

	// Human-readable summary goes to stdout unless the CSV already did.
	if cfg.OutputPath != "-" {
		if _, err := report.NewSimpleWriter(os.Stdout, report.WithVerbose(cfg.Verbose)).Write(summary); err != nil {
			return fmt.Errorf("failed to write run summary: %w", err)
		}
		fmt.Printf("Output written to %s\n", cfg.OutputPath)
	}
	return nil
}

// outputReport writes the optional JSON or Markdown run report.
func outputReport(cfg *config.Config, summary *model.RunSummary) error {
	if !cfg.JSONReport && !cfg.MarkdownReport {
		return nil
	}

	var output *os.File
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create report directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer f.Close() //nolint:errcheck // Errors surface on the write
		output = f
	} else {
		output = os.Stdout
	}

	var w report.Writer
	if cfg.JSONReport {
		w = report.NewJSONWriter(output, report.WithPrettyPrint())
	} else {
		w = report.NewMarkdownWriter(output)
	}

	if _, err := w.Write(summary); err != nil {
		return fmt.Errorf("failed to write run report: %w", err)
	}
	return nil
}

// proxyMode describes request routing for display and storage.
// Credentials in the proxy URL never appear in the result.
func proxyMode(rawURL string) string {
	if rawURL == "" {
		return "direct"
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "proxy"
	}
	return u.Host
}
