package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/certsnap/certsnap/internal/model"
)

// RunDB provides SQLite-based storage for run history.
// It manages connection pooling and provides methods for saving and
// querying past runs.
//
// Design decision: We use a single database file for all runs rather
// than one file per run. This keeps the `history` subcommand a single
// query and makes backup/restore a one-file operation.
type RunDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures RunDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a RunDB at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*RunDB, error) {
	dbPath := filepath.Join(dbDir, "certsnap.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating
	// new files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer; a single connection avoids
	// SQLITE_BUSY surprises.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	rdb := &RunDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close() //nolint:errcheck // Open already failed
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := rdb.createTables(); err != nil {
		_ = db.Close() //nolint:errcheck // Open already failed
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return rdb, nil
}

// Close closes the database connection.
func (rdb *RunDB) Close() error {
	return rdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (rdb *RunDB) createTables() error {
	schema := `
	-- Runs store one row per invocation, with the full summary as JSON
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at DATETIME NOT NULL,
		elapsed_ms INTEGER NOT NULL,
		landing_url TEXT NOT NULL,
		proxy_mode TEXT,
		identifier_count INTEGER NOT NULL,
		failed_count INTEGER NOT NULL,
		stored_count INTEGER NOT NULL,
		stored_bytes INTEGER NOT NULL,
		summary_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- Records store one row per identifier per run for direct queries
	CREATE TABLE IF NOT EXISTS records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		identifier TEXT NOT NULL,
		state TEXT NOT NULL,
		error TEXT,
		reference_count INTEGER NOT NULL,
		references_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_records_run ON records(run_id);
	CREATE INDEX IF NOT EXISTS idx_records_identifier ON records(identifier);

	-- Media stores one row per downloaded file, including EXIF capture info
	CREATE TABLE IF NOT EXISTS media (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		identifier TEXT NOT NULL,
		seq INTEGER NOT NULL,
		path TEXT NOT NULL,
		url TEXT NOT NULL,
		content_type TEXT,
		size INTEGER NOT NULL,
		camera_make TEXT,
		camera_model TEXT,
		software TEXT,
		captured_at DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_media_run ON media(run_id);
	CREATE INDEX IF NOT EXISTS idx_media_identifier ON media(identifier);
	`

	_, err := rdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveRun persists a completed run and returns its database ID.
// The summary is stored both as JSON (for lossless retrieval) and as
// normalized record/media rows (for direct SQL queries).
func (rdb *RunDB) SaveRun(ctx context.Context, summary *model.RunSummary) (int64, error) {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize run summary: %w", err)
	}

	tx, err := rdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // No-op after commit

	result, err := tx.ExecContext(ctx, `
	INSERT INTO runs (started_at, elapsed_ms, landing_url, proxy_mode,
		identifier_count, failed_count, stored_count, stored_bytes, summary_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		summary.StartedAt.UTC().Format("2006-01-02 15:04:05"),
		summary.Elapsed.Milliseconds(),
		summary.LandingURL,
		summary.ProxyMode,
		summary.TotalIdentifiers(),
		summary.FailedCount(),
		summary.StoredCount(),
		summary.StoredBytes(),
		string(summaryJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run ID: %w", err)
	}

	for _, record := range summary.Records {
		if record == nil {
			continue
		}

		refsJSON, err := json.Marshal(record.References)
		if err != nil {
			return 0, fmt.Errorf("failed to serialize references: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
		INSERT INTO records (run_id, identifier, state, error, reference_count, references_json)
		VALUES (?, ?, ?, ?, ?, ?)`,
			runID,
			record.Identifier,
			record.State.String(),
			record.ErrorMessage,
			len(record.References),
			string(refsJSON),
		); err != nil {
			return 0, fmt.Errorf("failed to insert record: %w", err)
		}

		for _, m := range record.Stored {
			var cameraMake, cameraModel, software string
			var capturedAt any
			if m.EXIF != nil {
				cameraMake, cameraModel, software = m.EXIF.CameraMake, m.EXIF.CameraModel, m.EXIF.Software
				if !m.EXIF.CapturedAt.IsZero() {
					capturedAt = m.EXIF.CapturedAt.UTC().Format("2006-01-02 15:04:05")
				}
			}

			if _, err := tx.ExecContext(ctx, `
			INSERT INTO media (run_id, identifier, seq, path, url, content_type, size,
				camera_make, camera_model, software, captured_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				runID, m.Identifier, m.Index, m.Path, m.URL, m.ContentType, m.Size,
				cameraMake, cameraModel, software, capturedAt,
			); err != nil {
				return 0, fmt.Errorf("failed to insert media row: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

// RunMetadata contains summary information about a stored run.
// This is used for displaying history without loading the full summary.
type RunMetadata struct {
	// ID is the unique identifier of the run in the database.
	ID int64

	// StartedAt is when the run began.
	StartedAt time.Time

	// Elapsed is the wall-clock duration of the run.
	Elapsed time.Duration

	// LandingURL is the landing page the run resolved against.
	LandingURL string

	// IdentifierCount is how many identifiers the run processed.
	IdentifierCount int

	// FailedCount is how many identifiers failed to resolve.
	FailedCount int

	// StoredCount is how many media files the run stored.
	StoredCount int

	// StoredBytes is the total size of stored media.
	StoredBytes int64
}

// ListRuns returns metadata for all stored runs, newest first.
func (rdb *RunDB) ListRuns(ctx context.Context) ([]RunMetadata, error) {
	rows, err := rdb.db.QueryContext(ctx, `
	SELECT id, started_at, elapsed_ms, landing_url,
		identifier_count, failed_count, stored_count, stored_bytes
	FROM runs
	ORDER BY started_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only rows

	var results []RunMetadata
	for rows.Next() {
		var meta RunMetadata
		var startedAt string
		var elapsedMS int64

		if err := rows.Scan(
			&meta.ID,
			&startedAt,
			&elapsedMS,
			&meta.LandingURL,
			&meta.IdentifierCount,
			&meta.FailedCount,
			&meta.StoredCount,
			&meta.StoredBytes,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run metadata: %w", err)
		}

		meta.StartedAt = parseTimestamp(startedAt)
		meta.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		results = append(results, meta)
	}

	return results, rows.Err()
}

// GetRunByID retrieves a stored run summary by its database ID.
// Returns nil without error when no run has the given ID.
func (rdb *RunDB) GetRunByID(ctx context.Context, id int64) (*model.RunSummary, error) {
	var summaryJSON string
	err := rdb.db.QueryRowContext(ctx,
		`SELECT summary_json FROM runs WHERE id = ?`, id).Scan(&summaryJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var summary model.RunSummary
	if err := json.Unmarshal([]byte(summaryJSON), &summary); err != nil {
		return nil, fmt.Errorf("failed to parse run summary: %w", err)
	}
	return &summary, nil
}

// GetLatestRun retrieves the most recently stored run summary.
// Returns nil without error when the database holds no runs.
func (rdb *RunDB) GetLatestRun(ctx context.Context) (*model.RunSummary, error) {
	var summaryJSON string
	err := rdb.db.QueryRowContext(ctx,
		`SELECT summary_json FROM runs ORDER BY started_at DESC, id DESC LIMIT 1`).Scan(&summaryJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}

	var summary model.RunSummary
	if err := json.Unmarshal([]byte(summaryJSON), &summary); err != nil {
		return nil, fmt.Errorf("failed to parse run summary: %w", err)
	}
	return &summary, nil
}

// MediaForIdentifier returns the stored media rows for an identifier
// across all runs, newest first.
func (rdb *RunDB) MediaForIdentifier(ctx context.Context, identifier string) ([]model.StoredMedia, error) {
	rows, err := rdb.db.QueryContext(ctx, `
	SELECT identifier, seq, path, url, content_type, size
	FROM media
	WHERE identifier = ?
	ORDER BY run_id DESC, seq ASC`, identifier)
	if err != nil {
		return nil, fmt.Errorf("failed to query media: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only rows

	var results []model.StoredMedia
	for rows.Next() {
		var m model.StoredMedia
		var contentType sql.NullString

		if err := rows.Scan(&m.Identifier, &m.Index, &m.Path, &m.URL, &contentType, &m.Size); err != nil {
			return nil, fmt.Errorf("failed to scan media row: %w", err)
		}
		m.ContentType = contentType.String
		results = append(results, m)
	}

	return results, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
