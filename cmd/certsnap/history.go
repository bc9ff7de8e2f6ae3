package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/certsnap/certsnap/internal/config"
	"github.com/certsnap/certsnap/internal/database"
	"github.com/certsnap/certsnap/internal/model"
	"github.com/certsnap/certsnap/internal/report"
)

// NewHistoryCmd creates the history command.
// This command inspects past runs stored in the history database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect past runs stored in the history database",
		Long: `History lists runs recorded in the local run-history database and
displays the full results of individual runs.

Every 'certsnap run' invocation is recorded unless --no-db was given.

Examples:
  # List all recorded runs
  certsnap history

  # Show the most recent run
  certsnap history --latest

  # Show a specific run by ID (use the list to find IDs)
  certsnap history --run-id 5

  # Dump a run as JSON for tooling
  certsnap history --run-id 5 --json`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().Int64P("run-id", "i", 0,
		"Show the run with this ID")
	cmd.Flags().BoolP("latest", "l", false,
		"Show the most recent run")
	cmd.Flags().BoolP("json", "j", false,
		"Output the run in JSON format")
	cmd.Flags().String("db-dir", "",
		"Directory of the run-history database (default: XDG data directory)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	runID, err := cmd.Flags().GetInt64("run-id")
	if err != nil {
		return err
	}
	latest, err := cmd.Flags().GetBool("latest")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	// Opening read-only: a missing database means no runs were recorded.
	db, err := database.Open(dbDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		fmt.Println("No run history found.")
		fmt.Println("\nUse 'certsnap run' to resolve identifiers and record a run.")
		return nil
	}
	defer db.Close() //nolint:errcheck // Read-only handle

	ctx := context.Background()

	switch {
	case runID > 0:
		summary, err := db.GetRunByID(ctx, runID)
		if err != nil {
			return fmt.Errorf("failed to load run %d: %w", runID, err)
		}
		if summary == nil {
			return fmt.Errorf("run with ID %d not found (use 'certsnap history' to list runs)", runID)
		}
		return outputStoredRun(summary, jsonOutput)
	case latest:
		summary, err := db.GetLatestRun(ctx)
		if err != nil {
			return fmt.Errorf("failed to load latest run: %w", err)
		}
		if summary == nil {
			fmt.Println("No runs recorded yet.")
			return nil
		}
		return outputStoredRun(summary, jsonOutput)
	default:
		return listRuns(ctx, db)
	}
}

// listRuns prints a table of all recorded runs, newest first.
func listRuns(ctx context.Context, db *database.RunDB) error {
	runs, err := db.ListRuns(ctx)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		fmt.Println("\nUse 'certsnap run' to resolve identifiers and record a run.")
		return nil
	}

	fmt.Printf("Recorded runs (%d):\n\n", len(runs))
	fmt.Printf("  %-6s  %-20s  %-10s  %-12s  %-7s  %-6s  %s\n",
		"ID", "Date", "Elapsed", "Identifiers", "Failed", "Files", "Bytes")
	fmt.Println("  " + strings.Repeat("-", 78))

	for _, meta := range runs {
		fmt.Printf("  %-6d  %-20s  %-10s  %-12d  %-7d  %-6d  %d\n",
			meta.ID,
			meta.StartedAt.Format("2006-01-02 15:04:05"),
			meta.Elapsed.Round(time.Second),
			meta.IdentifierCount,
			meta.FailedCount,
			meta.StoredCount,
			meta.StoredBytes,
		)
	}

	fmt.Println("\nUse 'certsnap history --run-id <id>' to see the full results of a run.")
	return nil
}

// outputStoredRun displays a stored run summary.
func outputStoredRun(summary *model.RunSummary, jsonOutput bool) error {
	var w report.Writer
	if jsonOutput {
		w = report.NewJSONWriter(os.Stdout, report.WithPrettyPrint())
	} else {
		w = report.NewSimpleWriter(os.Stdout, report.WithVerbose(true))
	}

	_, err := w.Write(summary)
	return err
}
