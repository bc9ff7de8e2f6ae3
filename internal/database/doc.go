// Package database provides SQLite-based storage for certsnap run history.
//
// This package implements the RunDB, which stores:
//   - One row per run with aggregate counters and the full summary as JSON
//   - Normalized per-identifier records for direct SQL queries
//   - Per-file media rows including EXIF capture metadata
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for our use case
// 4. WAL mode provides good concurrent read performance
package database
