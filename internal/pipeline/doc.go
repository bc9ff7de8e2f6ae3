// Package pipeline orchestrates per-identifier processing.
//
// Each certificate identifier runs through an ordered list of steps:
// submit the lookup form, parse the detail page for media references,
// download and store the media. A step failure does not drop the
// identifier; the record is emitted with an empty reference list and the
// error attached, because every input identifier owes the output exactly
// one row.
//
// Design decision: We use a pipeline pattern instead of direct function calls
// because:
//  1. It allows easy addition/removal of steps without modifying core logic
//  2. It provides consistent error handling and logging across steps
//  3. It supports cancellation via context mid-run
//
// The BatchProcessor fans identifiers out over a bounded number of
// goroutines using errgroup while keeping results in input order.
package pipeline
