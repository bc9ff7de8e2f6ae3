// Package report writes run results to their output sinks.
//
// The CSV writer is the primary sink: one row per input identifier, in
// input order, with the discovered media URLs spread across ref_N columns.
// The JSON and Markdown writers serve tool integration and human-readable
// run summaries respectively, and the simple writer prints a terse
// end-of-run summary to the terminal.
package report
