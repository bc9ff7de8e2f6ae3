package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/certsnap/certsnap/internal/model"
)

// SimpleWriter outputs a human-readable end-of-run summary.
// This format is designed for terminal display.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
//  1. It works in all terminals without compatibility issues
//  2. It's easier to pipe to files or other tools
//  3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// verbose enables the per-identifier listing in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables the per-identifier listing.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the run summary in human-readable format.
func (w *SimpleWriter) Write(summary *model.RunSummary) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, summary)
	w.writeCounts(&sb, summary)
	if w.verbose {
		w.writeRecords(&sb, summary)
	}

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the run header.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, summary *model.RunSummary) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         CERTSNAP RUN SUMMARY\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Run Date:     %s\n", summary.StartedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Landing Page: %s\n", summary.LandingURL))
	sb.WriteString(fmt.Sprintf("Routing:      %s\n", summary.ProxyMode))
	sb.WriteString("\n")
}

// writeCounts writes the aggregate counters.
func (w *SimpleWriter) writeCounts(sb *strings.Builder, summary *model.RunSummary) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")

	emitted := len(summary.EmittedRecords())
	sb.WriteString(fmt.Sprintf("  IDENTIFIERS: %d\n", summary.TotalIdentifiers()))
	sb.WriteString(fmt.Sprintf("  PROCESSED:   %d\n", emitted))
	sb.WriteString(fmt.Sprintf("  FAILED:      %d\n", summary.FailedCount()))
	sb.WriteString(fmt.Sprintf("  REFERENCES:  %d\n", summary.ReferenceCount()))
	sb.WriteString(fmt.Sprintf("  FILES:       %d (%d bytes)\n", summary.StoredCount(), summary.StoredBytes()))
	sb.WriteString("\n")
}

// writeRecords writes the per-identifier listing.
func (w *SimpleWriter) writeRecords(sb *strings.Builder, summary *model.RunSummary) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")

	for _, r := range summary.EmittedRecords() {
		marker := "+"
		if r.Err != nil || r.ErrorMessage != "" {
			marker = "!"
		}
		sb.WriteString(fmt.Sprintf("  [%s] %s: %d reference(s), %d stored\n",
			marker, r.Identifier, len(r.References), len(r.Stored)))
		if r.ErrorMessage != "" {
			sb.WriteString(fmt.Sprintf("      error: %s\n", r.ErrorMessage))
		}
	}
	sb.WriteString("\n")
}
