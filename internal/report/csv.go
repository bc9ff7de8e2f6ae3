package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/certsnap/certsnap/internal/model"
)

// CSVWriter outputs the primary result table: one row per identifier with
// its media URLs spread across ref_N columns.
//
// The column count follows the widest record in the run, so every row has
// the same shape and spreadsheet tools load the file without complaints.
// Records with fewer references pad with empty cells. Rows keep input
// order, and identifiers whose lookup failed still get a row with only
// the identifier cell filled.
//
// Design decision: We use encoding/csv rather than a third-party table
// library because the output must round-trip through the same RFC 4180
// quoting rules the input reader applies, and the standard library is the
// reference implementation of exactly that.
type CSVWriter struct {
	baseWriter
}

// NewCSVWriter creates a CSVWriter that outputs to the given writer.
func NewCSVWriter(output io.Writer) *CSVWriter {
	return &CSVWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs all emitted records as CSV.
func (w *CSVWriter) Write(summary *model.RunSummary) (int, error) {
	records := summary.EmittedRecords()

	maxRefs := 0
	for _, r := range records {
		if len(r.References) > maxRefs {
			maxRefs = len(r.References)
		}
	}

	counting := &countingWriter{w: w.output}
	cw := csv.NewWriter(counting)

	header := make([]string, 0, maxRefs+1)
	header = append(header, "identifier")
	for i := 1; i <= maxRefs; i++ {
		header = append(header, "ref_"+strconv.Itoa(i))
	}
	if err := cw.Write(header); err != nil {
		return counting.n, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, r := range records {
		row := make([]string, maxRefs+1)
		row[0] = r.Identifier
		copy(row[1:], r.References)
		if err := cw.Write(row); err != nil {
			return counting.n, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return counting.n, fmt.Errorf("failed to flush CSV output: %w", err)
	}
	return counting.n, nil
}

// countingWriter counts bytes passing through to the underlying writer.
type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}
