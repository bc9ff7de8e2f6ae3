package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"

	"github.com/certsnap/certsnap/internal/model"
)

// MarkdownWriter outputs the run summary in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
//  1. Type-safe markdown generation
//  2. Support for tables, lists, and code blocks
//  3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the run summary in Markdown format.
func (w *MarkdownWriter) Write(summary *model.RunSummary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeAlert(md, summary)
	w.writeRecords(md, summary)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the run overview table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *model.RunSummary) {
	md.H1("certsnap Run Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run Date", summary.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Elapsed", summary.Elapsed.Round(1e9).String()},
			{"Landing Page", "`" + summary.LandingURL + "`"},
			{"Routing", summary.ProxyMode},
			{"Identifiers", strconv.Itoa(summary.TotalIdentifiers())},
			{"Failed Lookups", strconv.Itoa(summary.FailedCount())},
			{"Media References", strconv.Itoa(summary.ReferenceCount())},
			{"Files Stored", strconv.Itoa(summary.StoredCount())},
			{"Bytes Stored", strconv.FormatInt(summary.StoredBytes(), 10)},
		},
	})
	md.PlainText("")
}

// writeAlert writes an alert reflecting how the run went.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, summary *model.RunSummary) {
	emitted := len(summary.EmittedRecords())
	failed := summary.FailedCount()

	switch {
	case emitted < summary.TotalIdentifiers():
		md.Cautionf(
			"Run was interrupted: %d of %d identifiers were not processed.",
			summary.TotalIdentifiers()-emitted, summary.TotalIdentifiers(),
		)
	case failed > 0:
		md.Warningf(
			"%d identifier(s) failed to resolve and were emitted with empty reference lists.",
			failed,
		)
	default:
		md.Tip("All identifiers resolved successfully.")
	}
	md.PlainText("")
}

// writeRecords writes the per-identifier result table.
func (w *MarkdownWriter) writeRecords(md *markdown.Markdown, summary *model.RunSummary) {
	md.H2("Identifiers")
	md.PlainText("")

	records := summary.EmittedRecords()
	if len(records) == 0 {
		md.PlainText("No identifiers were processed.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(records))
	for i, r := range records {
		errText := r.ErrorMessage
		if errText == "" {
			errText = "-"
		}
		rows[i] = []string{
			"`" + r.Identifier + "`",
			strconv.Itoa(len(r.References)),
			strconv.Itoa(len(r.Stored)),
			truncateString(errText, 60),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Identifier", "References", "Stored", "Error"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [certsnap](https://github.com/certsnap/certsnap)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
