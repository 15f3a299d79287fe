package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/webstitch/internal/model"
)

// timeRounding is the precision used when displaying elapsed time.
const timeRounding = 10 * time.Millisecond

// SimpleWriter outputs a human-readable run summary.
// This format is designed for terminal display after a crawl finishes.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// verbose enables the per-chapter listing in addition to the totals.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables the per-chapter listing.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the run summary in human-readable format.
func (w *SimpleWriter) Write(report *model.StitchReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeTotals(&sb, report)
	if w.verbose {
		w.writeChapters(&sb, report)
	}
	w.writeFailures(&sb, report)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the run header with start URL and timing.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.StitchReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Webstitch Run Summary\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")
	fmt.Fprintf(sb, "Start URL:  %s\n", report.StartURL)
	fmt.Fprintf(sb, "Started:    %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Elapsed:    %s\n", report.Elapsed.Round(timeRounding))
	sb.WriteString("\n")
}

// writeTotals writes the success/failure counts.
func (w *SimpleWriter) writeTotals(sb *strings.Builder, report *model.StitchReport) {
	fmt.Fprintf(sb, "Pages crawled: %d\n", len(report.Results))
	fmt.Fprintf(sb, "Chapters:      %d\n", report.SuccessCount())
	fmt.Fprintf(sb, "Failures:      %d\n", report.FailureCount())
	if report.Complete() {
		sb.WriteString("Status:        complete\n")
	} else {
		sb.WriteString("Status:        partial\n")
	}
	sb.WriteString("\n")
}

// writeChapters writes the per-chapter listing in sequence order.
func (w *SimpleWriter) writeChapters(sb *strings.Builder, report *model.StitchReport) {
	chapters := report.Chapters()
	if len(chapters) == 0 {
		return
	}

	sb.WriteString("Chapters:\n")
	for i, chapter := range chapters {
		title := chapter.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Fprintf(sb, "  %3d. %s\n       %s\n", i+1, title, chapter.URL)
	}
	sb.WriteString("\n")
}

// writeFailures writes the failed pages with their errors.
func (w *SimpleWriter) writeFailures(sb *strings.Builder, report *model.StitchReport) {
	failures := report.Failures()
	if len(failures) == 0 {
		return
	}

	sb.WriteString("Failed pages:\n")
	for _, failure := range failures {
		fmt.Fprintf(sb, "  [seq %d] %s\n       %v\n", failure.Seq, failure.URL, failure.Err)
	}
	sb.WriteString("\n")
}
