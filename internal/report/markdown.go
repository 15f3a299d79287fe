package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/webstitch/internal/model"
)

// MarkdownWriter outputs run summaries in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
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
func (w *MarkdownWriter) Write(report *model.StitchReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeChapters(md, report)
	w.writeFailures(md, report)

	return len(md.String()), md.Build()
}

// writeHeader writes the run header with overall crawl information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.StitchReport) {
	md.H1("Webstitch Run Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Start URL", "`" + report.StartURL + "`"},
			{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Elapsed", report.Elapsed.Round(timeRounding).String()},
			{"Pages Crawled", strconv.Itoa(len(report.Results))},
			{"Chapters", strconv.Itoa(report.SuccessCount())},
			{"Failures", strconv.Itoa(report.FailureCount())},
			{"Status", w.statusText(report)},
		},
	})
	md.PlainText("")
}

// statusText returns the status cell based on run state.
func (w *MarkdownWriter) statusText(report *model.StitchReport) string {
	if report.Complete() {
		return "✅ Complete"
	}
	return "⚠️ Partial (some pages failed)"
}

// writeChapters writes the chapter table in sequence order.
func (w *MarkdownWriter) writeChapters(md *markdown.Markdown, report *model.StitchReport) {
	chapters := report.Chapters()
	if len(chapters) == 0 {
		return
	}

	md.H2("Chapters")
	md.PlainText("")

	rows := make([][]string, 0, len(chapters))
	for i, chapter := range chapters {
		title := chapter.Title
		if title == "" {
			title = "(untitled)"
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			title,
			"`" + chapter.URL + "`",
		})
	}

	md.Table(markdown.TableSet{
		Header: []string{"#", "Title", "URL"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFailures writes the failed pages section, if any.
func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, report *model.StitchReport) {
	failures := report.Failures()
	if len(failures) == 0 {
		return
	}

	md.H2("Failed Pages")
	md.PlainText("")

	rows := make([][]string, 0, len(failures))
	for _, failure := range failures {
		rows = append(rows, []string{
			strconv.Itoa(failure.Seq),
			"`" + failure.URL + "`",
			fmt.Sprintf("%v", failure.Err),
		})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Seq", "URL", "Error"},
		Rows:   rows,
	})
	md.PlainText("")
}
