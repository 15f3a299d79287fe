package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/webstitch/internal/model"
)

// documentHead is the prologue of the stitched document. The inline style
// keeps the single-file output readable without external assets.
const documentHead = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>%s</title>
<style>
body { font-family: sans-serif; line-height: 1.6; max-width: 800px; margin: 2rem auto; padding: 0 1rem; }
h1, h2, h3 { line-height: 1.2; }
hr { margin: 3rem 0; }
</style>
</head>
<body>
`

// documentFoot closes the stitched document.
const documentFoot = "</body>\n</html>\n"

// defaultDocumentTitle is used when no chapter carries a title.
const defaultDocumentTitle = "Stitched Document"

// HTMLWriter assembles the successful chapter fragments into one
// standalone HTML document, in sequence order, separated by horizontal
// rules. Failed pages are omitted here; they appear in the run summary.
type HTMLWriter struct {
	baseWriter
}

// NewHTMLWriter creates an HTMLWriter that outputs to the given writer.
func NewHTMLWriter(output io.Writer) *HTMLWriter {
	return &HTMLWriter{baseWriter: newBaseWriter(output)}
}

// Write renders the stitched document.
func (w *HTMLWriter) Write(report *model.StitchReport) (int, error) {
	chapters := report.Chapters()

	var b strings.Builder
	fmt.Fprintf(&b, documentHead, escapeTitle(documentTitle(chapters)))

	for i, chapter := range chapters {
		if i > 0 {
			b.WriteString("<hr />\n")
		}
		// Provenance comment so the source of each fragment survives
		// in the stitched file.
		fmt.Fprintf(&b, "<!-- %s -->\n", chapter.URL)
		b.WriteString(chapter.HTML)
		b.WriteString("\n")
	}

	b.WriteString(documentFoot)

	return io.WriteString(w.output, b.String())
}

// documentTitle derives the document title from the first titled chapter.
func documentTitle(chapters []*model.Chapter) string {
	for _, chapter := range chapters {
		if chapter.Title != "" {
			return chapter.Title
		}
	}
	return defaultDocumentTitle
}

// escapeTitle escapes the few characters that matter inside <title>.
func escapeTitle(title string) string {
	replacer := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return replacer.Replace(title)
}
