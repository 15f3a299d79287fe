package report

import (
	"io"

	"github.com/nao1215/webstitch/internal/model"
)

// Writer defines the interface for run summary output.
// Implementations render a StitchReport in a specific format.
//
// Design decision: We use an interface to allow different formats and
// destinations (terminal, file) behind the same API, and to compose them
// with MultiWriter.
type Writer interface {
	// Write renders the report to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.StitchReport) (int, error)
}

// MultiWriter writes a report to multiple Writers in sequence.
// Useful for rendering to both terminal and file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write renders the report with every configured Writer.
// Returns the total bytes written; stops on the first error.
func (m *MultiWriter) Write(report *model.StitchReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides the shared output destination for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
