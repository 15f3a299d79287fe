package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/webstitch/internal/model"
)

// JSONWriter outputs run summaries in JSON format.
// This format is designed for tool integration and programmatic processing.
//
// Design decision: We use standard encoding/json rather than a third-party
// JSON library because:
// 1. It's part of the standard library (no extra dependencies)
// 2. It's sufficient for our needs
// 3. It provides consistent behavior across Go versions
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = ""
		w.indentString = "  "
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter:   newBaseWriter(output),
		indent:       false,
		indentPrefix: "",
		indentString: "",
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// jsonReport is the serializable view of a run summary.
//
// Design decision: We marshal a dedicated view rather than StitchReport
// directly because ChapterResult carries an error value, which does not
// survive JSON encoding. The view flattens it to a message string.
type jsonReport struct {
	StartURL  string       `json:"start_url"`
	StartedAt string       `json:"started_at"`
	ElapsedMS int64        `json:"elapsed_ms"`
	Chapters  int          `json:"chapters"`
	Failures  int          `json:"failures"`
	Complete  bool         `json:"complete"`
	Results   []jsonResult `json:"results"`
}

// jsonResult is the serializable view of one chapter result.
type jsonResult struct {
	Seq     int            `json:"seq"`
	URL     string         `json:"url"`
	Chapter *model.Chapter `json:"chapter,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// Write outputs the run summary in JSON format.
func (w *JSONWriter) Write(report *model.StitchReport) (int, error) {
	view := jsonReport{
		StartURL:  report.StartURL,
		StartedAt: report.StartedAt.Format("2006-01-02T15:04:05Z07:00"),
		ElapsedMS: report.Elapsed.Milliseconds(),
		Chapters:  report.SuccessCount(),
		Failures:  report.FailureCount(),
		Complete:  report.Complete(),
		Results:   make([]jsonResult, 0, len(report.Results)),
	}

	for _, res := range report.Results {
		jr := jsonResult{
			Seq:     res.Seq,
			URL:     res.URL,
			Chapter: res.Chapter,
		}
		if res.Err != nil {
			jr.Error = res.Err.Error()
		}
		view.Results = append(view.Results, jr)
	}

	return w.writeJSON(view)
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v interface{}) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}
