package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/webstitch/internal/model"
)

// createTestReport creates a report with sample data for testing.
func createTestReport() *model.StitchReport {
	report := model.NewStitchReport("http://book.test/page/1")
	report.StartedAt = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	report.Elapsed = 1230 * time.Millisecond
	report.Results = []model.ChapterResult{
		{
			Seq: 0,
			URL: "http://book.test/page/1",
			Chapter: &model.Chapter{
				URL:   "http://book.test/page/1",
				Title: "Chapter One",
				HTML:  "<p>It begins.</p>",
			},
		},
		{
			Seq: 1,
			URL: "http://book.test/page/2",
			Chapter: &model.Chapter{
				URL:  "http://book.test/page/2",
				HTML: "<p>It continues.</p>",
			},
		},
		{
			Seq: 2,
			URL: "http://book.test/page/3",
			Err: errors.New("fetch http://book.test/page/3: unexpected status 404"),
		},
	}
	return report
}

// TestHTMLWriter tests the stitched document writer.
func TestHTMLWriter(t *testing.T) {
	t.Parallel()

	t.Run("stitches chapters in order with separators", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewHTMLWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		first := strings.Index(output, "<p>It begins.</p>")
		second := strings.Index(output, "<p>It continues.</p>")
		if first < 0 || second < 0 {
			t.Fatalf("expected both fragments in output: %s", output)
		}
		if first > second {
			t.Error("expected fragments in sequence order")
		}
		if strings.Count(output, "<hr />") != 1 {
			t.Errorf("expected exactly one separator between two chapters: %s", output)
		}
	})

	t.Run("produces a standalone document", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewHTMLWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{"<!DOCTYPE html>", `<meta charset="UTF-8">`, "</html>"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("uses first chapter title as document title", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewHTMLWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "<title>Chapter One</title>") {
			t.Error("expected document title from first titled chapter")
		}
	})

	t.Run("does not escape chapter markup", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewHTMLWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if strings.Contains(buf.String(), "&lt;p&gt;") {
			t.Error("chapter fragments must be written verbatim, not escaped")
		}
	})

	t.Run("falls back to default title when chapters are untitled", func(t *testing.T) {
		t.Parallel()

		report := model.NewStitchReport("http://book.test/page/1")
		report.Results = []model.ChapterResult{
			{Seq: 0, URL: "http://book.test/page/1", Chapter: &model.Chapter{
				URL:  "http://book.test/page/1",
				HTML: "<p>untitled</p>",
			}},
		}

		var buf bytes.Buffer
		if _, err := NewHTMLWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "<title>"+defaultDocumentTitle+"</title>") {
			t.Error("expected fallback document title")
		}
	})
}

// TestSimpleWriter tests the human-readable summary writer.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes run header and totals", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"Webstitch Run Summary",
			"http://book.test/page/1",
			"Chapters:      2",
			"Failures:      1",
			"Status:        partial",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("lists failed pages with errors", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "http://book.test/page/3") {
			t.Error("expected failed URL in output")
		}
		if !strings.Contains(output, "unexpected status 404") {
			t.Error("expected failure reason in output")
		}
	})

	t.Run("verbose mode lists chapters", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithVerbose(true))

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "Chapter One") {
			t.Error("expected chapter title in verbose output")
		}
		if !strings.Contains(output, "(untitled)") {
			t.Error("expected placeholder for untitled chapter")
		}
	})

	t.Run("non-verbose mode omits chapter listing", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if strings.Contains(buf.String(), "Chapter One") {
			t.Error("chapter listing must require verbose mode")
		}
	})
}

// TestMarkdownWriter tests the Markdown summary writer.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes header table and sections", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"# Webstitch Run Summary",
			"## Chapters",
			"## Failed Pages",
			"`http://book.test/page/1`",
			"Chapter One",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("omits failure section for complete runs", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		report.Results = report.Results[:2]

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if strings.Contains(output, "## Failed Pages") {
			t.Error("expected no failure section for a complete run")
		}
		if !strings.Contains(output, "✅ Complete") {
			t.Error("expected complete status")
		}
	})
}

// TestJSONWriter tests the JSON summary writer.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("produces valid JSON with error strings", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded struct {
			StartURL string `json:"start_url"`
			Chapters int    `json:"chapters"`
			Failures int    `json:"failures"`
			Complete bool   `json:"complete"`
			Results  []struct {
				Seq   int    `json:"seq"`
				URL   string `json:"url"`
				Error string `json:"error"`
			} `json:"results"`
		}
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}

		if decoded.StartURL != "http://book.test/page/1" {
			t.Errorf("unexpected start URL: %s", decoded.StartURL)
		}
		if decoded.Chapters != 2 || decoded.Failures != 1 || decoded.Complete {
			t.Errorf("unexpected totals: %+v", decoded)
		}
		if len(decoded.Results) != 3 {
			t.Fatalf("expected 3 results, got %d", len(decoded.Results))
		}
		if decoded.Results[2].Error == "" {
			t.Error("expected failure result to carry an error message")
		}
	})

	t.Run("pretty print produces indented output", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithPrettyPrint())

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "\n  ") {
			t.Error("expected indented output with pretty print")
		}
	})
}

// TestMultiWriter tests composing multiple writers.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	var simpleBuf, jsonBuf bytes.Buffer
	mw := NewMultiWriter(NewSimpleWriter(&simpleBuf), NewJSONWriter(&jsonBuf))

	if _, err := mw.Write(createTestReport()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if simpleBuf.Len() == 0 {
		t.Error("expected simple writer output")
	}
	if jsonBuf.Len() == 0 {
		t.Error("expected JSON writer output")
	}
}
