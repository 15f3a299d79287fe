package extract

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/text/unicode/norm"

	"github.com/nao1215/webstitch/internal/model"
)

// Extraction errors.
var (
	// ErrSelectorNotFound is returned when the content selector matches
	// nothing on the page.
	ErrSelectorNotFound = errors.New("content selector matched no element")

	// ErrMalformedDocument is returned when the page body cannot be parsed
	// as HTML at all.
	ErrMalformedDocument = errors.New("malformed HTML document")

	// ErrEmptyContentSelector is returned by New when no content selector
	// is configured.
	ErrEmptyContentSelector = errors.New("content selector must not be empty")
)

// SelectorConfig describes how to locate the content fragment and the
// next-page link within a page.
type SelectorConfig struct {
	// Content selects the element whose inner HTML becomes the chapter
	// fragment. Only the first match is used.
	Content string

	// Next selects the element carrying the next-page link.
	// Empty disables chain following: every page ends the chain.
	Next string

	// NextAttr is the attribute holding the next-page URL.
	// Defaults to "href" when empty.
	NextAttr string
}

// Extractor extracts chapters from page bodies using CSS selectors.
// It implements crawler.Extractor and is safe for concurrent use: all
// fields are set at construction and never mutated.
type Extractor struct {
	content  string
	next     string
	nextAttr string
}

// New creates an Extractor for the given selector configuration.
// Selectors are compiled once here so an invalid selector fails fast with
// a clear error instead of surfacing on every page.
func New(cfg SelectorConfig) (*Extractor, error) {
	if cfg.Content == "" {
		return nil, ErrEmptyContentSelector
	}
	if _, err := cascadia.Compile(cfg.Content); err != nil {
		return nil, fmt.Errorf("invalid content selector %q: %w", cfg.Content, err)
	}
	if cfg.Next != "" {
		if _, err := cascadia.Compile(cfg.Next); err != nil {
			return nil, fmt.Errorf("invalid next selector %q: %w", cfg.Next, err)
		}
	}

	nextAttr := cfg.NextAttr
	if nextAttr == "" {
		nextAttr = "href"
	}

	return &Extractor{
		content:  cfg.Content,
		next:     cfg.Next,
		nextAttr: nextAttr,
	}, nil
}

// Extract parses body and returns the chapter fragment plus the absolute
// URL of the next page. An empty next URL means the chain ends here.
func (e *Extractor) Extract(pageURL string, body []byte) (*model.Chapter, string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	content := doc.Find(e.content).First()
	if content.Length() == 0 {
		return nil, "", fmt.Errorf("%w: %q", ErrSelectorNotFound, e.content)
	}

	fragment, err := content.Html()
	if err != nil {
		return nil, "", fmt.Errorf("render fragment: %w", err)
	}

	chapter := &model.Chapter{
		URL:   pageURL,
		Title: cleanTitle(doc.Find("title").First().Text()),
		HTML:  strings.TrimSpace(fragment),
	}

	return chapter, e.nextURL(doc, pageURL), nil
}

// nextURL locates the next-page link and resolves it against pageURL.
// Missing anchors, missing attributes, and unresolvable or non-HTTP links
// all end the chain rather than erroring: a page without a usable next
// link is simply the last page.
func (e *Extractor) nextURL(doc *goquery.Document, pageURL string) string {
	if e.next == "" {
		return ""
	}

	href, ok := doc.Find(e.next).First().Attr(e.nextAttr)
	if !ok || strings.TrimSpace(href) == "" {
		return ""
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}

	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}

	// A fragment-only link points back into the same page.
	resolved.Fragment = ""
	if resolved.String() == pageURL {
		return ""
	}

	return resolved.String()
}

// cleanTitle collapses whitespace and normalizes the title to NFC so
// visually identical titles compare equal across pages.
func cleanTitle(title string) string {
	return norm.NFC.String(strings.Join(strings.Fields(title), " "))
}
