package model

// Chapter is the content fragment extracted from one crawled page.
//
// Design decision: We keep the fragment as raw HTML rather than plain text
// because:
//  1. The stitched output document preserves the source markup
//  2. Text-only rendering is a presentation concern for the writers
//  3. The extractor already operates on the parsed DOM, so inner HTML is free
type Chapter struct {
	// URL is the absolute URL of the page the fragment was extracted from.
	URL string `json:"url"`

	// Title is the page title from the <title> tag.
	// Empty if the page had no title element.
	Title string `json:"title,omitempty"`

	// HTML is the inner HTML of the first node matching the content selector.
	HTML string `json:"html"`
}

// ChapterResult is the outcome of one crawl worker: either an extracted
// chapter or the error that stopped that branch of the chain.
//
// Seq is assigned when the worker is spawned, not when it completes, so
// sorting results by Seq restores crawl-discovery order regardless of
// network completion order.
type ChapterResult struct {
	// Seq is the spawn-order sequence hint, starting at 0 for the root.
	Seq int `json:"seq"`

	// URL is the page the worker was responsible for.
	URL string `json:"url"`

	// Chapter holds the extracted fragment. Nil when Err is set.
	Chapter *Chapter `json:"chapter,omitempty"`

	// Err records the fetch or extract failure for this page.
	// Nil on success.
	Err error `json:"-"`
}

// OK reports whether the result carries a successfully extracted chapter.
func (r ChapterResult) OK() bool {
	return r.Err == nil && r.Chapter != nil
}
