// Package report renders completed crawl runs.
//
// Two kinds of output exist: the stitched HTML document assembled from the
// successful chapter fragments in discovery order, and the run summary
// (plain, Markdown, or JSON) describing what was crawled and what failed.
package report
