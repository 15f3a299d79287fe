// Package extract turns fetched page bodies into chapters.
// Extraction is driven by CSS selectors: one selector picks the content
// fragment, another picks the anchor carrying the next-page link. Relative
// next links are resolved against the page URL so the crawler only ever
// sees absolute URLs.
package extract
