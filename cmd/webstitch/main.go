// Package main provides the entry point for the webstitch CLI.
//
// Webstitch follows a chain of "next" links across web pages, extracts a
// content fragment from each page with a CSS selector, and stitches the
// fragments into a single HTML document.
//
// Usage:
//
//	webstitch stitch <start-url>
//	webstitch stitch -s "article" -n "a.next" <start-url>
//
// See --help for all available options.
package main

// main is the entry point for webstitch.
func main() {
	Execute()
}
