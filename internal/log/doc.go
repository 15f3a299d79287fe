// Package log provides structured logging helpers for webstitch.
// Site configurations may carry authentication cookies and headers, so the
// logger wraps its handler in a sanitizer that redacts sensitive attribute
// values before they reach the output.
package log
