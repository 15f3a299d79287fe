// Package fetcher provides the HTTP page fetcher used by the chain crawler.
// It retrieves raw page bodies with configurable headers, body size limits,
// and transparent charset decoding to UTF-8.
package fetcher
