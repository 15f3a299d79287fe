// Package model defines the core data structures shared across webstitch:
// chapters extracted from crawled pages, per-worker crawl results, and the
// run summary used by the report writers and the archive database.
package model
