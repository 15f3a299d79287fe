// Package database provides SQLite-based storage for webstitch run archives.
//
// This package implements the StitchDB, which stores:
//   - Completed crawl runs with timing and totals
//   - The per-chapter results of each run, including failures
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for our use case
// 4. WAL mode provides good concurrent read performance
//
// The archive records finished runs only. In-progress crawl state lives in
// memory and is never persisted; an interrupted run leaves no rows behind.
package database
