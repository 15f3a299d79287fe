// Package crawler implements the concurrent chain crawl at the core of
// webstitch.
//
// A crawl starts from a single URL. Each worker processes exactly one page:
// it acquires an admission permit, claims the URL in the shared visited set,
// fetches and extracts the page, reports a ChapterResult, and spawns at most
// one successor worker for the discovered "next" link. The coordinator
// collects results from all workers over a channel and restores
// crawl-discovery order via spawn-time sequence hints.
//
// Three pieces of state are shared across workers, each internally
// synchronized: the visited set (atomic claim-once deduplication), the
// admission limiter (at most N in-flight fetch+extract operations), and the
// result channel (multi-producer, single-consumer fan-in). Everything else a
// worker touches is exclusively its own.
package crawler
