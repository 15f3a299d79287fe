package crawler

import "sync"

// VisitedSet tracks URLs already claimed by a worker during one crawl run.
// It is the sole deduplication authority: a URL can be claimed exactly once,
// which bounds the crawl on cyclic link chains and prevents two workers from
// processing the same page.
//
// Entries are never removed; visitation is monotonic for the lifetime of the
// run and the set is discarded with it.
//
// Design decision: We use a mutex-guarded map rather than sync.Map because:
//  1. Claim must be a single indivisible check-and-insert
//  2. The critical section is a map lookup plus insert, too short to contend
//  3. A plain map under a mutex is the simplest thing that is obviously correct
type VisitedSet struct {
	// mu protects urls.
	mu sync.Mutex

	// urls holds every claimed URL.
	urls map[string]struct{}
}

// NewVisitedSet creates an empty visited set for one crawl run.
func NewVisitedSet() *VisitedSet {
	return &VisitedSet{
		urls: make(map[string]struct{}),
	}
}

// Claim atomically records url as visited and reports whether this call was
// the first-ever claim for it. Concurrent claims for the same URL yield
// exactly one true; all others observe false.
func (v *VisitedSet) Claim(url string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.urls[url]; ok {
		return false
	}
	v.urls[url] = struct{}{}
	return true
}

// Len returns the number of claimed URLs.
func (v *VisitedSet) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.urls)
}
