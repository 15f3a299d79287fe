package crawler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/webstitch/internal/model"
)

// fakePage describes one page served by the fake collaborators.
type fakePage struct {
	// html is the fragment returned for the page.
	html string

	// next is the URL of the successor page. Empty ends the chain.
	next string

	// delay is how long the fetch takes.
	delay time.Duration

	// fetchErr, when set, makes the fetch fail.
	fetchErr error

	// extractErr, when set, makes extraction fail.
	extractErr error
}

// fakeSite implements both Fetcher and Extractor over an in-memory page map.
// It records every fetched URL and the maximum number of concurrent fetches.
type fakeSite struct {
	pages map[string]fakePage

	mu          sync.Mutex
	fetched     []string
	inFlight    int
	maxInFlight int
}

func newFakeSite(pages map[string]fakePage) *fakeSite {
	return &fakeSite{pages: pages}
}

// Fetch implements Fetcher.
func (s *fakeSite) Fetch(ctx context.Context, url string) ([]byte, error) {
	s.mu.Lock()
	s.inFlight++
	if s.inFlight > s.maxInFlight {
		s.maxInFlight = s.inFlight
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
	}()

	page, ok := s.pages[url]
	if !ok {
		return nil, fmt.Errorf("no such page: %s", url)
	}

	if page.delay > 0 {
		select {
		case <-time.After(page.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if page.fetchErr != nil {
		return nil, page.fetchErr
	}

	s.mu.Lock()
	s.fetched = append(s.fetched, url)
	s.mu.Unlock()

	return []byte(page.html), nil
}

// Extract implements Extractor.
func (s *fakeSite) Extract(pageURL string, body []byte) (*model.Chapter, string, error) {
	page, ok := s.pages[pageURL]
	if !ok {
		return nil, "", fmt.Errorf("no such page: %s", pageURL)
	}
	if page.extractErr != nil {
		return nil, "", page.extractErr
	}
	return &model.Chapter{URL: pageURL, HTML: string(body)}, page.next, nil
}

// fetchedURLs returns a copy of the fetched URL log.
func (s *fakeSite) fetchedURLs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.fetched...)
}

// chainPages builds a linear chain page/1 → page/2 → ... → page/n.
func chainPages(n int, delay time.Duration) map[string]fakePage {
	pages := make(map[string]fakePage, n)
	for i := 1; i <= n; i++ {
		page := fakePage{
			html:  fmt.Sprintf("<p>chapter %d</p>", i),
			delay: delay,
		}
		if i < n {
			page.next = fmt.Sprintf("http://book.test/page/%d", i+1)
		}
		pages[fmt.Sprintf("http://book.test/page/%d", i)] = page
	}
	return pages
}

// TestNewChain tests constructor validation.
func TestNewChain(t *testing.T) {
	t.Parallel()

	site := newFakeSite(nil)

	t.Run("rejects nil fetcher", func(t *testing.T) {
		t.Parallel()

		if _, err := NewChain(nil, site); !errors.Is(err, ErrNilFetcher) {
			t.Errorf("expected ErrNilFetcher, got %v", err)
		}
	})

	t.Run("rejects nil extractor", func(t *testing.T) {
		t.Parallel()

		if _, err := NewChain(site, nil); !errors.Is(err, ErrNilExtractor) {
			t.Errorf("expected ErrNilExtractor, got %v", err)
		}
	})

	t.Run("rejects empty start URL", func(t *testing.T) {
		t.Parallel()

		chain, err := NewChain(site, site)
		if err != nil {
			t.Fatalf("failed to create chain: %v", err)
		}
		if _, err := chain.Run(context.Background(), ""); !errors.Is(err, ErrEmptyStartURL) {
			t.Errorf("expected ErrEmptyStartURL, got %v", err)
		}
	})
}

// TestChainRun tests the crawl scenarios from the crawl core contract.
func TestChainRun(t *testing.T) {
	t.Parallel()

	t.Run("two page chain yields ordered successes", func(t *testing.T) {
		t.Parallel()

		site := newFakeSite(map[string]fakePage{
			"http://book.test/a": {html: "<p>fragment A</p>", next: "http://book.test/b"},
			"http://book.test/b": {html: "<p>fragment B</p>"},
		})

		chain, err := NewChain(site, site, WithConcurrency(3))
		if err != nil {
			t.Fatalf("failed to create chain: %v", err)
		}

		results, err := chain.Run(context.Background(), "http://book.test/a")
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}

		if len(results) != 2 {
			t.Fatalf("expected 2 results, got %d", len(results))
		}
		if results[0].Seq != 0 || results[1].Seq != 1 {
			t.Errorf("expected seqs 0 and 1, got %d and %d", results[0].Seq, results[1].Seq)
		}
		if !results[0].OK() || !results[1].OK() {
			t.Fatalf("expected both results to succeed: %+v", results)
		}
		if results[0].Chapter.HTML != "<p>fragment A</p>" {
			t.Errorf("expected fragment A first, got %q", results[0].Chapter.HTML)
		}
		if results[1].Chapter.HTML != "<p>fragment B</p>" {
			t.Errorf("expected fragment B second, got %q", results[1].Chapter.HTML)
		}
	})

	t.Run("output order equals spawn order despite varying completion times", func(t *testing.T) {
		t.Parallel()

		// Later pages complete faster than earlier ones; the sort by
		// sequence hint must still restore discovery order.
		pages := chainPages(6, 0)
		for i := 1; i <= 6; i++ {
			url := fmt.Sprintf("http://book.test/page/%d", i)
			page := pages[url]
			page.delay = time.Duration(7-i) * 5 * time.Millisecond
			pages[url] = page
		}
		site := newFakeSite(pages)

		chain, err := NewChain(site, site, WithConcurrency(3))
		if err != nil {
			t.Fatalf("failed to create chain: %v", err)
		}

		results, err := chain.Run(context.Background(), "http://book.test/page/1")
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}

		if len(results) != 6 {
			t.Fatalf("expected 6 results, got %d", len(results))
		}
		for i, res := range results {
			if res.Seq != i {
				t.Errorf("result %d: expected seq %d, got %d", i, i, res.Seq)
			}
			wantURL := fmt.Sprintf("http://book.test/page/%d", i+1)
			if res.URL != wantURL {
				t.Errorf("result %d: expected URL %s, got %s", i, wantURL, res.URL)
			}
		}
	})

	t.Run("cyclic chain terminates", func(t *testing.T) {
		t.Parallel()

		site := newFakeSite(map[string]fakePage{
			"http://book.test/a": {html: "a", next: "http://book.test/b"},
			"http://book.test/b": {html: "b", next: "http://book.test/c"},
			"http://book.test/c": {html: "c", next: "http://book.test/a"},
		})

		chain, err := NewChain(site, site)
		if err != nil {
			t.Fatalf("failed to create chain: %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		results, err := chain.Run(ctx, "http://book.test/a")
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}

		// The worker re-spawned for page a loses the claim and is dropped
		// without a result.
		if len(results) != 3 {
			t.Fatalf("expected 3 results, got %d", len(results))
		}
	})

	t.Run("every claimed URL produces exactly one result", func(t *testing.T) {
		t.Parallel()

		site := newFakeSite(chainPages(10, time.Millisecond))

		chain, err := NewChain(site, site, WithConcurrency(4))
		if err != nil {
			t.Fatalf("failed to create chain: %v", err)
		}

		results, err := chain.Run(context.Background(), "http://book.test/page/1")
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}

		seen := make(map[string]int)
		for _, res := range results {
			seen[res.URL]++
		}
		for url, count := range seen {
			if count != 1 {
				t.Errorf("URL %s produced %d results, expected 1", url, count)
			}
		}
		if len(seen) != 10 {
			t.Errorf("expected 10 distinct URLs, got %d", len(seen))
		}
	})

	t.Run("concurrency never exceeds configured limit", func(t *testing.T) {
		t.Parallel()

		site := newFakeSite(chainPages(20, 2*time.Millisecond))

		chain, err := NewChain(site, site, WithConcurrency(3))
		if err != nil {
			t.Fatalf("failed to create chain: %v", err)
		}

		if _, err := chain.Run(context.Background(), "http://book.test/page/1"); err != nil {
			t.Fatalf("run failed: %v", err)
		}

		site.mu.Lock()
		maxInFlight := site.maxInFlight
		site.mu.Unlock()

		if maxInFlight > 3 {
			t.Errorf("in-flight fetches reached %d, limit is 3", maxInFlight)
		}
	})

	t.Run("mid-chain fetch failure stops discovery past the failure", func(t *testing.T) {
		t.Parallel()

		pages := chainPages(5, 0)
		page3 := pages["http://book.test/page/3"]
		page3.fetchErr = errors.New("status 503")
		pages["http://book.test/page/3"] = page3
		site := newFakeSite(pages)

		chain, err := NewChain(site, site)
		if err != nil {
			t.Fatalf("failed to create chain: %v", err)
		}

		results, err := chain.Run(context.Background(), "http://book.test/page/1")
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}

		if len(results) != 3 {
			t.Fatalf("expected 3 results (2 successes, 1 failure), got %d", len(results))
		}
		if !results[0].OK() || !results[1].OK() {
			t.Errorf("expected pages 1-2 to succeed: %+v", results[:2])
		}
		if results[2].OK() {
			t.Error("expected page 3 to be reported as a failure")
		}

		// Pages 4-5 must never have been fetched: their next-links were
		// never discovered.
		for _, url := range site.fetchedURLs() {
			if url == "http://book.test/page/4" || url == "http://book.test/page/5" {
				t.Errorf("page past the failure was fetched: %s", url)
			}
		}
	})

	t.Run("extract failure is reported and ends the chain", func(t *testing.T) {
		t.Parallel()

		site := newFakeSite(map[string]fakePage{
			"http://book.test/a": {html: "a", next: "http://book.test/b"},
			"http://book.test/b": {html: "b", next: "http://book.test/c", extractErr: errors.New("selector not found")},
			"http://book.test/c": {html: "c"},
		})

		chain, err := NewChain(site, site)
		if err != nil {
			t.Fatalf("failed to create chain: %v", err)
		}

		results, err := chain.Run(context.Background(), "http://book.test/a")
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}

		if len(results) != 2 {
			t.Fatalf("expected 2 results, got %d", len(results))
		}
		if results[1].OK() {
			t.Error("expected extraction failure for page b")
		}
		if results[1].Err == nil || results[1].Chapter != nil {
			t.Errorf("failure result should carry an error and no chapter: %+v", results[1])
		}
	})

	t.Run("max chapters cap truncates the chain", func(t *testing.T) {
		t.Parallel()

		site := newFakeSite(chainPages(10, 0))

		chain, err := NewChain(site, site, WithMaxChapters(4))
		if err != nil {
			t.Fatalf("failed to create chain: %v", err)
		}

		results, err := chain.Run(context.Background(), "http://book.test/page/1")
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}

		if len(results) != 4 {
			t.Fatalf("expected 4 results with cap 4, got %d", len(results))
		}
	})
}

// TestVisitedSet tests the atomic claim-once contract.
func TestVisitedSet(t *testing.T) {
	t.Parallel()

	t.Run("first claim wins, later claims lose", func(t *testing.T) {
		t.Parallel()

		v := NewVisitedSet()
		if !v.Claim("http://book.test/a") {
			t.Error("first claim should succeed")
		}
		if v.Claim("http://book.test/a") {
			t.Error("second claim should fail")
		}
		if v.Len() != 1 {
			t.Errorf("expected 1 entry, got %d", v.Len())
		}
	})

	t.Run("concurrent claims yield exactly one winner", func(t *testing.T) {
		t.Parallel()

		v := NewVisitedSet()

		const claimers = 100
		var wg sync.WaitGroup
		wins := make(chan struct{}, claimers)

		for range claimers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if v.Claim("http://book.test/contested") {
					wins <- struct{}{}
				}
			}()
		}
		wg.Wait()
		close(wins)

		won := 0
		for range wins {
			won++
		}
		if won != 1 {
			t.Errorf("expected exactly 1 winning claim, got %d", won)
		}
	})
}
