package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/nao1215/webstitch/internal/model"
)

// resultBuffer is the capacity of the result channel. The coordinator
// drains concurrently with the crawl, so the buffer only smooths bursts;
// it does not bound the run.
const resultBuffer = 64

// Fetcher retrieves the raw body of a single page.
// Implementations must be safe for concurrent use.
type Fetcher interface {
	// Fetch returns the raw page body for url, or an error describing the
	// network or HTTP failure.
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Extractor pulls a content fragment and an optional next-link URL out of a
// fetched page body. Implementations must be safe for concurrent use.
type Extractor interface {
	// Extract parses body and returns the extracted chapter plus the
	// absolute URL of the next page in the chain. An empty next URL ends
	// the chain.
	Extract(pageURL string, body []byte) (*model.Chapter, string, error)
}

// Sentinel errors returned by NewChain and Run.
var (
	// ErrNilFetcher is returned when NewChain is called without a fetcher.
	ErrNilFetcher = errors.New("crawler: fetcher must not be nil")

	// ErrNilExtractor is returned when NewChain is called without an extractor.
	ErrNilExtractor = errors.New("crawler: extractor must not be nil")

	// ErrEmptyStartURL is returned when Run is called with an empty start URL.
	ErrEmptyStartURL = errors.New("crawler: start URL must not be empty")
)

// Chain crawls a linked chain of pages concurrently and collects one
// ChapterResult per claimed page.
//
// Design decision: We call it "Chain" rather than "Crawler" because:
//  1. It names the structure being crawled, a chain of next-links
//  2. It avoids the stutter of crawler.Crawler
//  3. It distinguishes this single-successor crawl from tree crawlers
type Chain struct {
	// fetcher retrieves raw page bodies.
	fetcher Fetcher

	// extractor turns page bodies into chapters and next links.
	extractor Extractor

	// concurrency caps in-flight fetch+extract operations.
	concurrency int

	// maxChapters caps the number of workers spawned per run.
	// 0 means unlimited; the visited set still guarantees termination.
	maxChapters int

	// logger is used for structured logging during the crawl.
	logger *slog.Logger
}

// Option configures a Chain.
type Option func(*Chain)

// WithConcurrency sets the maximum number of concurrent fetch+extract
// operations. Values below 1 are treated as 1.
func WithConcurrency(n int) Option {
	return func(c *Chain) {
		c.concurrency = n
	}
}

// WithMaxChapters caps how many pages one run may process. Once the cap is
// reached no further successors are spawned. 0 means unlimited.
func WithMaxChapters(n int) Option {
	return func(c *Chain) {
		c.maxChapters = n
	}
}

// WithLogger sets a custom logger for the crawl.
// If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Chain) {
		c.logger = logger
	}
}

// NewChain creates a chain crawler over the given collaborators.
func NewChain(fetcher Fetcher, extractor Extractor, opts ...Option) (*Chain, error) {
	if fetcher == nil {
		return nil, ErrNilFetcher
	}
	if extractor == nil {
		return nil, ErrNilExtractor
	}

	c := &Chain{
		fetcher:     fetcher,
		extractor:   extractor,
		concurrency: 8,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// run bundles the state shared by every worker of one crawl run: the
// visited set, the admission limiter, the result sink, and the counters.
// It is created by Run and discarded when the run completes.
type run struct {
	visited *VisitedSet
	limiter *Limiter
	results chan model.ChapterResult

	// wg counts outstanding workers. The result channel closes exactly
	// when it reaches zero, which is how the coordinator detects that no
	// worker remains.
	wg sync.WaitGroup

	// seq hands out spawn-order sequence hints.
	seq atomic.Int64
}

// Run crawls the chain starting at startURL and returns every reported
// ChapterResult sorted by spawn order. Successes and failures are both
// present; a failed page simply ends its branch of the chain.
//
// Run always terminates: the visited set drops cyclic links and every
// worker reports at most once. If ctx is cancelled mid-run, workers still
// waiting for admission report the cancellation as their failure and the
// partial results collected so far are returned alongside ctx.Err().
func (c *Chain) Run(ctx context.Context, startURL string) ([]model.ChapterResult, error) {
	if startURL == "" {
		return nil, ErrEmptyStartURL
	}

	r := &run{
		visited: NewVisitedSet(),
		limiter: NewLimiter(c.concurrency),
		results: make(chan model.ChapterResult, resultBuffer),
	}

	c.logger.Info("starting crawl",
		"startURL", startURL,
		"concurrency", c.concurrency,
		"maxChapters", c.maxChapters,
	)

	// Ignition: the root worker. Every later worker is spawned by its
	// predecessor.
	r.spawn(ctx, c, startURL)

	// Close the sink once the last worker is done. This is structural
	// termination detection; no worker ever observes a closed channel
	// because wg only reaches zero after every send has happened.
	go func() {
		r.wg.Wait()
		close(r.results)
	}()

	collected := make([]model.ChapterResult, 0)
	for res := range r.results {
		collected = append(collected, res)
	}

	// Completion order is nondeterministic; spawn order is not.
	sort.Slice(collected, func(i, j int) bool {
		return collected[i].Seq < collected[j].Seq
	})

	c.logger.Info("crawl finished",
		"results", len(collected),
		"claimed", r.visited.Len(),
	)

	return collected, ctx.Err()
}

// spawn starts a worker for url with a freshly assigned sequence hint.
// It reports false when the chapter cap prevented the spawn.
func (r *run) spawn(ctx context.Context, c *Chain, url string) bool {
	seq := int(r.seq.Add(1)) - 1
	if c.maxChapters > 0 && seq >= c.maxChapters {
		return false
	}

	r.wg.Add(1)
	go r.work(ctx, c, url, seq)
	return true
}

// work processes exactly one URL end-to-end:
// acquire permit → claim URL → fetch → extract → report → spawn successor.
//
// Invariants kept on every path out of this function:
//   - the permit, once acquired, is released (deferred idempotent release)
//   - at most one result is sent
//   - wg is decremented exactly once
func (r *run) work(ctx context.Context, c *Chain, pageURL string, seq int) {
	defer r.wg.Done()

	permit, err := r.limiter.Acquire(ctx)
	if err != nil {
		// Cancelled while waiting for admission.
		r.results <- model.ChapterResult{Seq: seq, URL: pageURL, Err: err}
		return
	}
	defer permit.Release()

	// Claim after permit acquisition: if another worker claimed this URL
	// while we waited, the page is already owned and this discovery is
	// dropped without a result.
	if !r.visited.Claim(pageURL) {
		c.logger.Debug("duplicate claim dropped", "url", pageURL, "seq", seq)
		return
	}

	c.logger.Debug("fetching page", "url", pageURL, "seq", seq)

	body, err := c.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		r.results <- model.ChapterResult{
			Seq: seq,
			URL: pageURL,
			Err: fmt.Errorf("fetch %s: %w", pageURL, err),
		}
		return
	}

	chapter, nextURL, err := c.extractor.Extract(pageURL, body)
	if err != nil {
		r.results <- model.ChapterResult{
			Seq: seq,
			URL: pageURL,
			Err: fmt.Errorf("extract %s: %w", pageURL, err),
		}
		return
	}

	// The admission slot covers only fetch+extract; free it before
	// reporting so a slow consumer cannot hold up admission.
	permit.Release()

	r.results <- model.ChapterResult{Seq: seq, URL: pageURL, Chapter: chapter}

	if nextURL != "" {
		if !r.spawn(ctx, c, nextURL) {
			c.logger.Warn("chapter cap reached, chain truncated",
				"nextURL", nextURL,
				"maxChapters", c.maxChapters,
			)
		}
	}
}
