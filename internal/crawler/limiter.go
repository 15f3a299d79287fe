package crawler

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Limiter bounds the number of in-flight fetch+extract operations across
// the whole crawl. Spawning a worker is cheap and unbounded; performing the
// network work is not, so workers must hold a Permit for the duration of
// their fetch+extract step.
//
// Design decision: We wrap semaphore.Weighted rather than using a buffered
// channel because:
//  1. Acquire respects context cancellation out of the box
//  2. Waiters are served in FIFO order, so no worker starves
//  3. It is the x/sync primitive built for exactly this shape of problem
type Limiter struct {
	sem *semaphore.Weighted
}

// NewLimiter creates a limiter admitting at most n concurrent holders.
// n must be at least 1; smaller values are treated as 1.
func NewLimiter(n int) *Limiter {
	if n < 1 {
		n = 1
	}
	return &Limiter{sem: semaphore.NewWeighted(int64(n))}
}

// Acquire blocks until an admission slot is free or ctx is cancelled.
// On success the returned Permit must be released exactly once; Release is
// idempotent so a deferred safety-net release alongside an explicit early
// release is safe.
func (l *Limiter) Acquire(ctx context.Context) (*Permit, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return &Permit{sem: l.sem}, nil
}

// Permit is an opaque admission token handed out by the Limiter.
// The zero value is invalid; permits are only created by Acquire.
type Permit struct {
	sem  *semaphore.Weighted
	once sync.Once
}

// Release returns the admission slot to the limiter. Calling Release more
// than once is a no-op after the first call.
func (p *Permit) Release() {
	p.once.Do(func() {
		p.sem.Release(1)
	})
}
