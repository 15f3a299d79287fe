package crawler

import (
	"context"
	"sync"
	"testing"
	"time"
)

// TestLimiter tests the admission limiter contract.
func TestLimiter(t *testing.T) {
	t.Parallel()

	t.Run("never admits more than N concurrent holders", func(t *testing.T) {
		t.Parallel()

		const limit = 3
		const workers = 20

		l := NewLimiter(limit)

		var mu sync.Mutex
		inFlight := 0
		maxInFlight := 0

		var wg sync.WaitGroup
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()

				permit, err := l.Acquire(context.Background())
				if err != nil {
					t.Errorf("acquire failed: %v", err)
					return
				}
				defer permit.Release()

				mu.Lock()
				inFlight++
				if inFlight > maxInFlight {
					maxInFlight = inFlight
				}
				mu.Unlock()

				time.Sleep(2 * time.Millisecond)

				mu.Lock()
				inFlight--
				mu.Unlock()
			}()
		}
		wg.Wait()

		if maxInFlight > limit {
			t.Errorf("observed %d concurrent holders, limit is %d", maxInFlight, limit)
		}
		if maxInFlight == 0 {
			t.Error("no holder was ever admitted")
		}
	})

	t.Run("release is idempotent", func(t *testing.T) {
		t.Parallel()

		l := NewLimiter(1)

		permit, err := l.Acquire(context.Background())
		if err != nil {
			t.Fatalf("acquire failed: %v", err)
		}

		// A double release must not free a second slot.
		permit.Release()
		permit.Release()

		first, err := l.Acquire(context.Background())
		if err != nil {
			t.Fatalf("re-acquire failed: %v", err)
		}
		defer first.Release()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		if _, err := l.Acquire(ctx); err == nil {
			t.Error("second slot should not exist after a double release")
		}
	})

	t.Run("acquire respects context cancellation", func(t *testing.T) {
		t.Parallel()

		l := NewLimiter(1)

		held, err := l.Acquire(context.Background())
		if err != nil {
			t.Fatalf("acquire failed: %v", err)
		}
		defer held.Release()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		if _, err := l.Acquire(ctx); err == nil {
			t.Error("expected acquire to fail while the only slot is held")
		}
	})

	t.Run("treats non-positive limits as one", func(t *testing.T) {
		t.Parallel()

		l := NewLimiter(0)
		permit, err := l.Acquire(context.Background())
		if err != nil {
			t.Fatalf("acquire failed: %v", err)
		}
		permit.Release()
	})
}
