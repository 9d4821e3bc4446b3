package chat

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"reverie/internal/logging"
)

// Runner executes background pipeline work detached from the request that
// triggered it. Two guarantees:
//
//   - Work is tracked: Close drains in-flight runs, so process teardown
//     never silently drops an analysis.
//   - At most one run per user is active in this process: concurrent
//     triggers for the same user coalesce through singleflight.
type Runner struct {
	wg     sync.WaitGroup
	group  singleflight.Group
	mu     sync.Mutex
	closed bool
}

// NewRunner creates an idle runner.
func NewRunner() *Runner {
	return &Runner{}
}

// Go schedules fn on a background goroutine, keyed by user. If a run for
// the same key is already in flight the new trigger shares its result
// instead of starting a second run. After Close, Go is a no-op.
func (r *Runner) Go(key string, fn func() error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		logging.Chat("Runner closed, dropping background work for %s", key)
		return
	}
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		_, err, shared := r.group.Do(key, func() (interface{}, error) {
			return nil, fn()
		})
		if shared {
			logging.Chat("Background run for %s coalesced with an in-flight run", key)
		}
		if err != nil {
			// Background failures are terminal for this run only. They
			// never reach the chat caller and never crash the process.
			logging.Get(logging.CategoryChat).Warn("Background run for %s failed: %v", key, err)
		}
	}()
}

// Close stops accepting new work and waits for in-flight runs to finish,
// or until ctx expires.
func (r *Runner) Close(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
