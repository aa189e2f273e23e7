package application

import (
	"context"
	"sync"
	"time"
)

// resourceLocks serializes the check-availability-then-create critical
// section per resource. It is the in-process realization of the exclusion
// scope: a single-instance deployment gets correctness from these locks
// alone, a multi-instance deployment layers a storage-level constraint on
// top.
type resourceLocks struct {
	mu      sync.Mutex
	locks   map[string]chan struct{}
	timeout time.Duration
}

func newResourceLocks(timeout time.Duration) *resourceLocks {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &resourceLocks{
		locks:   make(map[string]chan struct{}),
		timeout: timeout,
	}
}

// gate returns the semaphore channel for a resource, creating it on first use.
func (l *resourceLocks) gate(resourceID string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	gate, ok := l.locks[resourceID]
	if !ok {
		gate = make(chan struct{}, 1)
		l.locks[resourceID] = gate
	}
	return gate
}

// Acquire takes the per-resource lock, waiting at most the configured
// timeout. On success the returned release function must be called exactly
// once. Contention past the timeout surfaces as ErrBusy so callers can retry
// with backoff instead of blocking indefinitely.
func (l *resourceLocks) Acquire(ctx context.Context, resourceID string) (func(), error) {
	gate := l.gate(resourceID)

	timer := time.NewTimer(l.timeout)
	defer timer.Stop()

	select {
	case gate <- struct{}{}:
		var once sync.Once
		release := func() {
			once.Do(func() { <-gate })
		}
		return release, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, ErrBusy
	}
}
