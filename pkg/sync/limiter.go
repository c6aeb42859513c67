package sync

import "context"

// Limiter is a counting semaphore restricting the number of concurrent
// operations to a configurable maximum, with context-aware acquisition so
// callers can honor cancellation while waiting for a slot.
//
// A slot is acquired before running and released immediately on
// cancellation. The concurrency governor (internal/governor) does not use
// Limiter; it is built on golang.org/x/sync/semaphore.
type Limiter struct {
	semaphore chan struct{}
}

// NewLimiter creates a Limiter allowing at most max concurrent holders.
// Panics if max <= 0.
func NewLimiter(max int) *Limiter {
	if max <= 0 {
		panic("max must be > 0")
	}
	return &Limiter{
		semaphore: make(chan struct{}, max),
	}
}

// Acquire blocks until a slot is available.
func (l *Limiter) Acquire() {
	l.semaphore <- struct{}{}
}

// AcquireContext blocks until a slot is available or ctx is done, whichever
// comes first. Returns ctx.Err() on cancellation without consuming a slot.
func (l *Limiter) AcquireContext(ctx context.Context) error {
	select {
	case l.semaphore <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryAcquire attempts to acquire a slot without blocking, reporting whether
// it succeeded.
func (l *Limiter) TryAcquire() bool {
	select {
	case l.semaphore <- struct{}{}:
		return true
	default:
		return false
	}
}

// Release returns a slot to the limiter. Must be called exactly once per
// successful Acquire/AcquireContext/TryAcquire.
func (l *Limiter) Release() {
	<-l.semaphore
}

// InUse reports the number of slots currently held, for stats/observability.
func (l *Limiter) InUse() int {
	return len(l.semaphore)
}

// Capacity reports the maximum number of concurrent holders.
func (l *Limiter) Capacity() int {
	return cap(l.semaphore)
}
