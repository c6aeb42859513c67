// Package governor implements the process-wide concurrency governor and
// cost meter described in spec §4.6: a semaphore bounding concurrent LLM
// and search calls, plus a per-mission cost accumulator fed by every call
// that passes through it.
package governor

import (
	"context"

	"golang.org/x/sync/semaphore"

	"github.com/murtaza-nasir/maestro/internal/maestro"
)

// MinConcurrentRequests is the enforced floor on max_concurrent_requests:
// below this, agent types that await each other's output can deadlock.
const MinConcurrentRequests = 10

// Governor bounds concurrent outbound LLM/search calls process-wide and
// meters their cost per mission. It generalizes the teacher's
// pkg/sync.Limiter (a plain channel semaphore, one unit per holder) to
// weighted acquisition: an embedding batch call may legitimately hold more
// than one unit, proportional to its batch size, while a single chat call
// holds one. It is constructed once per process and threaded into every
// agent and retriever rather than referenced as a global, so tests can
// substitute a small capacity or a fake meter.
type Governor struct {
	sem      *semaphore.Weighted
	capacity int64
	meter    *CostMeter
}

// New creates a Governor with the given capacity, clamped up to
// MinConcurrentRequests.
func New(capacity int) *Governor {
	if capacity < MinConcurrentRequests {
		capacity = MinConcurrentRequests
	}
	c := int64(capacity)
	return &Governor{
		sem:      semaphore.NewWeighted(c),
		capacity: c,
		meter:    NewCostMeter(),
	}
}

// Acquire blocks until weight permits are available or ctx is cancelled.
// Callers must call Release(weight) exactly once per successful Acquire.
// weight is clamped to the governor's total capacity so a single
// oversized embedding batch cannot deadlock every other caller forever —
// it instead acquires the entire governor exclusively.
//
// Every outbound LLM and search call is a suspension point per §5 and must
// route through this method so cancellation releases the permit
// immediately.
func (g *Governor) Acquire(ctx context.Context, weight int64) error {
	if weight > g.capacity {
		weight = g.capacity
	}
	if weight < 1 {
		weight = 1
	}
	if err := g.sem.Acquire(ctx, weight); err != nil {
		return maestro.NewError(maestro.ErrCancelled, "governor acquire", err)
	}
	return nil
}

// Release returns weight permits acquired via Acquire.
func (g *Governor) Release(weight int64) {
	if weight < 1 {
		weight = 1
	}
	if weight > g.capacity {
		weight = g.capacity
	}
	g.sem.Release(weight)
}

// Capacity reports max_concurrent_requests as configured (post-clamp).
func (g *Governor) Capacity() int64 {
	return g.capacity
}

// Meter returns the governor's cost meter.
func (g *Governor) Meter() *CostMeter {
	return g.meter
}

// Call acquires weight permits, invokes fn, and releases before returning
// — the entry point agents and the retriever should use rather than
// calling Acquire/Release directly, so a panic inside fn can never leak a
// permit.
func (g *Governor) Call(ctx context.Context, weight int64, fn func(ctx context.Context) error) error {
	if err := g.Acquire(ctx, weight); err != nil {
		return err
	}
	defer g.Release(weight)
	return fn(ctx)
}
