// Package embedworker runs embedding batches on a single-tenant worker, as
// required by §5: the embedding model instance is dedicated to one worker
// thread (GPU when available), so batches are serialized through a bounded
// input queue rather than fanned out across goroutines.
package embedworker

import (
	"context"

	"github.com/panjf2000/ants/v2"

	"github.com/murtaza-nasir/maestro/internal/maestro"
	xsync "github.com/murtaza-nasir/maestro/pkg/sync"
)

// DefaultQueueDepth is the default bound on queued-but-not-yet-running
// batches, per §5's back-pressure rule: producers block on put rather than
// queuing unboundedly.
const DefaultQueueDepth = 256

// BatchFunc executes one embedding batch and returns its result or an
// error. Implementations are supplied by internal/embedding adapters.
type BatchFunc func(ctx context.Context) (any, error)

// job couples a batch with the channel its caller is waiting on.
type job struct {
	ctx    context.Context
	fn     BatchFunc
	result chan<- jobResult
}

type jobResult struct {
	value any
	err   error
}

// Worker is a single-tenant embedding worker: exactly one batch executes
// at a time, queued requests beyond the configured queue depth block the
// caller.
type Worker struct {
	pool  *ants.Pool
	queue chan job
}

// New creates a Worker with the given bounded queue depth (DefaultQueueDepth
// if depth <= 0) backed by a size-1 ants.Pool, and starts its dispatch
// loop. Call Close to release the pool and stop the loop.
func New(depth int) (*Worker, error) {
	if depth <= 0 {
		depth = DefaultQueueDepth
	}
	pool, err := ants.NewPool(1)
	if err != nil {
		return nil, err
	}
	w := &Worker{
		pool:  pool,
		queue: make(chan job, depth),
	}
	xsync.Go(func() {
		w.dispatch()
	})
	return w, nil
}

func (w *Worker) dispatch() {
	for j := range w.queue {
		j := j
		_ = w.pool.Submit(func() {
			select {
			case <-j.ctx.Done():
				j.result <- jobResult{err: maestro.NewError(maestro.ErrCancelled, "embedworker", j.ctx.Err())}
				return
			default:
			}
			v, err := j.fn(j.ctx)
			j.result <- jobResult{value: v, err: err}
		})
	}
}

// Submit enqueues fn and blocks until either it runs to completion, ctx is
// cancelled while waiting in queue, or ctx is cancelled while fn is
// running (fn itself is responsible for observing ctx internally).
func (w *Worker) Submit(ctx context.Context, fn BatchFunc) (any, error) {
	result := make(chan jobResult, 1)
	select {
	case w.queue <- job{ctx: ctx, fn: fn, result: result}:
	case <-ctx.Done():
		return nil, maestro.NewError(maestro.ErrCancelled, "embedworker enqueue", ctx.Err())
	}

	select {
	case r := <-result:
		return r.value, r.err
	case <-ctx.Done():
		return nil, maestro.NewError(maestro.ErrCancelled, "embedworker wait", ctx.Err())
	}
}

// Close stops accepting new work and releases the underlying pool. Close
// must not be called concurrently with Submit, and only after all missions
// using this worker have drained.
func (w *Worker) Close() error {
	close(w.queue)
	w.pool.Release()
	return nil
}
