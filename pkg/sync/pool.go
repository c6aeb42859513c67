package sync

import (
	"sync/atomic"

	"github.com/gammazero/workerpool"
	"github.com/panjf2000/ants/v2"
	conc "github.com/sourcegraph/conc/pool"

	"github.com/murtaza-nasir/maestro/pkg/safe"
)

// Pool is the common interface for submitting concurrent work without the
// caller needing to know the concrete pool implementation. In MAESTRO,
// concurrent URL fetch (internal/websearch.FetchAll) takes a Pool; its
// caller, the research agent, passes PoolOfNoPool.
type Pool interface {
	// Submit submits a function to be executed concurrently by the pool.
	Submit(f func()) error
}

// defaultPool is the package-level default pool instance.
var defaultPool atomic.Value

// DefaultPool returns the current default pool instance.
func DefaultPool() Pool {
	return defaultPool.Load().(Pool)
}

// SetDefaultPool sets a new default pool for the package. A nil pool is
// ignored.
func SetDefaultPool(pool Pool) {
	if pool == nil {
		return
	}
	defaultPool.Store(pool)
}

func init() {
	defaultPool.Store(PoolOfNoPool())
}

type poolAdapter func(f func()) error

func (p poolAdapter) Submit(f func()) error {
	return p(f)
}

// PoolOfNoPool launches a new panic-safe goroutine per task, with no
// concurrency limit. Used as the package default and by tests.
func PoolOfNoPool() Pool {
	return poolAdapter(func(f func()) error {
		safe.Go(f)
		return nil
	})
}

// PoolOfConc adapts a sourcegraph/conc pool. A bounded conc.Pool caps the
// number of goroutines running submitted tasks.
func PoolOfConc(pool *conc.Pool) Pool {
	if pool == nil {
		panic("conc pool is nil")
	}
	return poolAdapter(func(f func()) error {
		pool.Go(f)
		return nil
	})
}

// PoolOfAnts adapts a panjf2000/ants pool; Submit returns the pool's error
// (for example when it is full or closed). The embedding worker
// (internal/governor/embedworker) uses an ants.Pool directly, not this
// adapter.
func PoolOfAnts(pool *ants.Pool) Pool {
	if pool == nil {
		panic("ants pool is nil")
	}
	return poolAdapter(func(f func()) error {
		return pool.Submit(f)
	})
}

// PoolOfWorkerpool adapts a gammazero/workerpool, which bounds concurrency
// to its fixed worker count.
func PoolOfWorkerpool(pool *workerpool.WorkerPool) Pool {
	if pool == nil {
		panic("worker pool is nil")
	}
	return poolAdapter(func(f func()) error {
		pool.Submit(f)
		return nil
	})
}
