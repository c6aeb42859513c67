package sync

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gammazero/workerpool"
	"github.com/panjf2000/ants/v2"
	conc "github.com/sourcegraph/conc/pool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPool_ExecutesSubmittedWork(t *testing.T) {
	var counter int32
	var wg sync.WaitGroup
	wg.Add(5)

	for i := 0; i < 5; i++ {
		require.NoError(t, DefaultPool().Submit(func() {
			atomic.AddInt32(&counter, 1)
			wg.Done()
		}))
	}
	wg.Wait()
	assert.EqualValues(t, 5, counter)
}

func TestSetDefaultPool_IgnoresNil(t *testing.T) {
	before := DefaultPool()
	SetDefaultPool(nil)
	assert.Equal(t, before, DefaultPool())
}

func TestPoolOfConc_BoundsConcurrency(t *testing.T) {
	concPool := conc.New().WithMaxGoroutines(2)
	pool := PoolOfConc(concPool)

	var current, max int32
	for i := 0; i < 10; i++ {
		require.NoError(t, pool.Submit(func() {
			c := atomic.AddInt32(&current, 1)
			for {
				old := atomic.LoadInt32(&max)
				if c <= old || atomic.CompareAndSwapInt32(&max, old, c) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&current, -1)
		}))
	}
	concPool.Wait()
	assert.LessOrEqual(t, max, int32(2))
}

func TestPoolOfConc_PanicsOnNil(t *testing.T) {
	assert.Panics(t, func() { PoolOfConc(nil) })
}

func TestPoolOfAnts_RespectsPoolSize(t *testing.T) {
	antsPool, err := ants.NewPool(2)
	require.NoError(t, err)
	defer antsPool.Release()

	pool := PoolOfAnts(antsPool)

	var current, max int32
	var wg sync.WaitGroup
	wg.Add(8)
	for i := 0; i < 8; i++ {
		require.NoError(t, pool.Submit(func() {
			defer wg.Done()
			c := atomic.AddInt32(&current, 1)
			for {
				old := atomic.LoadInt32(&max)
				if c <= old || atomic.CompareAndSwapInt32(&max, old, c) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&current, -1)
		}))
	}
	wg.Wait()
	assert.LessOrEqual(t, max, int32(2))
}

func TestPoolOfAnts_PanicsOnNil(t *testing.T) {
	assert.Panics(t, func() { PoolOfAnts(nil) })
}

func TestPoolOfWorkerpool_ExecutesWork(t *testing.T) {
	wp := workerpool.New(3)
	defer wp.StopWait()

	pool := PoolOfWorkerpool(wp)

	var counter int32
	var wg sync.WaitGroup
	wg.Add(10)
	for i := 0; i < 10; i++ {
		require.NoError(t, pool.Submit(func() {
			atomic.AddInt32(&counter, 1)
			wg.Done()
		}))
	}
	wg.Wait()
	assert.EqualValues(t, 10, counter)
}

func TestPoolOfWorkerpool_PanicsOnNil(t *testing.T) {
	assert.Panics(t, func() { PoolOfWorkerpool(nil) })
}
