package embedworker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorker_SubmitRunsSingleTenant(t *testing.T) {
	w, err := New(4)
	require.NoError(t, err)
	defer w.Close()

	active := 0
	maxActive := 0
	for i := 0; i < 5; i++ {
		v, err := w.Submit(context.Background(), func(ctx context.Context) (any, error) {
			active++
			if active > maxActive {
				maxActive = active
			}
			active--
			return i, nil
		})
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}
	assert.Equal(t, 1, maxActive)
}

func TestWorker_SubmitRespectsCancellation(t *testing.T) {
	w, err := New(4)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = w.Submit(ctx, func(ctx context.Context) (any, error) {
		return nil, nil
	})
	assert.Error(t, err)
}

func TestWorker_SubmitTimesOutWaitingOnFullQueue(t *testing.T) {
	w, err := New(1)
	require.NoError(t, err)
	defer w.Close()

	block := make(chan struct{})
	go func() {
		_, _ = w.Submit(context.Background(), func(ctx context.Context) (any, error) {
			<-block
			return nil, nil
		})
	}()
	time.Sleep(10 * time.Millisecond) // ensure the first job is dispatched and running

	// the dispatch loop takes this job and waits on the busy pool; the
	// next job then sits in the depth-1 queue until its context expires
	go func() {
		_, _ = w.Submit(context.Background(), func(ctx context.Context) (any, error) {
			return nil, nil
		})
	}()
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = w.Submit(ctx, func(ctx context.Context) (any, error) {
		return nil, nil
	})
	assert.Error(t, err)

	close(block)
}
