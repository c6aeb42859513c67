package sync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_AcquireRelease(t *testing.T) {
	l := NewLimiter(2)
	require.True(t, l.TryAcquire())
	require.True(t, l.TryAcquire())
	assert.False(t, l.TryAcquire(), "third acquire should fail, capacity is 2")
	assert.Equal(t, 2, l.InUse())

	l.Release()
	assert.True(t, l.TryAcquire())
}

func TestLimiter_AcquireContext_Cancelled(t *testing.T) {
	l := NewLimiter(1)
	l.Acquire()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := l.AcquireContext(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, l.InUse(), "cancelled acquire must not consume a slot")
}

func TestLimiter_AcquireContext_Succeeds(t *testing.T) {
	l := NewLimiter(1)
	require.NoError(t, l.AcquireContext(context.Background()))
	assert.Equal(t, 1, l.InUse())
}

func TestLimiter_PanicsOnNonPositiveMax(t *testing.T) {
	assert.Panics(t, func() { NewLimiter(0) })
}
