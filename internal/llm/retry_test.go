package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/murtaza-nasir/maestro/internal/maestro"
)

func TestRetry_SucceedsOnFirstAttempt(t *testing.T) {
	calls := 0
	c, err := Retry(context.Background(), 3, func() (Completion, error) {
		calls++
		return Completion{Content: "ok"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", c.Content)
	assert.Equal(t, 1, calls)
}

func TestRetry_RetriesTransientThenSucceeds(t *testing.T) {
	calls := 0
	c, err := Retry(context.Background(), 3, func() (Completion, error) {
		calls++
		if calls < 3 {
			return Completion{}, maestro.NewError(maestro.ErrTransientLLM, "flaky", nil)
		}
		return Completion{Content: "done"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "done", c.Content)
	assert.Equal(t, 3, calls)
}

func TestRetry_StopsImmediatelyOnNonTransientError(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), 3, func() (Completion, error) {
		calls++
		return Completion{}, maestro.NewError(maestro.ErrProviderContract, "bad request", nil)
	})
	require.Error(t, err)
	assert.True(t, maestro.Is(err, maestro.ErrProviderContract))
	assert.Equal(t, 1, calls)
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), 2, func() (Completion, error) {
		calls++
		return Completion{}, maestro.NewError(maestro.ErrTransientLLM, "down", nil)
	})
	require.Error(t, err)
	assert.True(t, maestro.Is(err, maestro.ErrTransientLLM))
	assert.Equal(t, 2, calls)
}

func TestRetry_RespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	_, err := Retry(ctx, 3, func() (Completion, error) {
		calls++
		return Completion{}, maestro.NewError(maestro.ErrTransientLLM, "down", nil)
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
