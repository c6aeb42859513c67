package llm

import (
	"context"
	"math/rand"
	"time"

	"github.com/murtaza-nasir/maestro/internal/maestro"
)

// DefaultMaxAttempts bounds retry-with-jitter for transient LLM failures.
const DefaultMaxAttempts = 3

const baseBackoff = 200 * time.Millisecond

// Retry calls fn up to maxAttempts times, retrying only on
// maestro.ErrTransientLLM, with full-jitter exponential backoff between
// attempts. Any other error, or context cancellation, returns immediately.
// Adapters classify their own errors into ErrTransientLLM vs.
// ErrProviderContract; Retry only implements the backoff policy.
func Retry(ctx context.Context, maxAttempts int, fn func() (Completion, error)) (Completion, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		completion, err := fn()
		if err == nil {
			return completion, nil
		}
		lastErr = err

		if !maestro.Is(err, maestro.ErrTransientLLM) {
			return Completion{}, err
		}
		if attempt == maxAttempts-1 {
			break
		}

		delay := time.Duration(1<<uint(attempt)) * baseBackoff
		jittered := time.Duration(rand.Int63n(int64(delay) + 1))
		select {
		case <-ctx.Done():
			return Completion{}, ctx.Err()
		case <-time.After(jittered):
		}
	}

	return Completion{}, maestro.NewError(maestro.ErrTransientLLM, "retries exhausted", lastErr)
}
