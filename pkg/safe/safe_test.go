package safe

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGo_RecoversPanic(t *testing.T) {
	errCh := make(chan error, 1)
	Go(func() { panic("boom") }, func(err error) { errCh <- err })

	select {
	case err := <-errCh:
		assert.True(t, strings.Contains(err.Error(), "boom"))
	case <-time.After(time.Second):
		t.Fatal("panic handler never called")
	}
}

func TestGo_NormalCompletion(t *testing.T) {
	done := make(chan struct{})
	Go(func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("goroutine never ran")
	}
}

func TestWithRecover_NilFuncReturnsNil(t *testing.T) {
	assert.Nil(t, WithRecover(nil))
}

func TestWithRecover_CallsEveryHandler(t *testing.T) {
	var mu sync.Mutex
	var calls int
	h := func(error) {
		mu.Lock()
		calls++
		mu.Unlock()
	}

	WithRecover(func() { panic("x") }, h, h, h)()

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 3, calls)
}

func TestPanicError_ErrorIncludesStack(t *testing.T) {
	err := NewPanicError("info", []byte("stack trace"))
	assert.True(t, strings.Contains(err.Error(), "stack trace"))
	assert.True(t, strings.Contains(err.Error(), "info"))
}
