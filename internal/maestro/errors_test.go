package maestro

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaestroError_Unwrap(t *testing.T) {
	cause := errors.New("rate limited")
	err := NewError(ErrTransientLLM, "openai chat", cause)

	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "transient_llm")
	assert.Contains(t, err.Error(), "openai chat")
}

func TestKindOf(t *testing.T) {
	err := NewError(ErrPersistence, "", errors.New("write failed"))

	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, ErrPersistence, kind)

	_, ok = KindOf(errors.New("plain error"))
	assert.False(t, ok)
}

func TestErrKind_Fatal(t *testing.T) {
	assert.True(t, ErrPersistence.Fatal())
	assert.False(t, ErrCancelled.Fatal())
	assert.False(t, ErrTransientLLM.Fatal())
}

func TestIs(t *testing.T) {
	wrapped := fmtWrap(NewError(ErrCancelled, "", nil))
	assert.True(t, Is(wrapped, ErrCancelled))
	assert.False(t, Is(wrapped, ErrPersistence))
}

// fmtWrap simulates a caller wrapping a MaestroError with additional
// context via %w, verifying Is() still unwraps through it.
func fmtWrap(err error) error {
	return errWrap{err}
}

type errWrap struct{ inner error }

func (e errWrap) Error() string { return "wrapped: " + e.inner.Error() }
func (e errWrap) Unwrap() error { return e.inner }
