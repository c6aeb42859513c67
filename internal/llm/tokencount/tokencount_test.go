package tokencount

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCount_NonEmptyTextReturnsPositive(t *testing.T) {
	n := Count("the quick brown fox jumps over the lazy dog")
	assert.Greater(t, n, 0)
}

func TestCount_EmptyTextReturnsZero(t *testing.T) {
	assert.Equal(t, 0, Count(""))
}

func TestCountMessages_SumsPerMessageOverhead(t *testing.T) {
	single := Count("hello there")
	total := CountMessages([]string{"hello there", "hello there"})
	assert.Equal(t, 2*(single+4), total)
}
