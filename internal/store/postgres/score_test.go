package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/murtaza-nasir/maestro/internal/maestro"
	"github.com/murtaza-nasir/maestro/internal/store"
)

func TestCosineSimilarity_IdenticalVectorsScoreOne(t *testing.T) {
	v := []float32{1, 2, 3}
	assert.InDelta(t, 1.0, cosineSimilarity(v, v), 1e-9)
}

func TestCosineSimilarity_MismatchedLengthsScoreZero(t *testing.T) {
	assert.Equal(t, 0.0, cosineSimilarity([]float32{1, 2}, []float32{1, 2, 3}))
}

func TestSparseDotProduct_OnlySharedKeysContribute(t *testing.T) {
	a := maestro.SparseVector{1: 0.5, 2: 0.5}
	b := maestro.SparseVector{2: 0.5, 3: 1.0}
	assert.InDelta(t, 0.25, sparseDotProduct(a, b), 1e-9)
}

func TestTopK_OrdersByScoreThenChunkID(t *testing.T) {
	scored := []store.ScoredChunk{
		{Chunk: &maestro.Chunk{ID: "b"}, Score: 0.5},
		{Chunk: &maestro.Chunk{ID: "a"}, Score: 0.5},
		{Chunk: &maestro.Chunk{ID: "c"}, Score: 0.9},
	}
	out := topK(scored, 2)
	assert.Len(t, out, 2)
	assert.Equal(t, "c", out[0].Chunk.ID)
	assert.Equal(t, "a", out[1].Chunk.ID)
}
