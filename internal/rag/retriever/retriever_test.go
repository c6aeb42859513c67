package retriever

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/murtaza-nasir/maestro/internal/embedding"
	"github.com/murtaza-nasir/maestro/internal/maestro"
	"github.com/murtaza-nasir/maestro/internal/store/memory"
)

type fixedEmbedder struct {
	vector embedding.Vector
}

func (f fixedEmbedder) Embed(_ context.Context, texts []string, _ embedding.Mode) ([]embedding.Vector, error) {
	out := make([]embedding.Vector, len(texts))
	for i := range texts {
		out[i] = f.vector
	}
	return out, nil
}

func (f fixedEmbedder) Dimensions() int { return len(f.vector.Dense) }

func seedChunks(t *testing.T, s *memory.Store, chunks []*maestro.Chunk) {
	t.Helper()
	byDoc := map[string][]*maestro.Chunk{}
	for _, c := range chunks {
		byDoc[c.DocumentID] = append(byDoc[c.DocumentID], c)
	}
	for docID, cs := range byDoc {
		require.NoError(t, s.ReplaceChunks(context.Background(), docID, cs))
	}
}

func TestRetrieve_RanksByFusedScore(t *testing.T) {
	s := memory.New()
	seedChunks(t, s, []*maestro.Chunk{
		{ID: "c1", DocumentID: "d1", Dense: []float32{1, 0}, Sparse: maestro.SparseVector{1: 1.0}},
		{ID: "c2", DocumentID: "d1", Dense: []float32{0, 1}, Sparse: maestro.SparseVector{1: 0.1}},
	})
	embedder := fixedEmbedder{vector: embedding.Vector{Dense: []float32{1, 0}, Sparse: maestro.SparseVector{1: 1.0}}}
	r := New(s, embedder)

	results, err := r.Retrieve(context.Background(), "query", Filter{}, 2, DefaultWeights)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "c1", results[0].Chunk.ID)
}

func TestRetrieve_EmptyCandidatesReturnsRetrievalEmpty(t *testing.T) {
	s := memory.New()
	embedder := fixedEmbedder{vector: embedding.Vector{Dense: []float32{1, 0}, Sparse: maestro.SparseVector{}}}
	r := New(s, embedder)

	_, err := r.Retrieve(context.Background(), "query", Filter{}, 2, DefaultWeights)
	require.Error(t, err)
	assert.True(t, maestro.Is(err, maestro.ErrRetrievalEmpty))
}

func TestRetrieve_TieBreaksOnCosSimThenChunkID(t *testing.T) {
	s := memory.New()
	seedChunks(t, s, []*maestro.Chunk{
		{ID: "b", DocumentID: "d1", Dense: []float32{1, 0}, Sparse: maestro.SparseVector{1: 0.5}},
		{ID: "a", DocumentID: "d1", Dense: []float32{1, 0}, Sparse: maestro.SparseVector{1: 0.5}},
	})
	embedder := fixedEmbedder{vector: embedding.Vector{Dense: []float32{1, 0}, Sparse: maestro.SparseVector{1: 1.0}}}
	r := New(s, embedder)

	results, err := r.Retrieve(context.Background(), "query", Filter{}, 2, DefaultWeights)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].Chunk.ID)
}

func TestRetrieve_FiltersByAuthor(t *testing.T) {
	s := memory.New()
	seedChunks(t, s, []*maestro.Chunk{
		{ID: "c1", DocumentID: "d1", Dense: []float32{1, 0}, Sparse: maestro.SparseVector{1: 1.0}, Metadata: maestro.ChunkMetadata{Author: "alice"}},
		{ID: "c2", DocumentID: "d1", Dense: []float32{1, 0}, Sparse: maestro.SparseVector{1: 1.0}, Metadata: maestro.ChunkMetadata{Author: "bob"}},
	})
	embedder := fixedEmbedder{vector: embedding.Vector{Dense: []float32{1, 0}, Sparse: maestro.SparseVector{1: 1.0}}}
	r := New(s, embedder)

	results, err := r.Retrieve(context.Background(), "query", Filter{Author: "alice"}, 5, DefaultWeights)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "c1", results[0].Chunk.ID)
}
