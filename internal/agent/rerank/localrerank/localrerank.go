// Package localrerank implements rerank.Reranker with local cosine
// similarity over an embedding.Model, avoiding an LLM round trip for the
// note-assignment pre-filter when the embedding model already in use for
// ingestion is good enough to rank candidates.
package localrerank

import (
	"context"
	"math"
	"sort"

	"github.com/murtaza-nasir/maestro/internal/agent/rerank"
	"github.com/murtaza-nasir/maestro/internal/embedding"
	"github.com/murtaza-nasir/maestro/internal/maestro"
)

type Reranker struct {
	embedder embedding.Model
}

func New(embedder embedding.Model) *Reranker {
	return &Reranker{embedder: embedder}
}

var _ rerank.Reranker = (*Reranker)(nil)

func (r *Reranker) Rerank(ctx context.Context, query string, candidates []rerank.Candidate) ([]int, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	texts := make([]string, 0, len(candidates)+1)
	texts = append(texts, query)
	for _, c := range candidates {
		texts = append(texts, c.Text)
	}

	vectors, err := r.embedder.Embed(ctx, texts, embedding.ModeQuery)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, maestro.NewError(maestro.ErrProviderContract, "localrerank: embedding count mismatch", nil)
	}

	queryVec := vectors[0].Dense
	scores := make([]float64, len(candidates))
	for i, c := range candidates {
		scores[i] = cosineSimilarity(queryVec, vectors[i+1].Dense)
		_ = c
	}

	order := make([]int, len(candidates))
	for i, c := range candidates {
		order[i] = c.Index
	}
	idxOf := make(map[int]int, len(candidates))
	for i, c := range candidates {
		idxOf[c.Index] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return scores[idxOf[order[i]]] > scores[idxOf[order[j]]]
	})
	return order, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / math.Sqrt(normA*normB)
}
