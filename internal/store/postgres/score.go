package postgres

import (
	"math"
	"sort"

	"github.com/murtaza-nasir/maestro/internal/maestro"
	"github.com/murtaza-nasir/maestro/internal/store"
)

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
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
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func sparseDotProduct(a, b maestro.SparseVector) float64 {
	var sum float64
	for k, v := range a {
		sum += v * b[k]
	}
	return sum
}

func topK(scored []store.ScoredChunk, k int) []store.ScoredChunk {
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Chunk.ID < scored[j].Chunk.ID
	})
	if k > 0 && len(scored) > k {
		scored = scored[:k]
	}
	return scored
}
