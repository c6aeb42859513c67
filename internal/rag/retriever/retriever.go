// Package retriever implements MAESTRO's hybrid dense+sparse fusion
// retrieval (§4.2): embed the query, gather dense and sparse candidate
// sets from the chunk store, fuse their scores with min-max normalized
// sparse weights, and return a deterministically tie-broken top-k.
package retriever

import (
	"context"
	"math"
	"sort"

	"github.com/samber/lo"

	"github.com/murtaza-nasir/maestro/internal/embedding"
	"github.com/murtaza-nasir/maestro/internal/maestro"
	"github.com/murtaza-nasir/maestro/internal/store"
)

// Weights controls the dense/sparse fusion split. DenseW+SparseW must sum
// to 1; DefaultWeights is used when a caller passes the zero value.
type Weights struct {
	DenseW  float64
	SparseW float64
}

// DefaultWeights gives dense and sparse signals equal say.
var DefaultWeights = Weights{DenseW: 0.5, SparseW: 0.5}

// Filter narrows retrieval to a document group and/or metadata bounds.
type Filter struct {
	DocumentGroupID string
	DocumentIDs     []string
	Author          string
	YearMin         int
	YearMax         int
}

// Result is one ranked chunk returned to a caller.
type Result struct {
	Chunk   *maestro.Chunk
	Score   float64
	CosSim  float64
	Sparse  float64
}

// Retriever is a dense+sparse hybrid retriever over a ChunkStore.
type Retriever struct {
	chunks   store.ChunkStore
	embedder embedding.Model
}

// New builds a Retriever.
func New(chunks store.ChunkStore, embedder embedding.Model) *Retriever {
	return &Retriever{chunks: chunks, embedder: embedder}
}

// Retrieve runs the full §4.2 algorithm: embed the query, gather candidate
// sets of size Kd = max(50, 5k) from each side, fuse scores, and return the
// top k.
func (r *Retriever) Retrieve(ctx context.Context, queryText string, filter Filter, k int, weights Weights) ([]Result, error) {
	if weights == (Weights{}) {
		weights = DefaultWeights
	}
	if k <= 0 {
		k = 10
	}
	kd := kd(k)

	vectors, err := r.embedder.Embed(ctx, []string{queryText}, embedding.ModeQuery)
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, maestro.NewError(maestro.ErrProviderContract, "embedder returned no vectors for query", nil)
	}
	query := vectors[0]

	storeFilter := store.ChunkFilter{
		DocumentIDs: candidateDocumentIDs(filter),
		Author:      filter.Author,
		YearMin:     filter.YearMin,
		YearMax:     filter.YearMax,
	}

	denseHits, err := r.chunks.SearchDense(ctx, query.Dense, storeFilter, kd)
	if err != nil {
		return nil, err
	}
	sparseHits, err := r.chunks.SearchSparse(ctx, query.Sparse, storeFilter, kd)
	if err != nil {
		return nil, err
	}

	candidates := unionByChunkID(denseHits, sparseHits)
	if len(candidates) == 0 {
		return nil, maestro.NewError(maestro.ErrRetrievalEmpty, "no candidates matched filter", nil)
	}

	scored := scoreCandidates(candidates, query, weights)
	// A store that does not return chunk vectors (Qdrant) reports the dense
	// cosine similarity as the hit's score; use it in place of the
	// recomputed value, which is 0 without a vector.
	denseScore := make(map[string]float64, len(denseHits))
	for _, h := range denseHits {
		if len(h.Chunk.Dense) == 0 {
			denseScore[h.Chunk.ID] = h.Score
		}
	}
	for i := range scored {
		if s, ok := denseScore[scored[i].Chunk.ID]; ok {
			scored[i].CosSim = s
			scored[i].Score += weights.DenseW * s
		}
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		if scored[i].CosSim != scored[j].CosSim {
			return scored[i].CosSim > scored[j].CosSim
		}
		return scored[i].Chunk.ID < scored[j].Chunk.ID
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

func kd(k int) int {
	if 5*k > 50 {
		return 5 * k
	}
	return 50
}

func candidateDocumentIDs(filter Filter) []string {
	if filter.DocumentGroupID == "" {
		return filter.DocumentIDs
	}
	// DocumentGroupID resolution (group -> member document ids) is the
	// document store's job; callers that filter by group pre-resolve the
	// id list via store.DocumentStore.ListDocuments before calling Retrieve.
	return filter.DocumentIDs
}

func unionByChunkID(a, b []store.ScoredChunk) []*maestro.Chunk {
	merged := lo.UniqBy(append(append([]store.ScoredChunk{}, a...), b...), func(sc store.ScoredChunk) string {
		return sc.Chunk.ID
	})
	return lo.Map(merged, func(sc store.ScoredChunk, _ int) *maestro.Chunk { return sc.Chunk })
}

func scoreCandidates(candidates []*maestro.Chunk, query embedding.Vector, weights Weights) []Result {
	raw := make([]Result, len(candidates))
	for i, c := range candidates {
		raw[i] = Result{
			Chunk:  c,
			CosSim: cosineSimilarity(query.Dense, c.Dense),
			Sparse: sparseDotProduct(query.Sparse, c.Sparse),
		}
	}

	minSparse, maxSparse := minMax(lo.Map(raw, func(r Result, _ int) float64 { return r.Sparse }))
	for i := range raw {
		normSparse := normalize(raw[i].Sparse, minSparse, maxSparse)
		raw[i].Score = weights.DenseW*raw[i].CosSim + weights.SparseW*normSparse
	}
	return raw
}

func minMax(values []float64) (min, max float64) {
	if len(values) == 0 {
		return 0, 0
	}
	min, max = values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

func normalize(v, min, max float64) float64 {
	if max == min {
		return 0
	}
	return (v - min) / (max - min)
}

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
	return dot / math.Sqrt(normA*normB)
}

func sparseDotProduct(a, b maestro.SparseVector) float64 {
	var sum float64
	for tok, w := range a {
		sum += w * b[tok]
	}
	return sum
}
