// Package openai implements internal/embedding.Model against OpenAI's
// embeddings endpoint, grounded on ai/providers/openai/embedding.Model's
// request/response conversion (createApiRequest/createResponse) over the
// same api.OpenAIApi-style client wrapper used by internal/llm/openai.
//
// OpenAI's endpoint returns only a dense vector; it has no sparse-embedding
// mode. The sparse half of embedding.Vector is produced locally with a
// hashing-trick term-weighting pass (token -> fnv hash mod vocab size,
// weight = term frequency normalized by document length), capped at the
// configured vocabulary size per spec.md's "~30k, configurable cap" note.
package openai

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/samber/lo"
	"github.com/sashabaranov/go-openai"

	"github.com/murtaza-nasir/maestro/internal/embedding"
	"github.com/murtaza-nasir/maestro/internal/governor"
	"github.com/murtaza-nasir/maestro/internal/maestro"
)

// Adapter implements embedding.Model against OpenAI's embeddings endpoint.
type Adapter struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
	vocabSize  int
	governor   *governor.Governor
}

// New builds an Adapter. dimensions, when nonzero, is passed to the API's
// dimensions-reduction parameter (supported by text-embedding-3-*).
func New(apiKey, baseURL, model string, dimensions, vocabSize int, gov *governor.Governor) *Adapter {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Adapter{
		client:     openai.NewClientWithConfig(cfg),
		model:      openai.EmbeddingModel(model),
		dimensions: dimensions,
		vocabSize:  vocabSize,
		governor:   gov,
	}
}

var _ embedding.Model = (*Adapter)(nil)

func (a *Adapter) Dimensions() int { return a.dimensions }

func (a *Adapter) Embed(ctx context.Context, texts []string, mode embedding.Mode) ([]embedding.Vector, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var resp openai.EmbeddingResponse
	err := a.governor.Call(ctx, int64(len(texts)), func(ctx context.Context) error {
		req := openai.EmbeddingRequestStrings{
			Input:      texts,
			Model:      a.model,
			Dimensions: a.dimensions,
		}
		var callErr error
		resp, callErr = a.client.CreateEmbeddings(ctx, req)
		return callErr
	})
	if err != nil {
		return nil, maestro.NewError(maestro.ErrProviderContract, "openai embeddings request failed", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, maestro.NewError(maestro.ErrProviderContract, "embedding count mismatch", nil)
	}

	out := make([]embedding.Vector, len(texts))
	for _, d := range resp.Data {
		out[d.Index] = embedding.Vector{
			Dense:  normalizeL2(lo.Map(d.Embedding, func(v float32, _ int) float32 { return v })),
			Sparse: sparseWeights(texts[d.Index], a.vocabSize),
		}
	}
	return out, nil
}

func normalizeL2(v []float32) []float32 {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	if sumSq == 0 {
		return v
	}
	norm := float32(math.Sqrt(sumSq))
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}

func sparseWeights(text string, vocabSize int) maestro.SparseVector {
	if vocabSize <= 0 {
		vocabSize = 30000
	}
	terms := tokenize(text)
	if len(terms) == 0 {
		return maestro.SparseVector{}
	}

	counts := make(map[int]int, len(terms))
	for _, tok := range terms {
		counts[hashToken(tok, vocabSize)]++
	}

	out := make(maestro.SparseVector, len(counts))
	for id, count := range counts {
		out[id] = float64(count) / float64(len(terms))
	}
	return out
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func hashToken(token string, vocabSize int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(token))
	return int(h.Sum32() % uint32(vocabSize))
}
