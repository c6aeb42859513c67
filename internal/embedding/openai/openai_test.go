package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/murtaza-nasir/maestro/internal/embedding"
	"github.com/murtaza-nasir/maestro/internal/governor"
)

func TestEmbed_ReturnsDenseAndSparseVectors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data": []map[string]any{
				{"object": "embedding", "index": 0, "embedding": []float32{3, 4}},
				{"object": "embedding", "index": 1, "embedding": []float32{0, 5}},
			},
			"model": "text-embedding-3-small",
			"usage": map[string]any{"prompt_tokens": 4, "total_tokens": 4},
		})
	}))
	t.Cleanup(srv.Close)

	a := New("test-key", srv.URL+"/v1", "text-embedding-3-small", 2, 1000, governor.New(governor.MinConcurrentRequests))
	vecs, err := a.Embed(context.Background(), []string{"hello world", "hello hello world"}, embedding.ModeDocument)
	require.NoError(t, err)
	require.Len(t, vecs, 2)

	assert.InDelta(t, 1.0, float64(vecs[0].Dense[0]*vecs[0].Dense[0]+vecs[0].Dense[1]*vecs[0].Dense[1]), 0.001)
	assert.NotEmpty(t, vecs[0].Sparse)
	for _, w := range vecs[0].Sparse {
		assert.Greater(t, w, 0.0)
	}
}

func TestEmbed_EmptyInputReturnsNil(t *testing.T) {
	a := New("key", "", "text-embedding-3-small", 2, 1000, governor.New(governor.MinConcurrentRequests))
	vecs, err := a.Embed(context.Background(), nil, embedding.ModeQuery)
	require.NoError(t, err)
	assert.Nil(t, vecs)
}

func TestSparseWeights_NormalizesByTermFrequency(t *testing.T) {
	w := sparseWeights("dog dog cat", 1000)
	require.Len(t, w, 2)
	total := 0.0
	for _, v := range w {
		total += v
	}
	assert.InDelta(t, 1.0, total, 0.0001)
}
