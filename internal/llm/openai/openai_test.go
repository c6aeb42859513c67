package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/murtaza-nasir/maestro/internal/governor"
	"github.com/murtaza-nasir/maestro/internal/llm"
	"github.com/murtaza-nasir/maestro/internal/maestro"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Adapter {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	tiers := TierModels{llm.TierFast: {Model: "gpt-4o-mini", Timeout: 5 * time.Second}}
	return New("test-key", srv.URL+"/v1", tiers, governor.New(governor.MinConcurrentRequests))
}

func TestChat_ReturnsCompletion(t *testing.T) {
	a := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"choices": []map[string]any{{"message": map[string]any{"role": "assistant", "content": "hi there"}, "finish_reason": "stop"}},
			"usage":   map[string]any{"prompt_tokens": 5, "completion_tokens": 2, "total_tokens": 7},
		})
	})

	c, err := a.Chat(context.TODO(), []llm.Message{{Role: llm.RoleUser, Content: "hello"}}, llm.TierFast, nil)
	require.NoError(t, err)
	assert.Equal(t, "hi there", c.Content)
	assert.Equal(t, 5, c.Tokens.Prompt)
	assert.Equal(t, 2, c.Tokens.Completion)
}

func TestChat_UnconfiguredTierIsProviderContractError(t *testing.T) {
	a := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not call server for an unconfigured tier")
	})

	_, err := a.Chat(context.TODO(), []llm.Message{{Role: llm.RoleUser, Content: "x"}}, llm.TierIntelligent, nil)
	require.Error(t, err)
	assert.True(t, maestro.Is(err, maestro.ErrProviderContract))
}

func TestChat_RetriesOn500ThenSucceeds(t *testing.T) {
	attempts := 0
	a := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "boom"}})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-2",
			"object":  "chat.completion",
			"choices": []map[string]any{{"message": map[string]any{"role": "assistant", "content": "recovered"}, "finish_reason": "stop"}},
			"usage":   map[string]any{"prompt_tokens": 1, "completion_tokens": 1, "total_tokens": 2},
		})
	})

	c, err := a.Chat(context.TODO(), []llm.Message{{Role: llm.RoleUser, Content: "hello"}}, llm.TierFast, nil)
	require.NoError(t, err)
	assert.Equal(t, "recovered", c.Content)
	assert.Equal(t, 2, attempts)
}

func TestChat_4xxIsNotRetried(t *testing.T) {
	attempts := 0
	a := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "bad request"}})
	})

	_, err := a.Chat(context.TODO(), []llm.Message{{Role: llm.RoleUser, Content: "hello"}}, llm.TierFast, nil)
	require.Error(t, err)
	assert.True(t, maestro.Is(err, maestro.ErrProviderContract))
	assert.Equal(t, 1, attempts)
}
