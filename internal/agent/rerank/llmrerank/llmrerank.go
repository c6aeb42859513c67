// Package llmrerank implements rerank.Reranker with a single structured LLM
// call that scores every candidate at once, following the same
// schema-constrained Chat pattern used for metadata extraction in
// internal/rag/ingest.
package llmrerank

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/murtaza-nasir/maestro/internal/agent/rerank"
	"github.com/murtaza-nasir/maestro/internal/llm"
	"github.com/murtaza-nasir/maestro/internal/maestro"
)

type Reranker struct {
	chat llm.Chat
}

func New(chat llm.Chat) *Reranker {
	return &Reranker{chat: chat}
}

var _ rerank.Reranker = (*Reranker)(nil)

const scoreSchema = `{"type":"object","properties":{"scores":{"type":"array","items":{
	"type":"object","properties":{"index":{"type":"integer"},"score":{"type":"number"}}
}}}}`

type scoredIndex struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

type scoreResult struct {
	Scores []scoredIndex `json:"scores"`
}

func (r *Reranker) Rerank(ctx context.Context, query string, candidates []rerank.Candidate) ([]int, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Query: %s\n\nScore each candidate's relevance from 0 to 1.\n\n", query)
	for _, c := range candidates {
		fmt.Fprintf(&sb, "[%d] %s\n", c.Index, truncate(c.Text, 800))
	}

	completion, err := r.chat.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: "Score candidate relevance as JSON."},
		{Role: llm.RoleUser, Content: sb.String()},
	}, llm.TierFast, []byte(scoreSchema))
	if err != nil {
		return nil, err
	}

	var result scoreResult
	if err := json.Unmarshal([]byte(completion.Content), &result); err != nil {
		return nil, maestro.NewError(maestro.ErrProviderContract, "llmrerank: unparseable scores", err)
	}

	scoreByIndex := make(map[int]float64, len(result.Scores))
	for _, s := range result.Scores {
		scoreByIndex[s.Index] = s.Score
	}

	order := make([]int, len(candidates))
	for i, c := range candidates {
		order[i] = c.Index
	}
	sort.SliceStable(order, func(i, j int) bool {
		return scoreByIndex[order[i]] > scoreByIndex[order[j]]
	})
	return order, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
