// Package rerank defines the reranker capability used as the pre-filter in
// note-assignment (Open Question 1): given a query and a set of candidate
// texts, return their indices ordered best-first. Ties break on original
// insertion order so both implementations are deterministic.
package rerank

import "context"

// Candidate is one item being ranked, identified by its position in the
// input slice passed to Rerank.
type Candidate struct {
	Index int
	Text  string
}

// Reranker orders candidates by relevance to query, most relevant first.
// The returned slice is a permutation of the input indices.
type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []Candidate) ([]int, error)
}
