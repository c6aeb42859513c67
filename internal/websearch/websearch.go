// Package websearch defines MAESTRO's web search and page fetch
// capabilities (§4.4): a Searcher returns ranked results for a query, a
// Fetcher retrieves and extracts readable text from a URL. Agents depend
// only on these two interfaces, never on a concrete provider.
package websearch

import "context"

// SearchResult is one ranked hit from a Searcher.
type SearchResult struct {
	Title   string
	URL     string
	Snippet string
}

// Searcher runs a web search and returns up to count ranked results.
type Searcher interface {
	Search(ctx context.Context, query string, count int) ([]SearchResult, error)
}

// Fetcher retrieves a URL and extracts its readable text content.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}
