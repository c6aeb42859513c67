package websearch

import (
	"context"
	"sync"

	msync "github.com/murtaza-nasir/maestro/pkg/sync"
)

// FetchResult pairs a URL with its fetch outcome.
type FetchResult struct {
	URL  string
	Text string
	Err  error
}

// FetchAll fetches every url concurrently through pool, bounding how many
// outstanding requests a single retrieval round can issue regardless of
// the LLM concurrency governor, per §4.4's concurrent-fetch requirement.
// Results preserve the input order.
func FetchAll(ctx context.Context, fetcher Fetcher, urls []string, pool msync.Pool) []FetchResult {
	results := make([]FetchResult, len(urls))
	var wg sync.WaitGroup
	wg.Add(len(urls))

	for i, u := range urls {
		i, u := i, u
		_ = pool.Submit(func() {
			defer wg.Done()
			text, err := fetcher.Fetch(ctx, u)
			results[i] = FetchResult{URL: u, Text: text, Err: err}
		})
	}
	wg.Wait()
	return results
}
