package websearch

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	msync "github.com/murtaza-nasir/maestro/pkg/sync"
)

type recordingFetcher struct{}

func (recordingFetcher) Fetch(_ context.Context, url string) (string, error) {
	return "content:" + url, nil
}

func TestFetchAll_PreservesInputOrder(t *testing.T) {
	urls := []string{"a", "b", "c"}
	results := FetchAll(context.Background(), recordingFetcher{}, urls, msync.PoolOfNoPool())

	for i, u := range urls {
		assert.Equal(t, u, results[i].URL)
		assert.Equal(t, fmt.Sprintf("content:%s", u), results[i].Text)
	}
}

type perURLFetcher struct{}

func (perURLFetcher) Fetch(_ context.Context, url string) (string, error) {
	if url == "bad" {
		return "", errors.New("fetch failed")
	}
	return "ok:" + url, nil
}

func TestFetchAll_CapturesPerURLErrorsWithoutAffectingOthers(t *testing.T) {
	urls := []string{"good1", "bad", "good2"}
	results := FetchAll(context.Background(), perURLFetcher{}, urls, msync.PoolOfNoPool())

	assert.NoError(t, results[0].Err)
	assert.Equal(t, "ok:good1", results[0].Text)

	assert.Error(t, results[1].Err)
	assert.Empty(t, results[1].Text)

	assert.NoError(t, results[2].Err)
	assert.Equal(t, "ok:good2", results[2].Text)
}
