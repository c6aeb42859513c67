package duckduckgo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/murtaza-nasir/maestro/internal/maestro"
)

const sampleHTML = `<!DOCTYPE html><html><body>
<div class="result results_links results_links_deep web-result">
  <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fa&amp;rut=1">Example A</a>
  <a class="result__snippet">First snippet</a>
</div>
<div class="result results_links results_links_deep web-result">
  <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fb&amp;rut=1">Example B</a>
  <a class="result__snippet">Second snippet</a>
</div>
</body></html>`

func TestSearch_ParsesResultsFromLiveServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleHTML))
	}))
	defer server.Close()

	s := New(server.Client())
	s.endpoint = server.URL

	results, err := s.Search(context.Background(), "golang", 5)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Example A", results[0].Title)
	assert.Equal(t, "https://example.com/a", results[0].URL)
	assert.Equal(t, "First snippet", results[0].Snippet)
}

func TestSearch_RespectsCountLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleHTML))
	}))
	defer server.Close()

	s := New(server.Client())
	s.endpoint = server.URL

	results, err := s.Search(context.Background(), "golang", 1)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestParseResults_ExtractsTitleURLAndSnippet(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(sampleHTML))
	require.NoError(t, err)

	results := parseResults(doc)
	require.Len(t, results, 2)
	assert.Equal(t, "https://example.com/b", results[1].URL)
	assert.Equal(t, "Second snippet", results[1].Snippet)
}

func TestResolveRedirect_UnwrapsUddgParam(t *testing.T) {
	got := resolveRedirect("//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fc&rut=1")
	assert.Equal(t, "https://example.com/c", got)
}

func TestResolveRedirect_PassesThroughPlainURL(t *testing.T) {
	assert.Equal(t, "https://example.com", resolveRedirect("https://example.com"))
}

func TestSearch_NonOKStatusIsTransientLLMError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	s := New(server.Client())
	s.endpoint = server.URL

	_, err := s.Search(context.Background(), "golang", 5)
	require.Error(t, err)
	assert.True(t, maestro.Is(err, maestro.ErrTransientLLM))
}
