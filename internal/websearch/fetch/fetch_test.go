package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/murtaza-nasir/maestro/internal/maestro"
)

func TestHTMLExtractor_ExtractsReadableText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><style>.x{}</style></head><body><script>evil()</script><h1>Title</h1><p>Body   text.</p></body></html>`))
	}))
	defer server.Close()

	e := New(server.Client())
	text, err := e.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "Title Body text.", text)
}

func TestHTMLExtractor_BlockedStatusIsTransientError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	e := New(server.Client())
	_, err := e.Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.True(t, maestro.Is(err, maestro.ErrTransientLLM))
}

func TestFallback_UsesSecondaryWhenPrimaryFails(t *testing.T) {
	f := &Fallback{
		Primary:   failingFetcher{},
		Secondary: stubFetcher{text: "fallback text"},
	}
	text, err := f.Fetch(context.Background(), "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, "fallback text", text)
}

func TestFallback_ReturnsPrimaryErrorWhenNoSecondary(t *testing.T) {
	f := &Fallback{Primary: failingFetcher{}}
	_, err := f.Fetch(context.Background(), "https://example.com")
	require.Error(t, err)
}

func TestReaderService_PrefixesBaseURL(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte("reader output"))
	}))
	defer server.Close()

	r := NewReaderService(server.Client(), server.URL+"/")
	text, err := r.Fetch(context.Background(), "https://example.com/article")
	require.NoError(t, err)
	assert.Equal(t, "reader output", text)
	assert.Contains(t, gotPath, "example.com/article")
}

type failingFetcher struct{}

func (failingFetcher) Fetch(context.Context, string) (string, error) {
	return "", maestro.NewError(maestro.ErrTransientLLM, "boom", nil)
}

type stubFetcher struct{ text string }

func (s stubFetcher) Fetch(context.Context, string) (string, error) {
	return s.text, nil
}
