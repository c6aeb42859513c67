package ingest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/murtaza-nasir/maestro/internal/embedding"
	"github.com/murtaza-nasir/maestro/internal/maestro"
	"github.com/murtaza-nasir/maestro/internal/store"
	"github.com/murtaza-nasir/maestro/internal/store/memory"
)

type fakeEmbedder struct {
	calls int
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string, _ embedding.Mode) ([]embedding.Vector, error) {
	f.calls++
	out := make([]embedding.Vector, len(texts))
	for i := range texts {
		out[i] = embedding.Vector{Dense: []float32{0.1, 0.2}, Sparse: maestro.SparseVector{1: 0.5}}
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int { return 2 }

func newTestPipeline(t *testing.T) (*Pipeline, *memory.Store, *fakeEmbedder) {
	t.Helper()
	st := memory.New()
	embedder := &fakeEmbedder{}
	cfg := Config{StorageRoot: t.TempDir(), EmbeddingBatchSize: 2}
	return New(cfg, st, st, embedder, nil, nil), st, embedder
}

func TestIngest_ProcessesDocumentThroughAllSteps(t *testing.T) {
	p, st, embedder := newTestPipeline(t)

	doc, err := p.Ingest(context.Background(), IngestRequest{
		Owner:    "alice",
		Filename: "paper.md",
		Format:   maestro.FormatMD,
		Raw:      []byte("para one\n\npara two\n\npara three"),
	})
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, maestro.DocumentCompleted, doc.Status)
	assert.NotEmpty(t, doc.RawPath)
	assert.NotEmpty(t, doc.MarkdownPath)
	assert.Greater(t, embedder.calls, 0)

	chunks, err := st.ListChunks(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Len(t, chunks, 2)
	assert.Equal(t, []float32{0.1, 0.2}, chunks[0].Dense)
}

func TestIngest_DuplicateContentIsRejected(t *testing.T) {
	p, _, _ := newTestPipeline(t)
	ctx := context.Background()
	req := IngestRequest{Owner: "alice", Filename: "a.txt", Format: maestro.FormatTXT, Raw: []byte("same bytes")}

	_, err := p.Ingest(ctx, req)
	require.NoError(t, err)

	_, err = p.Ingest(ctx, req)
	require.Error(t, err)
	assert.True(t, maestro.Is(err, maestro.ErrDuplicateDocument))
}

func TestIngest_UnsupportedFormatFailsBeforePersisting(t *testing.T) {
	p, st, _ := newTestPipeline(t)

	_, err := p.Ingest(context.Background(), IngestRequest{
		Owner: "alice", Filename: "x.bin", Format: "bin", Raw: []byte("data"),
	})
	require.Error(t, err)
	assert.True(t, maestro.Is(err, maestro.ErrIngestionFailed))

	docs, err := st.ListDocuments(context.Background(), store.DocumentFilter{Owner: "alice"}, store.Pagination{})
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestIngest_CancelledContextFailsTheDocument(t *testing.T) {
	p, st, _ := newTestPipeline(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Ingest(ctx, IngestRequest{
		Owner: "alice", Filename: "a.txt", Format: maestro.FormatTXT, Raw: []byte("x"),
	})
	require.Error(t, err)
	assert.True(t, maestro.Is(err, maestro.ErrCancelled))

	docs, err := st.ListDocuments(context.Background(), store.DocumentFilter{Owner: "alice"}, store.Pagination{})
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestReembedDocument_RerunsChunkEmbedStoreFinalize(t *testing.T) {
	p, st, embedder := newTestPipeline(t)
	ctx := context.Background()

	doc, err := p.Ingest(ctx, IngestRequest{
		Owner: "alice", Filename: "a.md", Format: maestro.FormatMD,
		Raw: []byte("para one\n\npara two"),
	})
	require.NoError(t, err)

	callsBefore := embedder.calls
	require.NoError(t, p.ReembedDocument(ctx, doc.ID))
	assert.Greater(t, embedder.calls, callsBefore)

	chunks, err := st.ListChunks(ctx, doc.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, chunks)
}
