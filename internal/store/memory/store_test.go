package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/murtaza-nasir/maestro/internal/maestro"
	"github.com/murtaza-nasir/maestro/internal/store"
)

func TestCreateDocument_RejectsDuplicate(t *testing.T) {
	s := New()
	ctx := context.Background()

	doc := &maestro.Document{ID: "d1", Owner: "alice", ContentHash: "abc"}
	require.NoError(t, s.CreateDocument(ctx, doc))

	dup := &maestro.Document{ID: "d2", Owner: "alice", ContentHash: "abc"}
	err := s.CreateDocument(ctx, dup)
	require.Error(t, err)
	assert.True(t, maestro.Is(err, maestro.ErrDuplicateDocument))

	kind, ok := maestro.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, maestro.ErrDuplicateDocument, kind)
}

func TestDeleteDocument_CascadesChunks(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.CreateDocument(ctx, &maestro.Document{ID: "d1", Owner: "a", ContentHash: "h"}))
	require.NoError(t, s.ReplaceChunks(ctx, "d1", []*maestro.Chunk{{ID: "c1", DocumentID: "d1"}}))

	require.NoError(t, s.DeleteDocument(ctx, "d1"))

	chunks, err := s.ListChunks(ctx, "d1")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestAddNote_DedupesIdenticalContentAndSource(t *testing.T) {
	s := New()
	ctx := context.Background()

	note1 := &maestro.Note{NoteID: "n1", MissionID: "m1", Content: "The sky is blue", SourceRef: maestro.SourceRef{URL: "http://x"}}
	id, added, err := s.AddNote(ctx, note1)
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, "n1", id)

	note2 := &maestro.Note{NoteID: "n2", MissionID: "m1", Content: "the   sky is   blue", SourceRef: maestro.SourceRef{URL: "http://x"}}
	id2, added2, err := s.AddNote(ctx, note2)
	require.NoError(t, err)
	assert.False(t, added2)
	assert.Equal(t, "n1", id2)

	count, err := s.CountNotes(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestAddReportVersion_MovesIsCurrent(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.AddReportVersion(ctx, &maestro.ReportVersion{MissionID: "m1", Version: 1, CreatedAt: time.Now()}))
	require.NoError(t, s.AddReportVersion(ctx, &maestro.ReportVersion{MissionID: "m1", Version: 2, CreatedAt: time.Now()}))

	cur, err := s.CurrentReportVersion(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, 2, cur.Version)

	all, err := s.ListReportVersions(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.False(t, all[0].IsCurrent)
	assert.True(t, all[1].IsCurrent)
}

func TestListDocuments_FiltersAndPaginates(t *testing.T) {
	s := New()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.CreateDocument(ctx, &maestro.Document{
			ID: string(rune('a' + i)), Owner: "alice", ContentHash: string(rune('a' + i)),
			CreatedAt: time.Now().Add(time.Duration(i) * time.Second),
		}))
	}

	page, err := s.ListDocuments(ctx, store.DocumentFilter{Owner: "alice"}, store.Pagination{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, page, 2)
}

func TestGetDocument_NotFound(t *testing.T) {
	s := New()
	_, err := s.GetDocument(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, maestro.Is(err, maestro.ErrPersistence))
}

func TestSearchDense_RanksByCosineSimilarity(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.ReplaceChunks(ctx, "doc1", []*maestro.Chunk{
		{ID: "c1", DocumentID: "doc1", Dense: []float32{1, 0}},
		{ID: "c2", DocumentID: "doc1", Dense: []float32{0, 1}},
	}))

	results, err := s.SearchDense(ctx, []float32{1, 0}, store.ChunkFilter{}, 5)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "c1", results[0].Chunk.ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
}

func TestSearchSparse_FiltersByDocumentID(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.ReplaceChunks(ctx, "doc1", []*maestro.Chunk{
		{ID: "c1", DocumentID: "doc1", Sparse: maestro.SparseVector{1: 1.0}},
	}))
	require.NoError(t, s.ReplaceChunks(ctx, "doc2", []*maestro.Chunk{
		{ID: "c2", DocumentID: "doc2", Sparse: maestro.SparseVector{1: 1.0}},
	}))

	results, err := s.SearchSparse(ctx, maestro.SparseVector{1: 1.0}, store.ChunkFilter{DocumentIDs: []string{"doc1"}}, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "c1", results[0].Chunk.ID)
}
