package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/murtaza-nasir/maestro/internal/maestro"
)

// newTestStore opens a Store against MAESTRO_TEST_POSTGRES_DSN, skipping the
// test when it isn't set. Unlike tarsy's client_test.go, which boots a
// testcontainers postgres instance per test, this module doesn't carry
// testcontainers-go in its dependency set, so these tests run only where a
// database is already provisioned (CI sets the env var; local runs skip).
func newTestStore(t *testing.T) *Store {
	dsn := os.Getenv("MAESTRO_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("MAESTRO_TEST_POSTGRES_DSN not set")
	}
	s, err := Open(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestCreateDocument_RejectsDuplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc := &maestro.Document{ID: "d1", Owner: "alice", ContentHash: "abc", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	require.NoError(t, s.CreateDocument(ctx, doc))
	t.Cleanup(func() { s.DeleteDocument(ctx, "d1") })

	dup := &maestro.Document{ID: "d2", Owner: "alice", ContentHash: "abc", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	err := s.CreateDocument(ctx, dup)
	require.Error(t, err)
	assert.True(t, maestro.Is(err, maestro.ErrDuplicateDocument))
}

func TestReplaceChunks_OverwritesExisting(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateDocument(ctx, &maestro.Document{ID: "d1", Owner: "a", ContentHash: "h1", CreatedAt: time.Now(), UpdatedAt: time.Now()}))
	t.Cleanup(func() { s.DeleteDocument(ctx, "d1") })

	require.NoError(t, s.ReplaceChunks(ctx, "d1", []*maestro.Chunk{
		{ID: "c1", DocumentID: "d1", Index: 0, Text: "first", Dense: []float32{0.1, 0.2}, Sparse: maestro.SparseVector{3: 0.5}},
	}))
	chunks, err := s.ListChunks(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "first", chunks[0].Text)

	require.NoError(t, s.ReplaceChunks(ctx, "d1", []*maestro.Chunk{
		{ID: "c2", DocumentID: "d1", Index: 0, Text: "second"},
	}))
	chunks, err = s.ListChunks(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "second", chunks[0].Text)
}

func TestAddNote_DedupesIdenticalContentAndSource(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateMission(ctx, &maestro.Mission{ID: "m1", CreatedAt: time.Now(), UpdatedAt: time.Now()}))
	t.Cleanup(func() { s.pool.Exec(ctx, `DELETE FROM missions WHERE id = $1`, "m1") })

	note1 := &maestro.Note{NoteID: "n1", MissionID: "m1", Content: "The sky is blue", SourceRef: maestro.SourceRef{URL: "http://x"}, CreatedAt: time.Now()}
	id, added, err := s.AddNote(ctx, note1)
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, "n1", id)

	note2 := &maestro.Note{NoteID: "n2", MissionID: "m1", Content: "the   sky is   blue", SourceRef: maestro.SourceRef{URL: "http://x"}, CreatedAt: time.Now()}
	id2, added2, err := s.AddNote(ctx, note2)
	require.NoError(t, err)
	assert.False(t, added2)
	assert.Equal(t, "n1", id2)

	count, err := s.CountNotes(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestAddReportVersion_MovesIsCurrent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateMission(ctx, &maestro.Mission{ID: "m2", CreatedAt: time.Now(), UpdatedAt: time.Now()}))
	t.Cleanup(func() { s.pool.Exec(ctx, `DELETE FROM missions WHERE id = $1`, "m2") })

	require.NoError(t, s.AddReportVersion(ctx, &maestro.ReportVersion{MissionID: "m2", Version: 1, CreatedAt: time.Now()}))
	require.NoError(t, s.AddReportVersion(ctx, &maestro.ReportVersion{MissionID: "m2", Version: 2, CreatedAt: time.Now()}))

	cur, err := s.CurrentReportVersion(ctx, "m2")
	require.NoError(t, err)
	assert.Equal(t, 2, cur.Version)

	all, err := s.ListReportVersions(ctx, "m2")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.False(t, all[0].IsCurrent)
	assert.True(t, all[1].IsCurrent)
}

func TestGetDocument_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetDocument(context.Background(), "missing-doc")
	require.Error(t, err)
	assert.True(t, maestro.Is(err, maestro.ErrPersistence))
}
