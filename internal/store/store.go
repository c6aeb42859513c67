// Package store defines MAESTRO's persistence capability: the set of
// interfaces a concrete backend (internal/store/memory for tests and the
// CLI demo mode, internal/store/postgres for production) must satisfy so
// the mission controller, retriever, and ingestion pipeline never depend
// on a specific database.
//
// The capability is split the way the teacher splits vectorstore.VectorStore
// into Creator/Retriever/Deleter: small, independently satisfiable
// interfaces composed into the full Store, so a read-only or
// write-only adapter (a test double, a reporting replica) only needs to
// implement the slice it actually uses.
package store

import (
	"context"

	"github.com/murtaza-nasir/maestro/internal/maestro"
)

// Pagination bounds a paged listing.
type Pagination struct {
	Page     int
	PageSize int
}

// DocumentFilter narrows a document listing.
type DocumentFilter struct {
	Owner   string
	GroupID string
	Status  maestro.DocumentStatus
}

// DocumentStore persists Documents.
type DocumentStore interface {
	// CreateDocument inserts a new Document. Returns a *MaestroError of
	// kind ErrDuplicateDocument if (owner, content_hash) already exists,
	// carrying the existing document's id in Detail.
	CreateDocument(ctx context.Context, doc *maestro.Document) error
	GetDocument(ctx context.Context, id string) (*maestro.Document, error)
	FindDocumentByHash(ctx context.Context, owner, contentHash string) (*maestro.Document, error)
	UpdateDocument(ctx context.Context, doc *maestro.Document) error
	ListDocuments(ctx context.Context, filter DocumentFilter, page Pagination) ([]*maestro.Document, error)
	// DeleteDocument removes the Document and cascades to its Chunks.
	DeleteDocument(ctx context.Context, id string) error
}

// ChunkFilter narrows a SearchDense/SearchSparse candidate set before
// ranking, so the retriever's metadata filters (author, year, document
// group) are applied by the store rather than re-filtered in Go after a
// full scan.
type ChunkFilter struct {
	DocumentIDs []string
	Author      string
	// YearMin/YearMax bound Chunk.Metadata.Year inclusively; zero means
	// unbounded on that side.
	YearMin int
	YearMax int
}

// ScoredChunk pairs a Chunk with its similarity score against the query
// vector that produced it, ranked highest-first by the store.
type ScoredChunk struct {
	Chunk *maestro.Chunk
	Score float64
}

// ChunkStore persists Chunks, always scoped to a parent document.
type ChunkStore interface {
	// ReplaceChunks atomically deletes all existing chunks for documentID
	// and inserts the given replacements in order, for both the initial
	// ingest and force_reembed.
	ReplaceChunks(ctx context.Context, documentID string, chunks []*maestro.Chunk) error
	ListChunks(ctx context.Context, documentID string) ([]*maestro.Chunk, error)
	GetChunk(ctx context.Context, id string) (*maestro.Chunk, error)
	// DeleteChunksForDocument removes all chunks owned by documentID.
	DeleteChunksForDocument(ctx context.Context, documentID string) error
	// SearchDense ranks chunks by cosine similarity of their dense vector
	// against query, descending, returning at most k results.
	SearchDense(ctx context.Context, query []float32, filter ChunkFilter, k int) ([]ScoredChunk, error)
	// SearchSparse ranks chunks by the dot product of their sparse posting
	// weights against query, descending, returning at most k results.
	SearchSparse(ctx context.Context, query maestro.SparseVector, filter ChunkFilter, k int) ([]ScoredChunk, error)
}

// MissionStore persists Missions and their MissionContext.
type MissionStore interface {
	CreateMission(ctx context.Context, m *maestro.Mission) error
	GetMission(ctx context.Context, id string) (*maestro.Mission, error)
	// UpdateMission persists the full Mission, including Context, as one
	// atomic write — the controller commits state before publishing
	// events, per §5's "commit-first (persist) then publish (event)".
	UpdateMission(ctx context.Context, m *maestro.Mission) error
	ListMissions(ctx context.Context, owner string, page Pagination) ([]*maestro.Mission, error)
}

// NoteFilter narrows a note listing.
type NoteFilter struct {
	SectionID string
	Phase     string
}

// NoteStore persists Notes, append-only within a mission.
type NoteStore interface {
	// AddNote inserts note unless an existing note in the same mission has
	// an identical (normalized_content, source_ref); in that case it
	// returns the existing note's id and added=false.
	AddNote(ctx context.Context, note *maestro.Note) (existingID string, added bool, err error)
	ListNotes(ctx context.Context, missionID string, filter NoteFilter, page Pagination) ([]*maestro.Note, error)
	AssignNote(ctx context.Context, noteID, sectionID string) error
	UnassignAllForSection(ctx context.Context, missionID, sectionID string) error
	CountNotes(ctx context.Context, missionID string) (int, error)
}

// LogStore persists ExecutionLogs, append-only.
type LogStore interface {
	AppendLog(ctx context.Context, log *maestro.ExecutionLog) error
	ListLogs(ctx context.Context, missionID string, page Pagination) ([]*maestro.ExecutionLog, error)
}

// ReportStore persists ReportVersions.
type ReportStore interface {
	// AddReportVersion inserts version and atomically moves IsCurrent to
	// it, clearing the previous current version.
	AddReportVersion(ctx context.Context, version *maestro.ReportVersion) error
	CurrentReportVersion(ctx context.Context, missionID string) (*maestro.ReportVersion, error)
	ListReportVersions(ctx context.Context, missionID string) ([]*maestro.ReportVersion, error)
}

// Store is the full persistence capability the mission controller and
// ingestion pipeline are built against.
type Store interface {
	DocumentStore
	ChunkStore
	MissionStore
	NoteStore
	LogStore
	ReportStore
}
