// Package memory implements internal/store.Store in-process with
// mutex-guarded maps. It backs unit tests and the CLI demo mode; it is not
// meant to survive process restart.
package memory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/samber/lo"

	"github.com/murtaza-nasir/maestro/internal/maestro"
	"github.com/murtaza-nasir/maestro/internal/store"
)

// Store is an in-memory implementation of store.Store.
type Store struct {
	mu sync.RWMutex

	documents map[string]*maestro.Document
	chunks    map[string][]*maestro.Chunk // documentID -> ordered chunks
	missions  map[string]*maestro.Mission
	notes     map[string][]*maestro.Note // missionID -> insertion-ordered notes
	noteDedup map[string]string          // missionID\x00dedupKey -> noteID
	logs      map[string][]*maestro.ExecutionLog
	reports   map[string][]*maestro.ReportVersion
}

// New creates an empty in-memory Store.
func New() *Store {
	return &Store{
		documents: make(map[string]*maestro.Document),
		chunks:    make(map[string][]*maestro.Chunk),
		missions:  make(map[string]*maestro.Mission),
		notes:     make(map[string][]*maestro.Note),
		noteDedup: make(map[string]string),
		logs:      make(map[string][]*maestro.ExecutionLog),
		reports:   make(map[string][]*maestro.ReportVersion),
	}
}

var _ store.Store = (*Store)(nil)

func paginate[T any](items []T, page store.Pagination) []T {
	if page.PageSize <= 0 {
		return items
	}
	start := page.Page * page.PageSize
	if start >= len(items) || start < 0 {
		return nil
	}
	end := start + page.PageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// --- DocumentStore ---

func (s *Store) CreateDocument(ctx context.Context, doc *maestro.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := lo.Find(lo.Values(s.documents), func(d *maestro.Document) bool {
		return d.Owner == doc.Owner && d.ContentHash == doc.ContentHash
	}); ok {
		return maestro.NewError(maestro.ErrDuplicateDocument, existing.ID, nil)
	}
	s.documents[doc.ID] = doc
	return nil
}

func (s *Store) GetDocument(ctx context.Context, id string) (*maestro.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[id]
	if !ok {
		return nil, maestro.NewError(maestro.ErrPersistence, "document not found: "+id, nil)
	}
	return doc, nil
}

func (s *Store) FindDocumentByHash(ctx context.Context, owner, contentHash string) (*maestro.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := lo.Find(lo.Values(s.documents), func(d *maestro.Document) bool {
		return d.Owner == owner && d.ContentHash == contentHash
	})
	if !ok {
		return nil, nil
	}
	return doc, nil
}

func (s *Store) UpdateDocument(ctx context.Context, doc *maestro.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[doc.ID]; !ok {
		return maestro.NewError(maestro.ErrPersistence, "document not found: "+doc.ID, nil)
	}
	s.documents[doc.ID] = doc
	return nil
}

func (s *Store) ListDocuments(ctx context.Context, filter store.DocumentFilter, page store.Pagination) ([]*maestro.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := lo.Filter(lo.Values(s.documents), func(d *maestro.Document, _ int) bool {
		if filter.Owner != "" && d.Owner != filter.Owner {
			return false
		}
		if filter.GroupID != "" && d.GroupID != filter.GroupID {
			return false
		}
		if filter.Status != "" && d.Status != filter.Status {
			return false
		}
		return true
	})
	sort.Slice(matches, func(i, j int) bool { return matches[i].CreatedAt.Before(matches[j].CreatedAt) })
	return paginate(matches, page), nil
}

func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.documents, id)
	delete(s.chunks, id)
	return nil
}

// --- ChunkStore ---

func (s *Store) ReplaceChunks(ctx context.Context, documentID string, chunks []*maestro.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := make([]*maestro.Chunk, len(chunks))
	copy(cp, chunks)
	s.chunks[documentID] = cp
	return nil
}

func (s *Store) ListChunks(ctx context.Context, documentID string) ([]*maestro.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chunks[documentID], nil
}

func (s *Store) GetChunk(ctx context.Context, id string) (*maestro.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, cs := range s.chunks {
		for _, c := range cs {
			if c.ID == id {
				return c, nil
			}
		}
	}
	return nil, maestro.NewError(maestro.ErrPersistence, "chunk not found: "+id, nil)
}

func (s *Store) DeleteChunksForDocument(ctx context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.chunks, documentID)
	return nil
}

func (s *Store) SearchDense(ctx context.Context, query []float32, filter store.ChunkFilter, k int) ([]store.ScoredChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	scored := make([]store.ScoredChunk, 0)
	for _, c := range s.allChunksLocked() {
		if !matchesFilter(c, filter) {
			continue
		}
		scored = append(scored, store.ScoredChunk{Chunk: c, Score: cosineSimilarity(query, c.Dense)})
	}
	return topK(scored, k), nil
}

func (s *Store) SearchSparse(ctx context.Context, query maestro.SparseVector, filter store.ChunkFilter, k int) ([]store.ScoredChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	scored := make([]store.ScoredChunk, 0)
	for _, c := range s.allChunksLocked() {
		if !matchesFilter(c, filter) {
			continue
		}
		if score := sparseDotProduct(query, c.Sparse); score > 0 {
			scored = append(scored, store.ScoredChunk{Chunk: c, Score: score})
		}
	}
	return topK(scored, k), nil
}

func (s *Store) allChunksLocked() []*maestro.Chunk {
	var out []*maestro.Chunk
	for _, cs := range s.chunks {
		out = append(out, cs...)
	}
	return out
}

func matchesFilter(c *maestro.Chunk, filter store.ChunkFilter) bool {
	if len(filter.DocumentIDs) > 0 && !lo.Contains(filter.DocumentIDs, c.DocumentID) {
		return false
	}
	if filter.Author != "" && c.Metadata.Author != filter.Author {
		return false
	}
	if filter.YearMin != 0 && c.Metadata.Year < filter.YearMin {
		return false
	}
	if filter.YearMax != 0 && c.Metadata.Year > filter.YearMax {
		return false
	}
	return true
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func sparseDotProduct(a, b maestro.SparseVector) float64 {
	var sum float64
	for k, v := range a {
		sum += v * b[k]
	}
	return sum
}

func topK(scored []store.ScoredChunk, k int) []store.ScoredChunk {
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Chunk.ID < scored[j].Chunk.ID
	})
	if k > 0 && len(scored) > k {
		scored = scored[:k]
	}
	return scored
}

// --- MissionStore ---

func (s *Store) CreateMission(ctx context.Context, m *maestro.Mission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.missions[m.ID] = m
	return nil
}

func (s *Store) GetMission(ctx context.Context, id string) (*maestro.Mission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.missions[id]
	if !ok {
		return nil, maestro.NewError(maestro.ErrPersistence, "mission not found: "+id, nil)
	}
	return m, nil
}

func (s *Store) UpdateMission(ctx context.Context, m *maestro.Mission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.missions[m.ID]; !ok {
		return maestro.NewError(maestro.ErrPersistence, "mission not found: "+m.ID, nil)
	}
	s.missions[m.ID] = m
	return nil
}

func (s *Store) ListMissions(ctx context.Context, owner string, page store.Pagination) ([]*maestro.Mission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := lo.Filter(lo.Values(s.missions), func(m *maestro.Mission, _ int) bool {
		return owner == "" || m.Owner == owner
	})
	sort.Slice(matches, func(i, j int) bool { return matches[i].CreatedAt.Before(matches[j].CreatedAt) })
	return paginate(matches, page), nil
}

// --- NoteStore ---

func dedupKey(note *maestro.Note) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(note.Content)), " ")
	sum := sha256.Sum256([]byte(normalized + "\x00" + note.SourceRef.DocumentID + note.SourceRef.ChunkID + note.SourceRef.URL))
	return hex.EncodeToString(sum[:])
}

func (s *Store) AddNote(ctx context.Context, note *maestro.Note) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := note.MissionID + "\x00" + dedupKey(note)
	if existingID, ok := s.noteDedup[key]; ok {
		return existingID, false, nil
	}
	s.noteDedup[key] = note.NoteID
	s.notes[note.MissionID] = append(s.notes[note.MissionID], note)
	return note.NoteID, true, nil
}

func (s *Store) ListNotes(ctx context.Context, missionID string, filter store.NoteFilter, page store.Pagination) ([]*maestro.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := lo.Filter(s.notes[missionID], func(n *maestro.Note, _ int) bool {
		if filter.SectionID != "" && n.SectionID != filter.SectionID {
			return false
		}
		return true
	})
	return paginate(matches, page), nil
}

func (s *Store) AssignNote(ctx context.Context, noteID, sectionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, notes := range s.notes {
		for _, n := range notes {
			if n.NoteID == noteID {
				n.SectionID = sectionID
				return nil
			}
		}
	}
	return maestro.NewError(maestro.ErrPersistence, "note not found: "+noteID, nil)
}

func (s *Store) UnassignAllForSection(ctx context.Context, missionID, sectionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.notes[missionID] {
		if n.SectionID == sectionID {
			n.SectionID = ""
		}
	}
	return nil
}

func (s *Store) CountNotes(ctx context.Context, missionID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.notes[missionID]), nil
}

// --- LogStore ---

func (s *Store) AppendLog(ctx context.Context, log *maestro.ExecutionLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs[log.MissionID] = append(s.logs[log.MissionID], log)
	return nil
}

func (s *Store) ListLogs(ctx context.Context, missionID string, page store.Pagination) ([]*maestro.ExecutionLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return paginate(s.logs[missionID], page), nil
}

// --- ReportStore ---

func (s *Store) AddReportVersion(ctx context.Context, version *maestro.ReportVersion) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, v := range s.reports[version.MissionID] {
		v.IsCurrent = false
	}
	version.IsCurrent = true
	s.reports[version.MissionID] = append(s.reports[version.MissionID], version)
	return nil
}

func (s *Store) CurrentReportVersion(ctx context.Context, missionID string) (*maestro.ReportVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := lo.Find(s.reports[missionID], func(v *maestro.ReportVersion) bool { return v.IsCurrent })
	if !ok {
		return nil, maestro.NewError(maestro.ErrPersistence, "no current report version for mission: "+missionID, nil)
	}
	return v, nil
}

func (s *Store) ListReportVersions(ctx context.Context, missionID string) ([]*maestro.ReportVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reports[missionID], nil
}
