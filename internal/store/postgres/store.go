// Package postgres implements internal/store.Store over PostgreSQL using
// jackc/pgx/v5's pgxpool, with schema management handled by
// golang-migrate/migrate/v4 against embedded SQL files. It is the
// production counterpart to internal/store/memory, grounded on
// codeready-toolchain-tarsy's pkg/database/client.go migration wiring
// (golang-migrate + iofs + embed.FS) with the ent query layer replaced by
// raw pgx, since this module does not depend on entgo.io/ent.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/murtaza-nasir/maestro/internal/maestro"
	"github.com/murtaza-nasir/maestro/internal/store"
)

// Store is a PostgreSQL-backed store.Store.
type Store struct {
	pool *pgxpool.Pool
}

var _ store.Store = (*Store)(nil)

// Open runs pending migrations against dsn and returns a Store backed by a
// connection pool to the same database.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if err := runMigrations(dsn); err != nil {
		return nil, fmt.Errorf("postgres store: %w", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres store: connect: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

func persistErr(detail string, err error) error {
	return maestro.NewError(maestro.ErrPersistence, detail, err)
}

func notFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// --- DocumentStore ---

func (s *Store) CreateDocument(ctx context.Context, doc *maestro.Document) error {
	meta, err := json.Marshal(doc.Metadata)
	if err != nil {
		return persistErr("marshal document metadata", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO documents (id, owner, filename, format, content_hash, metadata, status,
			processing_error, group_id, raw_path, markdown_path, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		doc.ID, doc.Owner, doc.Filename, doc.Format, doc.ContentHash, meta, doc.Status,
		doc.ProcessingError, doc.GroupID, doc.RawPath, doc.MarkdownPath, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			existing, findErr := s.FindDocumentByHash(ctx, doc.Owner, doc.ContentHash)
			if findErr == nil && existing != nil {
				return maestro.NewError(maestro.ErrDuplicateDocument, existing.ID, err)
			}
			return maestro.NewError(maestro.ErrDuplicateDocument, doc.ContentHash, err)
		}
		return persistErr("insert document", err)
	}
	return nil
}

func scanDocument(row pgx.Row) (*maestro.Document, error) {
	var d maestro.Document
	var meta []byte
	if err := row.Scan(&d.ID, &d.Owner, &d.Filename, &d.Format, &d.ContentHash, &meta, &d.Status,
		&d.ProcessingError, &d.GroupID, &d.RawPath, &d.MarkdownPath, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(meta, &d.Metadata); err != nil {
		return nil, err
	}
	return &d, nil
}

const documentColumns = `id, owner, filename, format, content_hash, metadata, status,
	processing_error, group_id, raw_path, markdown_path, created_at, updated_at`

func (s *Store) GetDocument(ctx context.Context, id string) (*maestro.Document, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)
	doc, err := scanDocument(row)
	if err != nil {
		if notFound(err) {
			return nil, persistErr("document not found: "+id, err)
		}
		return nil, persistErr("get document", err)
	}
	return doc, nil
}

func (s *Store) FindDocumentByHash(ctx context.Context, owner, contentHash string) (*maestro.Document, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE owner = $1 AND content_hash = $2`, owner, contentHash)
	doc, err := scanDocument(row)
	if err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, persistErr("find document by hash", err)
	}
	return doc, nil
}

func (s *Store) UpdateDocument(ctx context.Context, doc *maestro.Document) error {
	meta, err := json.Marshal(doc.Metadata)
	if err != nil {
		return persistErr("marshal document metadata", err)
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE documents SET filename=$2, format=$3, content_hash=$4, metadata=$5, status=$6,
			processing_error=$7, group_id=$8, raw_path=$9, markdown_path=$10, updated_at=$11
		WHERE id = $1`,
		doc.ID, doc.Filename, doc.Format, doc.ContentHash, meta, doc.Status,
		doc.ProcessingError, doc.GroupID, doc.RawPath, doc.MarkdownPath, doc.UpdatedAt)
	if err != nil {
		return persistErr("update document", err)
	}
	if tag.RowsAffected() == 0 {
		return persistErr("document not found: "+doc.ID, nil)
	}
	return nil
}

func (s *Store) ListDocuments(ctx context.Context, filter store.DocumentFilter, page store.Pagination) ([]*maestro.Document, error) {
	where := "TRUE"
	args := []any{}
	if filter.Owner != "" {
		args = append(args, filter.Owner)
		where += fmt.Sprintf(" AND owner = $%d", len(args))
	}
	if filter.GroupID != "" {
		args = append(args, filter.GroupID)
		where += fmt.Sprintf(" AND group_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	limit, offset := pageBounds(page)
	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM documents WHERE %s ORDER BY created_at ASC LIMIT $%d OFFSET $%d`,
		documentColumns, where, len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, persistErr("list documents", err)
	}
	defer rows.Close()

	var out []*maestro.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, persistErr("scan document", err)
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return persistErr("delete document", err)
	}
	return nil
}

// --- ChunkStore ---

func (s *Store) ReplaceChunks(ctx context.Context, documentID string, chunks []*maestro.Chunk) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return persistErr("begin replace chunks", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM chunks WHERE document_id = $1`, documentID); err != nil {
		return persistErr("delete existing chunks", err)
	}

	batch := &pgx.Batch{}
	for _, c := range chunks {
		sparse, err := json.Marshal(c.Sparse)
		if err != nil {
			return persistErr("marshal sparse vector", err)
		}
		batch.Queue(`
			INSERT INTO chunks (id, document_id, chunk_index, text, dense, sparse, author, year, title)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			c.ID, documentID, c.Index, c.Text, c.Dense, sparse,
			c.Metadata.Author, c.Metadata.Year, c.Metadata.Title)
	}

	results := tx.SendBatch(ctx, batch)
	for range chunks {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return persistErr("insert chunk", err)
		}
	}
	if err := results.Close(); err != nil {
		return persistErr("close chunk batch", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return persistErr("commit replace chunks", err)
	}
	return nil
}

func scanChunk(row pgx.Row) (*maestro.Chunk, error) {
	var c maestro.Chunk
	var sparse []byte
	if err := row.Scan(&c.ID, &c.DocumentID, &c.Index, &c.Text, &c.Dense, &sparse,
		&c.Metadata.Author, &c.Metadata.Year, &c.Metadata.Title); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(sparse, &c.Sparse); err != nil {
		return nil, err
	}
	return &c, nil
}

const chunkColumns = `id, document_id, chunk_index, text, dense, sparse, author, year, title`

func (s *Store) ListChunks(ctx context.Context, documentID string) ([]*maestro.Chunk, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+chunkColumns+` FROM chunks WHERE document_id = $1 ORDER BY chunk_index ASC`, documentID)
	if err != nil {
		return nil, persistErr("list chunks", err)
	}
	defer rows.Close()

	var out []*maestro.Chunk
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, persistErr("scan chunk", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetChunk(ctx context.Context, id string) (*maestro.Chunk, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+chunkColumns+` FROM chunks WHERE id = $1`, id)
	c, err := scanChunk(row)
	if err != nil {
		if notFound(err) {
			return nil, persistErr("chunk not found: "+id, err)
		}
		return nil, persistErr("get chunk", err)
	}
	return c, nil
}

func (s *Store) DeleteChunksForDocument(ctx context.Context, documentID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM chunks WHERE document_id = $1`, documentID)
	if err != nil {
		return persistErr("delete chunks for document", err)
	}
	return nil
}

// candidateChunks applies filter's SQL-expressible predicates (document_id,
// author, year) and returns every matching row. Scoring itself (cosine
// similarity for dense, dot product for sparse) happens in Go: the schema
// stores dense vectors as a plain REAL[] rather than a pgvector column (no
// pgvector Go driver is part of this module's dependency set), so there is
// no ORDER BY <-> operator to push the ranking down to SQL.
func (s *Store) candidateChunks(ctx context.Context, filter store.ChunkFilter) ([]*maestro.Chunk, error) {
	where := "TRUE"
	args := []any{}
	if len(filter.DocumentIDs) > 0 {
		args = append(args, filter.DocumentIDs)
		where += fmt.Sprintf(" AND document_id = ANY($%d)", len(args))
	}
	if filter.Author != "" {
		args = append(args, filter.Author)
		where += fmt.Sprintf(" AND author = $%d", len(args))
	}
	if filter.YearMin != 0 {
		args = append(args, filter.YearMin)
		where += fmt.Sprintf(" AND year >= $%d", len(args))
	}
	if filter.YearMax != 0 {
		args = append(args, filter.YearMax)
		where += fmt.Sprintf(" AND year <= $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, `SELECT `+chunkColumns+` FROM chunks WHERE `+where, args...)
	if err != nil {
		return nil, persistErr("query candidate chunks", err)
	}
	defer rows.Close()

	var out []*maestro.Chunk
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, persistErr("scan candidate chunk", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) SearchDense(ctx context.Context, query []float32, filter store.ChunkFilter, k int) ([]store.ScoredChunk, error) {
	candidates, err := s.candidateChunks(ctx, filter)
	if err != nil {
		return nil, err
	}
	scored := make([]store.ScoredChunk, 0, len(candidates))
	for _, c := range candidates {
		scored = append(scored, store.ScoredChunk{Chunk: c, Score: cosineSimilarity(query, c.Dense)})
	}
	return topK(scored, k), nil
}

func (s *Store) SearchSparse(ctx context.Context, query maestro.SparseVector, filter store.ChunkFilter, k int) ([]store.ScoredChunk, error) {
	candidates, err := s.candidateChunks(ctx, filter)
	if err != nil {
		return nil, err
	}
	scored := make([]store.ScoredChunk, 0, len(candidates))
	for _, c := range candidates {
		if score := sparseDotProduct(query, c.Sparse); score > 0 {
			scored = append(scored, store.ScoredChunk{Chunk: c, Score: score})
		}
	}
	return topK(scored, k), nil
}

// --- MissionStore ---

func (s *Store) CreateMission(ctx context.Context, m *maestro.Mission) error {
	opts, err := json.Marshal(m.Options)
	if err != nil {
		return persistErr("marshal mission options", err)
	}
	mctx, err := json.Marshal(m.Context)
	if err != nil {
		return persistErr("marshal mission context", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO missions (id, chat_id, owner, request_text, status, phase, options,
			document_group_id, current_version, context, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		m.ID, m.ChatID, m.Owner, m.RequestText, m.Status, m.Phase, opts,
		m.DocumentGroupID, m.CurrentVersion, mctx, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return persistErr("insert mission", err)
	}
	return nil
}

const missionColumns = `id, chat_id, owner, request_text, status, phase, options,
	document_group_id, current_version, context, created_at, updated_at`

func scanMission(row pgx.Row) (*maestro.Mission, error) {
	var m maestro.Mission
	var opts, mctx []byte
	if err := row.Scan(&m.ID, &m.ChatID, &m.Owner, &m.RequestText, &m.Status, &m.Phase, &opts,
		&m.DocumentGroupID, &m.CurrentVersion, &mctx, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(opts, &m.Options); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(mctx, &m.Context); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) GetMission(ctx context.Context, id string) (*maestro.Mission, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+missionColumns+` FROM missions WHERE id = $1`, id)
	m, err := scanMission(row)
	if err != nil {
		if notFound(err) {
			return nil, persistErr("mission not found: "+id, err)
		}
		return nil, persistErr("get mission", err)
	}
	return m, nil
}

func (s *Store) UpdateMission(ctx context.Context, m *maestro.Mission) error {
	opts, err := json.Marshal(m.Options)
	if err != nil {
		return persistErr("marshal mission options", err)
	}
	mctx, err := json.Marshal(m.Context)
	if err != nil {
		return persistErr("marshal mission context", err)
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE missions SET chat_id=$2, owner=$3, request_text=$4, status=$5, phase=$6, options=$7,
			document_group_id=$8, current_version=$9, context=$10, updated_at=$11
		WHERE id = $1`,
		m.ID, m.ChatID, m.Owner, m.RequestText, m.Status, m.Phase, opts,
		m.DocumentGroupID, m.CurrentVersion, mctx, m.UpdatedAt)
	if err != nil {
		return persistErr("update mission", err)
	}
	if tag.RowsAffected() == 0 {
		return persistErr("mission not found: "+m.ID, nil)
	}
	return nil
}

func (s *Store) ListMissions(ctx context.Context, owner string, page store.Pagination) ([]*maestro.Mission, error) {
	limit, offset := pageBounds(page)
	var rows pgx.Rows
	var err error
	if owner == "" {
		rows, err = s.pool.Query(ctx, `SELECT `+missionColumns+` FROM missions ORDER BY created_at ASC LIMIT $1 OFFSET $2`, limit, offset)
	} else {
		rows, err = s.pool.Query(ctx, `SELECT `+missionColumns+` FROM missions WHERE owner = $1 ORDER BY created_at ASC LIMIT $2 OFFSET $3`, owner, limit, offset)
	}
	if err != nil {
		return nil, persistErr("list missions", err)
	}
	defer rows.Close()

	var out []*maestro.Mission
	for rows.Next() {
		m, err := scanMission(rows)
		if err != nil {
			return nil, persistErr("scan mission", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// --- NoteStore ---

func (s *Store) AddNote(ctx context.Context, note *maestro.Note) (string, bool, error) {
	sourceRef, err := json.Marshal(note.SourceRef)
	if err != nil {
		return "", false, persistErr("marshal source ref", err)
	}
	tags, err := json.Marshal(note.Tags)
	if err != nil {
		return "", false, persistErr("marshal note tags", err)
	}

	key := dedupKey(note)
	_, err = s.pool.Exec(ctx, `
		INSERT INTO notes (note_id, mission_id, content, dedup_key, source_type, source_ref, section_id, tags, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (mission_id, dedup_key) DO NOTHING`,
		note.NoteID, note.MissionID, note.Content, key, note.SourceType, sourceRef, note.SectionID, tags, note.CreatedAt)
	if err != nil {
		return "", false, persistErr("insert note", err)
	}

	var existingID string
	err = s.pool.QueryRow(ctx, `SELECT note_id FROM notes WHERE mission_id = $1 AND dedup_key = $2`, note.MissionID, key).Scan(&existingID)
	if err != nil {
		return "", false, persistErr("resolve note id", err)
	}
	return existingID, existingID == note.NoteID, nil
}

func (s *Store) ListNotes(ctx context.Context, missionID string, filter store.NoteFilter, page store.Pagination) ([]*maestro.Note, error) {
	where := "mission_id = $1"
	args := []any{missionID}
	if filter.SectionID != "" {
		args = append(args, filter.SectionID)
		where += fmt.Sprintf(" AND section_id = $%d", len(args))
	}
	limit, offset := pageBounds(page)
	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT note_id, mission_id, content, source_type, source_ref, section_id, tags, created_at
		FROM notes WHERE %s ORDER BY created_at ASC LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, persistErr("list notes", err)
	}
	defer rows.Close()

	var out []*maestro.Note
	for rows.Next() {
		var n maestro.Note
		var sourceRef, tags []byte
		if err := rows.Scan(&n.NoteID, &n.MissionID, &n.Content, &n.SourceType, &sourceRef, &n.SectionID, &tags, &n.CreatedAt); err != nil {
			return nil, persistErr("scan note", err)
		}
		if err := json.Unmarshal(sourceRef, &n.SourceRef); err != nil {
			return nil, persistErr("unmarshal source ref", err)
		}
		if err := json.Unmarshal(tags, &n.Tags); err != nil {
			return nil, persistErr("unmarshal note tags", err)
		}
		out = append(out, &n)
	}
	return out, rows.Err()
}

func (s *Store) AssignNote(ctx context.Context, noteID, sectionID string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE notes SET section_id = $2 WHERE note_id = $1`, noteID, sectionID)
	if err != nil {
		return persistErr("assign note", err)
	}
	if tag.RowsAffected() == 0 {
		return persistErr("note not found: "+noteID, nil)
	}
	return nil
}

func (s *Store) UnassignAllForSection(ctx context.Context, missionID, sectionID string) error {
	_, err := s.pool.Exec(ctx, `UPDATE notes SET section_id = '' WHERE mission_id = $1 AND section_id = $2`, missionID, sectionID)
	if err != nil {
		return persistErr("unassign notes for section", err)
	}
	return nil
}

func (s *Store) CountNotes(ctx context.Context, missionID string) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM notes WHERE mission_id = $1`, missionID).Scan(&n); err != nil {
		return 0, persistErr("count notes", err)
	}
	return n, nil
}

// --- LogStore ---

func (s *Store) AppendLog(ctx context.Context, log *maestro.ExecutionLog) error {
	toolCalls, err := json.Marshal(log.ToolCalls)
	if err != nil {
		return persistErr("marshal tool calls", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO execution_logs (mission_id, timestamp, agent_name, action, status, input_summary,
			output_summary, error_message, model_details, prompt_tokens, completion_tokens, native_tokens,
			cost_decimal, tool_calls)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		log.MissionID, log.Timestamp, log.AgentName, log.Action, log.Status, log.InputSummary,
		log.OutputSummary, log.ErrorMessage, log.ModelDetails, log.Tokens.Prompt, log.Tokens.Completion,
		log.Tokens.Native, log.CostDecimal, toolCalls)
	if err != nil {
		return persistErr("insert execution log", err)
	}
	return nil
}

func (s *Store) ListLogs(ctx context.Context, missionID string, page store.Pagination) ([]*maestro.ExecutionLog, error) {
	limit, offset := pageBounds(page)
	rows, err := s.pool.Query(ctx, `
		SELECT mission_id, timestamp, agent_name, action, status, input_summary, output_summary,
			error_message, model_details, prompt_tokens, completion_tokens, native_tokens, cost_decimal, tool_calls
		FROM execution_logs WHERE mission_id = $1 ORDER BY id ASC LIMIT $2 OFFSET $3`, missionID, limit, offset)
	if err != nil {
		return nil, persistErr("list logs", err)
	}
	defer rows.Close()

	var out []*maestro.ExecutionLog
	for rows.Next() {
		var l maestro.ExecutionLog
		var toolCalls []byte
		if err := rows.Scan(&l.MissionID, &l.Timestamp, &l.AgentName, &l.Action, &l.Status, &l.InputSummary,
			&l.OutputSummary, &l.ErrorMessage, &l.ModelDetails, &l.Tokens.Prompt, &l.Tokens.Completion,
			&l.Tokens.Native, &l.CostDecimal, &toolCalls); err != nil {
			return nil, persistErr("scan execution log", err)
		}
		if err := json.Unmarshal(toolCalls, &l.ToolCalls); err != nil {
			return nil, persistErr("unmarshal tool calls", err)
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}

// --- ReportStore ---

func (s *Store) AddReportVersion(ctx context.Context, version *maestro.ReportVersion) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return persistErr("begin add report version", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `UPDATE report_versions SET is_current = FALSE WHERE mission_id = $1`, version.MissionID); err != nil {
		return persistErr("clear current report version", err)
	}

	version.IsCurrent = true
	_, err = tx.Exec(ctx, `
		INSERT INTO report_versions (mission_id, version, title, content_markdown, is_current, revision_notes, created_at)
		VALUES ($1,$2,$3,$4,TRUE,$5,$6)`,
		version.MissionID, version.Version, version.Title, version.ContentMD, version.RevisionNotes, version.CreatedAt)
	if err != nil {
		return persistErr("insert report version", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return persistErr("commit add report version", err)
	}
	return nil
}

const reportColumns = `mission_id, version, title, content_markdown, is_current, revision_notes, created_at`

func scanReport(row pgx.Row) (*maestro.ReportVersion, error) {
	var v maestro.ReportVersion
	if err := row.Scan(&v.MissionID, &v.Version, &v.Title, &v.ContentMD, &v.IsCurrent, &v.RevisionNotes, &v.CreatedAt); err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *Store) CurrentReportVersion(ctx context.Context, missionID string) (*maestro.ReportVersion, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+reportColumns+` FROM report_versions WHERE mission_id = $1 AND is_current`, missionID)
	v, err := scanReport(row)
	if err != nil {
		if notFound(err) {
			return nil, persistErr("no current report version for mission: "+missionID, err)
		}
		return nil, persistErr("get current report version", err)
	}
	return v, nil
}

func (s *Store) ListReportVersions(ctx context.Context, missionID string) ([]*maestro.ReportVersion, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+reportColumns+` FROM report_versions WHERE mission_id = $1 ORDER BY version ASC`, missionID)
	if err != nil {
		return nil, persistErr("list report versions", err)
	}
	defer rows.Close()

	var out []*maestro.ReportVersion
	for rows.Next() {
		v, err := scanReport(rows)
		if err != nil {
			return nil, persistErr("scan report version", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func pageBounds(page store.Pagination) (limit, offset int) {
	limit = page.PageSize
	if limit <= 0 {
		limit = 1 << 30
	}
	offset = page.Page * page.PageSize
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func isUniqueViolation(err error) bool {
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
