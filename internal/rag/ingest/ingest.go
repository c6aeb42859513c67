// Package ingest implements the nine-step Hybrid RAG ingestion pipeline
// (spec.md §4.3): validate, dedup, persist raw, convert, extract metadata,
// chunk, embed, store, finalize. Each step runs as a Stage over a shared
// *ingestJob, checking the job's cancel context before doing work, mirroring
// the stage-function shape the mission controller's phase loop uses in
// internal/mission.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/murtaza-nasir/maestro/internal/embedding"
	"github.com/murtaza-nasir/maestro/internal/events"
	"github.com/murtaza-nasir/maestro/internal/llm"
	"github.com/murtaza-nasir/maestro/internal/maestro"
	"github.com/murtaza-nasir/maestro/internal/rag/ingest/chunk"
	"github.com/murtaza-nasir/maestro/internal/rag/ingest/convert"
	"github.com/murtaza-nasir/maestro/internal/store"
)

// Config bounds the pipeline's resource and quality knobs.
type Config struct {
	StorageRoot             string
	MaxDocumentSizeBytes    int64
	EmbeddingBatchSize      int
	MetadataExtractionChars int
}

// Pipeline wires the ingestion pipeline's external dependencies.
type Pipeline struct {
	cfg       Config
	documents store.DocumentStore
	chunks    store.ChunkStore
	embedder  embedding.Model
	chat      llm.Chat
	hub       *events.Hub
}

// New builds a Pipeline. hub may be nil; when set, a mission-agnostic
// document_progress-style event is published when a document is finalized
// and when it is marked failed, not after each step.
func New(cfg Config, documents store.DocumentStore, chunks store.ChunkStore, embedder embedding.Model, chat llm.Chat, hub *events.Hub) *Pipeline {
	if cfg.EmbeddingBatchSize <= 0 {
		cfg.EmbeddingBatchSize = 32
	}
	if cfg.MetadataExtractionChars <= 0 {
		cfg.MetadataExtractionChars = 4000
	}
	return &Pipeline{cfg: cfg, documents: documents, chunks: chunks, embedder: embedder, chat: chat, hub: hub}
}

// IngestRequest is the input to a new ingestion run.
type IngestRequest struct {
	Owner    string
	GroupID  string
	Filename string
	Format   maestro.DocumentFormat
	Raw      []byte
}

type ingestJob struct {
	req IngestRequest
	doc *maestro.Document
	md  string
}

// Ingest runs all nine pipeline steps for a newly uploaded file. A
// duplicate-content upload returns a nil Document and a
// maestro.ErrDuplicateDocument error whose detail is the existing
// document's id, per step 2.
func (p *Pipeline) Ingest(ctx context.Context, req IngestRequest) (*maestro.Document, error) {
	job := &ingestJob{req: req}

	stages := []func(context.Context, *ingestJob) error{
		p.validate,
		p.dedup,
		p.persistRaw,
		p.convertToMarkdown,
		p.extractMetadata,
		p.chunkAndEmbed,
		p.finalize,
	}

	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			return p.failCancelled(ctx, job)
		}
		if err := stage(ctx, job); err != nil {
			if job.doc != nil && !maestro.Is(err, maestro.ErrDuplicateDocument) {
				p.markFailed(ctx, job, err)
			}
			return nil, err
		}
	}
	return job.doc, nil
}

// ReembedDocument reruns steps 6-9 (chunk, embed, store, finalize) for an
// existing Document, per "force_reembed ... reruns steps 6-9 only".
func (p *Pipeline) ReembedDocument(ctx context.Context, docID string) error {
	doc, err := p.documents.GetDocument(ctx, docID)
	if err != nil {
		return err
	}
	job := &ingestJob{doc: doc, md: readMarkdown(doc.MarkdownPath)}

	for _, stage := range []func(context.Context, *ingestJob) error{p.chunkAndEmbed, p.finalize} {
		if err := ctx.Err(); err != nil {
			return ctx.Err()
		}
		if err := stage(ctx, job); err != nil {
			p.markFailed(ctx, job, err)
			return err
		}
	}
	return nil
}

func readMarkdown(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(data)
}

// --- step 1: validate ---

func (p *Pipeline) validate(_ context.Context, job *ingestJob) error {
	switch job.req.Format {
	case maestro.FormatPDF, maestro.FormatDOCX, maestro.FormatMD, maestro.FormatTXT:
	default:
		return maestro.NewError(maestro.ErrIngestionFailed, "unsupported format: "+string(job.req.Format), nil)
	}
	if p.cfg.MaxDocumentSizeBytes > 0 && int64(len(job.req.Raw)) > p.cfg.MaxDocumentSizeBytes {
		return maestro.NewError(maestro.ErrIngestionFailed, "document exceeds max_document_size_bytes", nil)
	}
	return nil
}

// --- step 2: dedup ---

func contentHash(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

func (p *Pipeline) dedup(ctx context.Context, job *ingestJob) error {
	hash := contentHash(job.req.Raw)
	existing, err := p.documents.FindDocumentByHash(ctx, job.req.Owner, hash)
	if err != nil {
		return err
	}
	if existing != nil {
		return maestro.NewError(maestro.ErrDuplicateDocument, existing.ID, nil)
	}
	job.doc = &maestro.Document{
		ID:          uuid.NewString(),
		Owner:       job.req.Owner,
		Filename:    job.req.Filename,
		Format:      job.req.Format,
		ContentHash: hash,
		GroupID:     job.req.GroupID,
		Status:      maestro.DocumentPending,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	return nil
}

// --- step 3: persist raw ---

func (p *Pipeline) persistRaw(ctx context.Context, job *ingestJob) error {
	hash := job.doc.ContentHash
	rawPath := filepath.Join(p.cfg.StorageRoot, "raw", hash[:2], hash+extensionFor(job.doc.Format))
	if err := os.MkdirAll(filepath.Dir(rawPath), 0o755); err != nil {
		return maestro.NewError(maestro.ErrIngestionFailed, "create raw storage dir", err)
	}
	if err := os.WriteFile(rawPath, job.req.Raw, 0o644); err != nil {
		return maestro.NewError(maestro.ErrIngestionFailed, "write raw blob", err)
	}

	job.doc.RawPath = rawPath
	job.doc.Status = maestro.DocumentProcessing
	return p.documents.CreateDocument(ctx, job.doc)
}

func extensionFor(format maestro.DocumentFormat) string {
	return "." + string(format)
}

// --- step 4: convert ---

func (p *Pipeline) convertToMarkdown(ctx context.Context, job *ingestJob) error {
	converter, err := convert.ForFormat(job.doc.Format)
	if err != nil {
		return err
	}
	md, err := converter.Convert(ctx, job.doc.RawPath)
	if err != nil {
		return err
	}
	job.md = md

	mdPath := job.doc.RawPath + ".md"
	if err := os.WriteFile(mdPath, []byte(md), 0o644); err != nil {
		return maestro.NewError(maestro.ErrIngestionFailed, "write markdown", err)
	}
	job.doc.MarkdownPath = mdPath
	return p.documents.UpdateDocument(ctx, job.doc)
}

// --- step 5: metadata extraction ---

const metadataSchema = `{
	"type": "object",
	"properties": {
		"title": {"type": "string"},
		"authors": {"type": "array", "items": {"type": "string"}},
		"year": {"type": "integer"},
		"abstract": {"type": "string"},
		"keywords": {"type": "array", "items": {"type": "string"}}
	}
}`

func (p *Pipeline) extractMetadata(ctx context.Context, job *ingestJob) error {
	if p.chat == nil {
		return p.documents.UpdateDocument(ctx, job.doc)
	}

	preview := job.md
	if len(preview) > p.cfg.MetadataExtractionChars {
		preview = preview[:p.cfg.MetadataExtractionChars]
	}

	completion, err := p.chat.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: "Extract bibliographic metadata as JSON. Leave fields blank if unknown."},
		{Role: llm.RoleUser, Content: preview},
	}, llm.TierFast, []byte(metadataSchema))
	if err != nil {
		// Metadata extraction is best-effort (spec.md §4.3 step 5, "tolerate
		// missing fields"); a provider failure here doesn't fail ingestion.
		return p.documents.UpdateDocument(ctx, job.doc)
	}

	var meta maestro.DocumentMetadata
	if err := json.Unmarshal([]byte(completion.Content), &meta); err == nil {
		job.doc.Metadata = meta
	}
	return p.documents.UpdateDocument(ctx, job.doc)
}

// --- steps 6-7: chunk + embed ---

func (p *Pipeline) chunkAndEmbed(ctx context.Context, job *ingestJob) error {
	paragraphs := chunk.Split(job.md)
	chunks := make([]*maestro.Chunk, 0, len(paragraphs))

	for start := 0; start < len(paragraphs); start += p.cfg.EmbeddingBatchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := start + p.cfg.EmbeddingBatchSize
		if end > len(paragraphs) {
			end = len(paragraphs)
		}
		batch := paragraphs[start:end]

		vectors, err := p.embedder.Embed(ctx, batch, embedding.ModeDocument)
		if err != nil {
			return err
		}
		for i, text := range batch {
			chunks = append(chunks, &maestro.Chunk{
				ID:         uuid.NewString(),
				DocumentID: job.doc.ID,
				Index:      start + i,
				Text:       text,
				Dense:      vectors[i].Dense,
				Sparse:     vectors[i].Sparse,
				Metadata: maestro.ChunkMetadata{
					Author: firstAuthor(job.doc.Metadata.Authors),
					Year:   job.doc.Metadata.Year,
					Title:  job.doc.Metadata.Title,
				},
			})
		}
	}

	// --- step 8: store ---
	if err := p.chunks.ReplaceChunks(ctx, job.doc.ID, chunks); err != nil {
		return maestro.NewError(maestro.ErrIngestionFailed, "store chunks", err)
	}
	return nil
}

func firstAuthor(authors []string) string {
	if len(authors) == 0 {
		return ""
	}
	return authors[0]
}

// --- step 9: finalize ---

func (p *Pipeline) finalize(ctx context.Context, job *ingestJob) error {
	job.doc.Status = maestro.DocumentCompleted
	job.doc.ProcessingError = ""
	job.doc.UpdatedAt = time.Now()
	if err := p.documents.UpdateDocument(ctx, job.doc); err != nil {
		return err
	}
	if p.hub != nil {
		p.hub.Publish(events.TypeDocumentProgress, map[string]any{"document_id": job.doc.ID, "percent": 100})
	}
	return nil
}

func (p *Pipeline) markFailed(ctx context.Context, job *ingestJob, cause error) {
	job.doc.Status = maestro.DocumentFailed
	job.doc.ProcessingError = fmt.Sprintf("%v", cause)
	job.doc.UpdatedAt = time.Now()
	_ = p.documents.UpdateDocument(ctx, job.doc)
	if p.hub != nil {
		p.hub.Publish(events.TypeDocumentProgress, map[string]any{"document_id": job.doc.ID, "error": job.doc.ProcessingError})
	}
}

func (p *Pipeline) failCancelled(ctx context.Context, job *ingestJob) (*maestro.Document, error) {
	err := maestro.NewError(maestro.ErrCancelled, "ingestion cancelled", ctx.Err())
	if job.doc != nil {
		p.markFailed(context.Background(), job, err)
	}
	return nil, err
}
