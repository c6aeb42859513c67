// Package qdrant implements an alternative dense-vector ANN backend for the
// Hybrid RAG index, grounded on the teacher's
// ai/providers/vectorstores/qdrant.VectorStore: collection lifecycle,
// point upsert, and filtered similarity search over github.com/qdrant/go-client.
// Unlike the teacher's store, which owns embedding and the full document
// lifecycle, this adapter only does dense ANN — sparse search and durable
// chunk metadata remain the job of internal/store.Store. A production
// deployment pairs this index with internal/store/postgres for everything
// except the nearest-neighbor search itself.
package qdrant

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	"github.com/murtaza-nasir/maestro/internal/maestro"
	"github.com/murtaza-nasir/maestro/internal/store"
)

const (
	payloadDocumentID = "document_id"
	payloadChunkIndex = "chunk_index"
	payloadText       = "text"
	payloadAuthor     = "author"
	payloadYear       = "year"
	payloadTitle      = "title"
)

// Index is a Qdrant-backed dense ANN index over Chunks.
type Index struct {
	client     *qdrant.Client
	collection string
	dimensions int
}

// Config configures a new Index.
type Config struct {
	Client           *qdrant.Client
	CollectionName   string
	Dimensions       int
	InitializeSchema bool
}

// New connects an Index to an existing (or, if InitializeSchema is set,
// newly created) Qdrant collection.
func New(ctx context.Context, cfg Config) (*Index, error) {
	if cfg.Client == nil {
		return nil, maestro.NewError(maestro.ErrPersistence, "qdrant: client is required", nil)
	}
	if cfg.CollectionName == "" {
		return nil, maestro.NewError(maestro.ErrPersistence, "qdrant: collection name is required", nil)
	}

	idx := &Index{client: cfg.Client, collection: cfg.CollectionName, dimensions: cfg.Dimensions}
	if cfg.InitializeSchema {
		if err := idx.ensureCollection(ctx); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

func (idx *Index) ensureCollection(ctx context.Context) error {
	exists, err := idx.client.CollectionExists(ctx, idx.collection)
	if err != nil {
		return maestro.NewError(maestro.ErrPersistence, "qdrant: check collection exists", err)
	}
	if exists {
		return nil
	}
	err = idx.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: idx.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(idx.dimensions),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return maestro.NewError(maestro.ErrPersistence, "qdrant: create collection "+idx.collection, err)
	}
	return nil
}

// Upsert writes chunks' dense vectors and enough payload to reconstruct a
// maestro.Chunk on retrieval.
func (idx *Index) Upsert(ctx context.Context, chunks []*maestro.Chunk) error {
	points := make([]*qdrant.PointStruct, 0, len(chunks))
	for _, c := range chunks {
		payload, err := qdrant.TryValueMap(map[string]any{
			payloadDocumentID: c.DocumentID,
			payloadChunkIndex: c.Index,
			payloadText:       c.Text,
			payloadAuthor:     c.Metadata.Author,
			payloadYear:       c.Metadata.Year,
			payloadTitle:      c.Metadata.Title,
		})
		if err != nil {
			return maestro.NewError(maestro.ErrPersistence, "qdrant: build payload for chunk "+c.ID, err)
		}
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(c.ID),
			Vectors: qdrant.NewVectors(c.Dense...),
			Payload: payload,
		})
	}

	_, err := idx.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: idx.collection,
		Points:         points,
	})
	if err != nil {
		return maestro.NewError(maestro.ErrPersistence, fmt.Sprintf("qdrant: upsert %d points", len(points)), err)
	}
	return nil
}

// DeleteDocument removes every point belonging to documentID.
func (idx *Index) DeleteDocument(ctx context.Context, documentID string) error {
	_, err := idx.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: idx.collection,
		Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
			Must: []*qdrant.Condition{qdrant.NewMatchKeyword(payloadDocumentID, documentID)},
		}),
	})
	if err != nil {
		return maestro.NewError(maestro.ErrPersistence, "qdrant: delete document "+documentID, err)
	}
	return nil
}

// SearchDense implements the dense half of store.ChunkStore against Qdrant's
// native similarity search instead of the application-level cosine loop
// internal/store/{memory,postgres} use.
func (idx *Index) SearchDense(ctx context.Context, query []float32, filter store.ChunkFilter, k int) ([]store.ScoredChunk, error) {
	queryPoints := &qdrant.QueryPoints{
		CollectionName: idx.collection,
		Query:          qdrant.NewQuery(query...),
		Limit:          qdrantLimit(k),
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if must := buildFilter(filter); must != nil {
		queryPoints.Filter = must
	}

	scoredPoints, err := idx.client.Query(ctx, queryPoints)
	if err != nil {
		return nil, maestro.NewError(maestro.ErrPersistence, "qdrant: query collection "+idx.collection, err)
	}

	out := make([]store.ScoredChunk, 0, len(scoredPoints))
	for _, p := range scoredPoints {
		c, err := chunkFromPoint(p)
		if err != nil {
			return nil, err
		}
		out = append(out, store.ScoredChunk{Chunk: c, Score: float64(p.GetScore())})
	}
	return out, nil
}

func qdrantLimit(k int) *uint64 {
	v := uint64(k)
	return &v
}

func buildFilter(filter store.ChunkFilter) *qdrant.Filter {
	var must []*qdrant.Condition
	for _, id := range filter.DocumentIDs {
		must = append(must, qdrant.NewMatchKeyword(payloadDocumentID, id))
	}
	if filter.Author != "" {
		must = append(must, qdrant.NewMatchKeyword(payloadAuthor, filter.Author))
	}
	if filter.YearMin != 0 || filter.YearMax != 0 {
		r := &qdrant.Range{}
		if filter.YearMin != 0 {
			min := float64(filter.YearMin)
			r.Gte = &min
		}
		if filter.YearMax != 0 {
			max := float64(filter.YearMax)
			r.Lte = &max
		}
		must = append(must, qdrant.NewRange(payloadYear, r))
	}
	if len(must) == 0 {
		return nil
	}
	return &qdrant.Filter{Must: must}
}

// chunkFromPoint reconstructs a Chunk from payload alone; Dense is left
// nil since the query didn't request WithVectors — the retriever only
// needs dense_cos_sim from Score, already computed by Qdrant itself.
func chunkFromPoint(p *qdrant.ScoredPoint) (*maestro.Chunk, error) {
	c := &maestro.Chunk{}
	if id := p.GetId(); id != nil {
		c.ID = id.GetUuid()
	}
	payload := p.GetPayload()
	if payload == nil {
		return c, nil
	}
	if v, ok := payload[payloadDocumentID]; ok {
		c.DocumentID = v.GetStringValue()
	}
	if v, ok := payload[payloadChunkIndex]; ok {
		c.Index = int(v.GetIntegerValue())
	}
	if v, ok := payload[payloadText]; ok {
		c.Text = v.GetStringValue()
	}
	if v, ok := payload[payloadAuthor]; ok {
		c.Metadata.Author = v.GetStringValue()
	}
	if v, ok := payload[payloadYear]; ok {
		c.Metadata.Year = int(v.GetIntegerValue())
	}
	if v, ok := payload[payloadTitle]; ok {
		c.Metadata.Title = v.GetStringValue()
	}
	return c, nil
}
