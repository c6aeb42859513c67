package qdrant

import (
	"context"

	"github.com/murtaza-nasir/maestro/internal/maestro"
	"github.com/murtaza-nasir/maestro/internal/store"
)

// denseBackedStore delegates everything to a base store.Store (typically
// internal/store/postgres or internal/store/memory) except dense chunk
// writes and dense similarity search, which run against an Index instead of
// the base store's own application-level cosine loop.
type denseBackedStore struct {
	store.Store
	idx *Index
}

// Compose pairs base with idx so dense similarity search runs against
// Qdrant while everything else — sparse search, chunk text, documents,
// missions, notes, logs, report versions — still goes through base.
func Compose(base store.Store, idx *Index) store.Store {
	return &denseBackedStore{Store: base, idx: idx}
}

func (d *denseBackedStore) ReplaceChunks(ctx context.Context, documentID string, chunks []*maestro.Chunk) error {
	if err := d.Store.ReplaceChunks(ctx, documentID, chunks); err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}
	return d.idx.Upsert(ctx, chunks)
}

func (d *denseBackedStore) DeleteChunksForDocument(ctx context.Context, documentID string) error {
	if err := d.Store.DeleteChunksForDocument(ctx, documentID); err != nil {
		return err
	}
	return d.idx.DeleteDocument(ctx, documentID)
}

func (d *denseBackedStore) SearchDense(ctx context.Context, query []float32, filter store.ChunkFilter, k int) ([]store.ScoredChunk, error) {
	return d.idx.SearchDense(ctx, query, filter, k)
}
