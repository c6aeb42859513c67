// Package embedding defines MAESTRO's dense+sparse embedding capability.
// internal/embedding/openai is the production adapter; the hybrid retriever
// and ingestion pipeline depend only on the Model interface.
package embedding

import (
	"context"

	"github.com/murtaza-nasir/maestro/internal/maestro"
)

// Mode distinguishes how a batch is embedded, since some providers use
// asymmetric query/document embeddings.
type Mode string

const (
	ModeDocument Mode = "document"
	ModeQuery    Mode = "query"
)

// Vector is one embedded text's dense and sparse representation. Sparse may
// be nil when the adapter doesn't produce a sparse signal on its own (the
// ingestion pipeline's term-frequency pass fills it in separately, per §4.2).
type Vector struct {
	Dense  []float32
	Sparse maestro.SparseVector
}

// Model is the capability interface every RAG component depends on.
type Model interface {
	Embed(ctx context.Context, texts []string, mode Mode) ([]Vector, error)
	Dimensions() int
}
