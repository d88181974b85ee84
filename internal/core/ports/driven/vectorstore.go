package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// VectorStore persists one generation of chunk vectors and opens it for search.
type VectorStore interface {
	// Build replaces any persisted index with chunks, which must carry
	// embeddings. The old index stays readable until Build succeeds.
	Build(ctx context.Context, chunks []domain.Chunk, meta IndexMeta) (IndexSnapshot, error)

	// Load opens the persisted index.
	// Returns domain.ErrIndexNotFound when none exists.
	Load(ctx context.Context) (IndexSnapshot, error)

	// Close releases resources.
	Close() error
}

// IndexSnapshot is an immutable, searchable index generation.
// It is safe for concurrent searches.
type IndexSnapshot interface {
	// Search returns at most k chunks ordered by descending similarity.
	Search(ctx context.Context, vector []float32, k int) ([]domain.ScoredChunk, error)

	// Meta describes how the snapshot was built.
	Meta() IndexMeta

	// Close releases the snapshot's resources.
	Close() error
}

// ChunkLister is implemented by snapshots that can enumerate their chunks.
type ChunkLister interface {
	Chunks() []domain.Chunk
}

// IndexMeta records the embedding setup an index was built with.
type IndexMeta struct {
	EmbeddingModel string
	Dimensions     int
	ChunkCount     int
	BuiltAt        time.Time
}
