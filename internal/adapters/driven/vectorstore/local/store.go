// Package local provides a file-backed retrieval index searched in memory.
package local

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"sort"

	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// FileName is the index file created inside the index directory.
const FileName = "index.db"

// Ensure interfaces are implemented.
var (
	_ driven.VectorStore   = (*Store)(nil)
	_ driven.IndexSnapshot = (*Snapshot)(nil)
	_ driven.ChunkLister   = (*Snapshot)(nil)
)

// Store persists index generations under one directory.
type Store struct {
	path string
}

// New returns a store that keeps its index in dir.
func New(dir string) *Store {
	return &Store{path: filepath.Join(dir, FileName)}
}

// Path returns the index file path.
func (s *Store) Path() string {
	return s.path
}

// Build writes chunks to a fresh index file, swaps it in and returns a
// snapshot over the new contents.
func (s *Store) Build(ctx context.Context, chunks []domain.Chunk, meta driven.IndexMeta) (driven.IndexSnapshot, error) {
	for _, c := range chunks {
		if len(c.Embedding) == 0 {
			return nil, fmt.Errorf("chunk %s has no embedding: %w", c.ID, domain.ErrInvalidInput)
		}
		if meta.Dimensions > 0 && len(c.Embedding) != meta.Dimensions {
			return nil, fmt.Errorf("chunk %s has %d dimensions, want %d: %w",
				c.ID, len(c.Embedding), meta.Dimensions, domain.ErrInvalidInput)
		}
	}
	meta.ChunkCount = len(chunks)
	if err := sqlite.WriteIndex(ctx, s.path, chunks, meta); err != nil {
		return nil, fmt.Errorf("writing index: %w", err)
	}
	return NewSnapshot(chunks, meta), nil
}

// Load reads the persisted index into memory.
func (s *Store) Load(ctx context.Context) (driven.IndexSnapshot, error) {
	chunks, meta, err := sqlite.ReadIndex(ctx, s.path)
	if err != nil {
		return nil, err
	}
	return NewSnapshot(chunks, meta), nil
}

// Close is a no-op; snapshots own their memory.
func (s *Store) Close() error {
	return nil
}

// Snapshot is an immutable in-memory index generation.
type Snapshot struct {
	chunks []domain.Chunk
	norms  []float64
	meta   driven.IndexMeta
}

// NewSnapshot builds a searchable snapshot. Chunks are not copied and must
// not be modified afterwards.
func NewSnapshot(chunks []domain.Chunk, meta driven.IndexMeta) *Snapshot {
	norms := make([]float64, len(chunks))
	for i, c := range chunks {
		norms[i] = norm(c.Embedding)
	}
	meta.ChunkCount = len(chunks)
	return &Snapshot{chunks: chunks, norms: norms, meta: meta}
}

// Search returns at most k chunks by descending cosine similarity.
// Ties keep index order.
func (s *Snapshot) Search(ctx context.Context, vector []float32, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 || len(s.chunks) == 0 {
		return nil, nil
	}
	if s.meta.Dimensions > 0 && len(vector) != s.meta.Dimensions {
		return nil, fmt.Errorf("query has %d dimensions, index has %d: %w",
			len(vector), s.meta.Dimensions, domain.ErrIndexStale)
	}
	qn := norm(vector)
	if qn == 0 {
		return nil, nil
	}

	hits := make([]domain.ScoredChunk, 0, len(s.chunks))
	for i, c := range s.chunks {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if s.norms[i] == 0 {
			continue
		}
		hits = append(hits, domain.ScoredChunk{
			Chunk: c,
			Score: dot(vector, c.Embedding) / (qn * s.norms[i]),
		})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Meta describes how the snapshot was built.
func (s *Snapshot) Meta() driven.IndexMeta {
	return s.meta
}

// Chunks returns every chunk in the snapshot.
func (s *Snapshot) Chunks() []domain.Chunk {
	return s.chunks
}

// Close is a no-op.
func (s *Snapshot) Close() error {
	return nil
}

func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func norm(v []float32) float64 {
	return math.Sqrt(dot(v, v))
}
