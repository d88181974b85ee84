package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

func TestIndex_WriteThenRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index", "chunks.db")
	ctx := context.Background()
	built := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	chunks := []domain.Chunk{
		{ID: "b", DocumentID: "d2", SourceFile: "b.txt", Content: "beta", Offset: 0, Embedding: []float32{0, 1}},
		{ID: "a2", DocumentID: "d1", SourceFile: "a.pdf", Content: "second", Offset: 40, Page: 2, Position: 1, Embedding: []float32{0.5, 0.5}},
		{ID: "a1", DocumentID: "d1", SourceFile: "a.pdf", Content: "first", Offset: 0, Page: 1, Embedding: []float32{1, 0},
			Metadata: map[string]any{"kind": "text"}},
	}
	require.NoError(t, WriteIndex(ctx, path, chunks, driven.IndexMeta{EmbeddingModel: "hashing-v1", Dimensions: 2, BuiltAt: built}))

	got, meta, err := ReadIndex(ctx, path)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, []string{"a1", "a2", "b"}, []string{got[0].ID, got[1].ID, got[2].ID})
	assert.Equal(t, []float32{1, 0}, got[0].Embedding)
	assert.Equal(t, 2, got[1].Page)
	assert.Equal(t, "text", got[0].Metadata["kind"])

	assert.Equal(t, "hashing-v1", meta.EmbeddingModel)
	assert.Equal(t, 2, meta.Dimensions)
	assert.Equal(t, 3, meta.ChunkCount)
	assert.True(t, meta.BuiltAt.Equal(built))
}

func TestIndex_RewriteReplacesContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chunks.db")
	ctx := context.Background()

	require.NoError(t, WriteIndex(ctx, path, []domain.Chunk{{ID: "old", SourceFile: "x", Content: "old"}}, driven.IndexMeta{}))
	require.NoError(t, WriteIndex(ctx, path, []domain.Chunk{{ID: "new", SourceFile: "x", Content: "new"}}, driven.IndexMeta{}))

	got, _, err := ReadIndex(ctx, path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].ID)
}

func TestIndex_ReadMissing(t *testing.T) {
	_, _, err := ReadIndex(context.Background(), filepath.Join(t.TempDir(), "missing.db"))
	assert.ErrorIs(t, err, domain.ErrIndexNotFound)
}
