package services

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

func TestIndexService_EnsureReady_BuildsWhenMissing(t *testing.T) {
	h := newHarness(t, textDoc("/docs/a.txt", "Alpha facts."), textDoc("/docs/b.txt", "Bravo facts."))
	ctx := context.Background()

	assert.False(t, h.index.Status().Ready)

	report, err := h.index.EnsureReady(ctx, false)
	require.NoError(t, err)
	assert.False(t, report.Loaded)
	assert.Equal(t, 2, report.Chunks)

	status := h.index.Status()
	assert.True(t, status.Ready)
	assert.Equal(t, 2, status.Chunks)
	assert.Equal(t, h.embedder.ModelName(), status.EmbeddingModel)
	assert.False(t, status.BuiltAt.IsZero())

	again, err := h.index.EnsureReady(ctx, false)
	require.NoError(t, err)
	assert.True(t, again.Loaded)
}

func TestIndexService_LoadAfterBuildReturnsSameChunks(t *testing.T) {
	h := newHarness(t, textDoc("/docs/a.txt", "Alpha facts."), textDoc("/docs/b.txt", "Bravo facts."))
	ctx := context.Background()
	_, err := h.index.Rebuild(ctx)
	require.NoError(t, err)

	built := h.index.acquire()
	require.NotNil(t, built)
	want := built.snapshot.(driven.ChunkLister).Chunks()
	built.release()

	reopened := NewIndexService(h.index.indexer, h.vectors, memory.NewTimelineStores(), h.embedder)
	t.Cleanup(func() { _ = reopened.Close() })

	report, err := reopened.EnsureReady(ctx, false)
	require.NoError(t, err)
	assert.True(t, report.Loaded)

	loaded := reopened.acquire()
	require.NotNil(t, loaded)
	defer loaded.release()
	assert.Equal(t, want, loaded.snapshot.(driven.ChunkLister).Chunks())
}

func TestIndexService_Load_Missing(t *testing.T) {
	h := newHarness(t)

	_, err := h.index.Load(context.Background())

	assert.ErrorIs(t, err, domain.ErrIndexNotFound)
}

func TestIndexService_StaleIndexIsRebuilt(t *testing.T) {
	h := newHarness(t, textDoc("/docs/a.txt", "Alpha facts."))
	ctx := context.Background()
	_, err := h.index.Rebuild(ctx)
	require.NoError(t, err)

	other := newEmbedder()
	other.model = "another-model"
	reopened := NewIndexService(h.index.indexer, h.vectors, memory.NewTimelineStores(), other)
	t.Cleanup(func() { _ = reopened.Close() })

	_, err = reopened.Load(ctx)
	require.ErrorIs(t, err, domain.ErrIndexStale)

	report, err := reopened.EnsureReady(ctx, false)
	require.NoError(t, err)
	assert.False(t, report.Loaded)
	assert.Equal(t, "another-model", reopened.Status().EmbeddingModel)
}

func TestIndexService_ForceRebuild(t *testing.T) {
	h := newHarness(t, textDoc("/docs/a.txt", "Alpha facts."))
	ctx := context.Background()
	_, err := h.index.EnsureReady(ctx, false)
	require.NoError(t, err)

	h.source.docs = append(h.source.docs, textDoc("/docs/b.txt", "Bravo facts."))
	report, err := h.index.EnsureReady(ctx, true)

	require.NoError(t, err)
	assert.False(t, report.Loaded)
	assert.Equal(t, 2, h.index.Status().Chunks)
}

func TestIndexService_ConcurrentRebuildRejected(t *testing.T) {
	h := newHarness(t)
	h.index.rebuildMu.Lock()
	defer h.index.rebuildMu.Unlock()

	_, err := h.index.Rebuild(context.Background())

	assert.ErrorIs(t, err, domain.ErrRebuildInProgress)
}

func TestIndexService_FailedRebuildKeepsPreviousGeneration(t *testing.T) {
	h := newHarness(t, textDoc("/docs/a.txt", "Alpha facts."))
	ctx := context.Background()
	_, err := h.index.Rebuild(ctx)
	require.NoError(t, err)

	h.embedder.failAll = assert.AnError
	_, err = h.index.Rebuild(ctx)
	require.ErrorIs(t, err, domain.ErrEmbeddingFailed)

	assert.True(t, h.index.Status().Ready)
	assert.Equal(t, 1, h.index.Status().Chunks)
}

// trackedSnapshot records when it is closed.
type trackedSnapshot struct {
	closed atomic.Bool
}

func (s *trackedSnapshot) Search(context.Context, []float32, int) ([]domain.ScoredChunk, error) {
	return []domain.ScoredChunk{{Chunk: domain.Chunk{ID: "old"}}}, nil
}

func (s *trackedSnapshot) Meta() driven.IndexMeta { return driven.IndexMeta{ChunkCount: 1} }

func (s *trackedSnapshot) Close() error {
	s.closed.Store(true)
	return nil
}

func TestIndexService_SwapDoesNotDisturbInFlightReader(t *testing.T) {
	h := newHarness(t, textDoc("/docs/a.txt", "Alpha facts."))
	ctx := context.Background()

	old := &trackedSnapshot{}
	h.index.publish(newGeneration(old, memory.NewTimelineStore()))

	reader := h.index.acquire()
	require.NotNil(t, reader)

	_, err := h.index.Rebuild(ctx)
	require.NoError(t, err)

	// The reader still holds the old generation and can search it.
	assert.False(t, old.closed.Load())
	hits, err := reader.snapshot.Search(ctx, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, "old", hits[0].Chunk.ID)

	reader.release()
	assert.True(t, old.closed.Load())

	current := h.index.acquire()
	require.NotNil(t, current)
	defer current.release()
	assert.NotSame(t, reader, current)
}

func TestIndexService_CloseWithoutIndex(t *testing.T) {
	h := newHarness(t)
	assert.NoError(t, h.index.Close())
	assert.Nil(t, h.index.acquire())
}
