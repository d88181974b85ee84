package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure IndexService implements the interface.
var _ driving.IndexService = (*IndexService)(nil)

// generation pairs a vector snapshot with the structured store built
// alongside it. It is closed once it has been replaced and the last
// reader has released it.
type generation struct {
	snapshot driven.IndexSnapshot
	timeline driven.TimelineStore

	// refs counts the service's own reference plus one per reader.
	refs      atomic.Int64
	closeOnce sync.Once
}

func newGeneration(snapshot driven.IndexSnapshot, timeline driven.TimelineStore) *generation {
	g := &generation{snapshot: snapshot, timeline: timeline}
	g.refs.Store(1)
	return g
}

// tryAcquire takes a reader reference unless the generation is already closing.
func (g *generation) tryAcquire() bool {
	for {
		n := g.refs.Load()
		if n == 0 {
			return false
		}
		if g.refs.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

func (g *generation) release() {
	if g.refs.Add(-1) == 0 {
		g.closeOnce.Do(func() {
			if err := errors.Join(g.snapshot.Close(), g.timeline.Close()); err != nil {
				logger.Warn("Closing retired index: %v", err)
			}
		})
	}
}

// IndexService owns the active index generation. Readers hold the
// generation they started with; rebuilds publish a new one atomically.
type IndexService struct {
	indexer   *Indexer
	vectors   driven.VectorStore
	timelines driven.TimelineStores
	embedder  driven.EmbeddingService
	now       func() time.Time

	current   atomic.Pointer[generation]
	rebuildMu sync.Mutex
}

// NewIndexService creates an index service. Nothing is loaded until
// EnsureReady or Rebuild is called.
func NewIndexService(
	indexer *Indexer,
	vectors driven.VectorStore,
	timelines driven.TimelineStores,
	embedder driven.EmbeddingService,
) *IndexService {
	return &IndexService{
		indexer:   indexer,
		vectors:   vectors,
		timelines: timelines,
		embedder:  embedder,
		now:       time.Now,
	}
}

// EnsureReady loads the persisted index, rebuilding it when it is missing
// or was built with a different embedding model. force always rebuilds.
func (s *IndexService) EnsureReady(ctx context.Context, force bool) (driving.IndexReport, error) {
	if force {
		return s.Rebuild(ctx)
	}
	if g := s.current.Load(); g != nil {
		return driving.IndexReport{Loaded: true, Chunks: g.snapshot.Meta().ChunkCount}, nil
	}

	report, err := s.Load(ctx)
	switch {
	case err == nil:
		return report, nil
	case errors.Is(err, domain.ErrIndexNotFound):
		logger.Info("No index found, building")
	case errors.Is(err, domain.ErrIndexStale):
		logger.Info("Index is stale (%v), rebuilding", err)
	default:
		return driving.IndexReport{}, err
	}
	return s.Rebuild(ctx)
}

// Load opens the persisted index and publishes it. It returns
// domain.ErrIndexNotFound when nothing is persisted and domain.ErrIndexStale
// when the index does not match the configured embedding model.
func (s *IndexService) Load(ctx context.Context) (driving.IndexReport, error) {
	start := s.now()

	snapshot, err := s.vectors.Load(ctx)
	if err != nil {
		return driving.IndexReport{}, err
	}
	meta := snapshot.Meta()
	if meta.EmbeddingModel != s.embedder.ModelName() || meta.Dimensions != s.embedder.Dimensions() {
		_ = snapshot.Close()
		return driving.IndexReport{}, fmt.Errorf("%w: built with %s/%d, configured %s/%d", domain.ErrIndexStale,
			meta.EmbeddingModel, meta.Dimensions, s.embedder.ModelName(), s.embedder.Dimensions())
	}

	timeline, err := s.timelines.Open()
	if err != nil {
		_ = snapshot.Close()
		return driving.IndexReport{}, fmt.Errorf("open structured store: %w", err)
	}

	s.publish(newGeneration(snapshot, timeline))
	logger.Info("Loaded index: %d chunks built %s", meta.ChunkCount, meta.BuiltAt.Format(time.RFC3339))
	return driving.IndexReport{Loaded: true, Chunks: meta.ChunkCount, Duration: s.now().Sub(start)}, nil
}

// Rebuild indexes the whole document folder and swaps the result in.
// Searches running against the old generation finish undisturbed. A second
// concurrent call fails fast with domain.ErrRebuildInProgress.
func (s *IndexService) Rebuild(ctx context.Context) (driving.IndexReport, error) {
	if !s.rebuildMu.TryLock() {
		return driving.IndexReport{}, domain.ErrRebuildInProgress
	}
	defer s.rebuildMu.Unlock()

	start := s.now()

	build, err := s.timelines.NewBuild()
	if err != nil {
		return driving.IndexReport{}, fmt.Errorf("start structured store build: %w", err)
	}

	run, err := s.indexer.Run(ctx, build)
	if err != nil {
		if derr := build.Discard(); derr != nil {
			logger.Warn("Discarding structured store build: %v", derr)
		}
		return driving.IndexReport{}, err
	}

	meta := driven.IndexMeta{
		EmbeddingModel: s.embedder.ModelName(),
		Dimensions:     s.embedder.Dimensions(),
		ChunkCount:     len(run.Chunks),
		BuiltAt:        s.now().UTC(),
	}
	snapshot, err := s.vectors.Build(ctx, run.Chunks, meta)
	if err != nil {
		if derr := build.Discard(); derr != nil {
			logger.Warn("Discarding structured store build: %v", derr)
		}
		return driving.IndexReport{}, fmt.Errorf("build index: %w", err)
	}

	timeline, err := build.Publish()
	if err != nil {
		_ = snapshot.Close()
		return driving.IndexReport{}, fmt.Errorf("publish structured store: %w", err)
	}

	s.publish(newGeneration(snapshot, timeline))

	report := run.Report
	report.Duration = s.now().Sub(start)
	logger.Info("Index rebuilt in %s", report.Duration.Round(time.Millisecond))
	return report, nil
}

// Status describes the active index.
func (s *IndexService) Status() driving.IndexStatus {
	g := s.acquire()
	if g == nil {
		return driving.IndexStatus{}
	}
	defer g.release()

	meta := g.snapshot.Meta()
	return driving.IndexStatus{
		Ready:          true,
		Chunks:         meta.ChunkCount,
		EmbeddingModel: meta.EmbeddingModel,
		BuiltAt:        meta.BuiltAt,
	}
}

// Close retires the active generation. In-flight readers keep it open
// until they release it.
func (s *IndexService) Close() error {
	if old := s.current.Swap(nil); old != nil {
		old.release()
	}
	return s.vectors.Close()
}

func (s *IndexService) publish(g *generation) {
	if old := s.current.Swap(g); old != nil {
		old.release()
	}
}

// acquire returns the active generation with a reader reference held,
// or nil when no index is loaded. Callers must release it.
func (s *IndexService) acquire() *generation {
	for {
		g := s.current.Load()
		if g == nil {
			return nil
		}
		if g.tryAcquire() {
			return g
		}
		// Lost a race with a swap; the replacement is already published.
	}
}

// withGeneration runs fn against the active generation.
func (s *IndexService) withGeneration(fn func(g *generation) error) error {
	g := s.acquire()
	if g == nil {
		return fmt.Errorf("%w: run `docqa index` first", domain.ErrIndexNotFound)
	}
	defer g.release()
	return fn(g)
}
