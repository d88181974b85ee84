package driving

import (
	"context"
	"time"
)

// IndexService owns the retrieval index and the timeline store lifecycle.
type IndexService interface {
	// EnsureReady loads the persisted index, building it when absent or
	// stale. force always rebuilds.
	EnsureReady(ctx context.Context, force bool) (IndexReport, error)

	// Rebuild runs a full rebuild and atomically swaps it in.
	Rebuild(ctx context.Context) (IndexReport, error)

	// Status describes the active index.
	Status() IndexStatus
}

// IndexReport summarises one build or load.
type IndexReport struct {
	// Loaded is true when an existing index was reused.
	Loaded bool

	Files      int
	Skipped    int
	Failed     int
	Chunks     int
	Milestones int
	Spans      int
	Statuses   int
	Warnings   int
	Duration   time.Duration

	// Errors holds per-file failures. They never abort the build.
	Errors []error
}

// IndexStatus describes the active index.
type IndexStatus struct {
	Ready          bool
	Chunks         int
	EmbeddingModel string
	BuiltAt        time.Time
}
