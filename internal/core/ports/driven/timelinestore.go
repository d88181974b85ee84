package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// TimelineStore persists extracted timeline records.
// Inserts append; a rebuild clears records for re-indexed files first.
type TimelineStore interface {
	// AddMilestones appends milestone records.
	AddMilestones(ctx context.Context, records []domain.MilestoneRecord) error

	// AddSpans appends span records.
	AddSpans(ctx context.Context, records []domain.SpanRecord) error

	// AddStatuses appends status card records.
	AddStatuses(ctx context.Context, records []domain.StatusRecord) error

	// DeleteBySource removes every record from one source file.
	DeleteBySource(ctx context.Context, sourceFile string) error

	// Reset removes every record.
	Reset(ctx context.Context) error

	// Milestones returns milestones matching filter, ordered by date, then source and slide.
	Milestones(ctx context.Context, filter domain.TimelineFilter) ([]domain.MilestoneRecord, error)

	// Spans returns spans matching filter, ordered by start date, then source and slide.
	Spans(ctx context.Context, filter domain.TimelineFilter) ([]domain.SpanRecord, error)

	// Statuses returns status cards matching filter, ordered by area.
	Statuses(ctx context.Context, filter domain.TimelineFilter) ([]domain.StatusRecord, error)

	// Close releases resources.
	Close() error
}

// TimelineBuild is a structured store filled off to the side during a
// rebuild. Readers of the live store never see it until Publish.
type TimelineBuild interface {
	TimelineStore

	// Publish replaces the live store with this build and returns the
	// new live store. The build must not be used afterwards.
	Publish() (TimelineStore, error)

	// Discard drops an unfinished build.
	Discard() error
}

// TimelineStores opens the live structured store and starts rebuilds.
type TimelineStores interface {
	// Open returns the live store, creating an empty one when none exists.
	Open() (TimelineStore, error)

	// NewBuild starts an empty build.
	NewBuild() (TimelineBuild, error)
}
