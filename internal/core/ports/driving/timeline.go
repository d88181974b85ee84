package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// TimelineService exposes read-only queries over extracted timeline records.
type TimelineService interface {
	Milestones(ctx context.Context, filter domain.TimelineFilter) ([]domain.MilestoneRecord, error)
	Spans(ctx context.Context, filter domain.TimelineFilter) ([]domain.SpanRecord, error)
	Statuses(ctx context.Context, filter domain.TimelineFilter) ([]domain.StatusRecord, error)
}
