package services

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Ensure TimelineService implements the interface.
var _ driving.TimelineService = (*TimelineService)(nil)

// TimelineService queries the structured store of the active index generation.
type TimelineService struct {
	index *IndexService
}

// NewTimelineService creates a timeline service over index.
func NewTimelineService(index *IndexService) *TimelineService {
	return &TimelineService{index: index}
}

// Milestones returns milestones matching filter.
func (s *TimelineService) Milestones(ctx context.Context, filter domain.TimelineFilter) ([]domain.MilestoneRecord, error) {
	var out []domain.MilestoneRecord
	err := s.index.withGeneration(func(g *generation) (err error) {
		out, err = g.timeline.Milestones(ctx, filter)
		return err
	})
	return out, err
}

// Spans returns spans matching filter.
func (s *TimelineService) Spans(ctx context.Context, filter domain.TimelineFilter) ([]domain.SpanRecord, error) {
	var out []domain.SpanRecord
	err := s.index.withGeneration(func(g *generation) (err error) {
		out, err = g.timeline.Spans(ctx, filter)
		return err
	})
	return out, err
}

// Statuses returns status cards matching filter.
func (s *TimelineService) Statuses(ctx context.Context, filter domain.TimelineFilter) ([]domain.StatusRecord, error) {
	var out []domain.StatusRecord
	err := s.index.withGeneration(func(g *generation) (err error) {
		out, err = g.timeline.Statuses(ctx, filter)
		return err
	})
	return out, err
}
