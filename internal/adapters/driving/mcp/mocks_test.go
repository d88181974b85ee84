package mcp

import (
	"context"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	answer   domain.Answer
	err      error
	question string
	history  []domain.Turn
}

func (m *mockQueryService) Answer(_ context.Context, question string, history []domain.Turn) (domain.Answer, error) {
	m.question = question
	m.history = history
	return m.answer, m.err
}

// mockTimelineService is a mock implementation of driving.TimelineService.
type mockTimelineService struct {
	milestones []domain.MilestoneRecord
	spans      []domain.SpanRecord
	statuses   []domain.StatusRecord
	filter     domain.TimelineFilter
	err        error
}

func (m *mockTimelineService) Milestones(_ context.Context, f domain.TimelineFilter) ([]domain.MilestoneRecord, error) {
	m.filter = f
	return m.milestones, m.err
}

func (m *mockTimelineService) Spans(_ context.Context, f domain.TimelineFilter) ([]domain.SpanRecord, error) {
	m.filter = f
	return m.spans, m.err
}

func (m *mockTimelineService) Statuses(_ context.Context, f domain.TimelineFilter) ([]domain.StatusRecord, error) {
	m.filter = f
	return m.statuses, m.err
}

// mockIndexService is a mock implementation of driving.IndexService.
type mockIndexService struct {
	status driving.IndexStatus
}

func (m *mockIndexService) EnsureReady(context.Context, bool) (driving.IndexReport, error) {
	return driving.IndexReport{Loaded: true}, nil
}

func (m *mockIndexService) Rebuild(context.Context) (driving.IndexReport, error) {
	return driving.IndexReport{}, nil
}

func (m *mockIndexService) Status() driving.IndexStatus {
	return m.status
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}
