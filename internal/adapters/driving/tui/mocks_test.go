package tui

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// MockQueryService implements driving.QueryService for testing.
type MockQueryService struct {
	AnswerFunc func(ctx context.Context, question string, history []domain.Turn) (domain.Answer, error)
}

func (m *MockQueryService) Answer(ctx context.Context, question string, history []domain.Turn) (domain.Answer, error) {
	if m.AnswerFunc != nil {
		return m.AnswerFunc(ctx, question, history)
	}
	return domain.Answer{Text: "answer to " + question}, nil
}

// MockTimelineService implements driving.TimelineService for testing.
type MockTimelineService struct {
	Calls int
}

func (m *MockTimelineService) Milestones(context.Context, domain.TimelineFilter) ([]domain.MilestoneRecord, error) {
	m.Calls++
	return []domain.MilestoneRecord{{Title: "Beta", RawDate: "May 1", SourceFile: "plan.pptx", Slide: 2}}, nil
}

func (m *MockTimelineService) Spans(context.Context, domain.TimelineFilter) ([]domain.SpanRecord, error) {
	m.Calls++
	return nil, nil
}

func (m *MockTimelineService) Statuses(context.Context, domain.TimelineFilter) ([]domain.StatusRecord, error) {
	m.Calls++
	return nil, nil
}

// MockIndexService implements driving.IndexService for testing.
type MockIndexService struct {
	StatusValue driving.IndexStatus
}

func (m *MockIndexService) EnsureReady(context.Context, bool) (driving.IndexReport, error) {
	return driving.IndexReport{Loaded: true}, nil
}

func (m *MockIndexService) Rebuild(context.Context) (driving.IndexReport, error) {
	return driving.IndexReport{}, nil
}

func (m *MockIndexService) Status() driving.IndexStatus { return m.StatusValue }
