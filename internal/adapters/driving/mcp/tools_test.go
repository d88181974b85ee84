package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("returns answer with sources", func(t *testing.T) {
		mockQuery := &mockQueryService{
			answer: domain.Answer{
				Text:    "The budget is four million.",
				Sources: []domain.Source{{File: "budget.pdf", Page: 2}, {File: "notes.txt"}},
			},
		}
		server, err := NewServer(&Ports{Query: mockQuery})
		require.NoError(t, err)

		input := AskInput{
			Question: "What is the budget?",
			History:  []TurnInput{{Role: "User", Content: "hi"}, {Role: "assistant", Content: "hello"}},
		}
		_, output, err := server.handleAsk(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, "The budget is four million.", output.Answer)
		assert.Equal(t, []SourceOutput{{File: "budget.pdf", Page: 2}, {File: "notes.txt"}}, output.Sources)
		assert.False(t, output.NoSources)
		assert.Equal(t, "What is the budget?", mockQuery.question)
		assert.Equal(t, []domain.Turn{
			{Role: domain.TurnUser, Content: "hi"},
			{Role: domain.TurnAssistant, Content: "hello"},
		}, mockQuery.history)
	})

	t.Run("no sources is not an error", func(t *testing.T) {
		mockQuery := &mockQueryService{answer: domain.Answer{Text: "nothing", NoSources: true}}
		server, err := NewServer(&Ports{Query: mockQuery})
		require.NoError(t, err)

		_, output, err := server.handleAsk(ctx, nil, AskInput{Question: "?"})

		require.NoError(t, err)
		assert.True(t, output.NoSources)
		assert.Empty(t, output.Sources)
	})

	t.Run("returns error on query failure", func(t *testing.T) {
		mockQuery := &mockQueryService{err: domain.ErrGenerationTimeout}
		server, err := NewServer(&Ports{Query: mockQuery})
		require.NoError(t, err)

		_, _, err = server.handleAsk(ctx, nil, AskInput{Question: "slow?"})

		assert.ErrorIs(t, err, domain.ErrGenerationTimeout)
	})
}

func TestServer_handleTimeline(t *testing.T) {
	ctx := context.Background()
	timeline := &mockTimelineService{
		milestones: []domain.MilestoneRecord{
			{Title: "Beta", RawDate: "May 1", NormalizedDate: date(2025, time.May, 1), SourceFile: "plan.pptx", Slide: 2},
			{Title: "GA", RawDate: "TBD", SourceFile: "plan.pptx", Slide: 3},
		},
		spans: []domain.SpanRecord{
			{Title: "Pilot", StartRaw: "Jun 1", EndRaw: "Jun 30", StartNormalized: date(2025, time.June, 1), SourceFile: "plan.pptx", Slide: 4},
		},
		statuses: []domain.StatusRecord{{Area: "Payments", Status: "At Risk", SourceFile: "status.pptx", Slide: 5}},
	}
	server, err := NewServer(&Ports{Query: &mockQueryService{}, Timeline: timeline})
	require.NoError(t, err)

	t.Run("milestones by default", func(t *testing.T) {
		_, output, err := server.handleTimeline(ctx, nil, TimelineInput{Title: "beta", From: "2025-01-01"})

		require.NoError(t, err)
		assert.Equal(t, "milestones", output.Kind)
		assert.Equal(t, 2, output.Count)
		assert.Equal(t, RecordOutput{Title: "Beta", Date: "2025-05-01", File: "plan.pptx", Slide: 2}, output.Records[0])
		assert.Equal(t, "TBD", output.Records[1].Date)
		assert.Equal(t, "beta", timeline.filter.TitleContains)
		require.NotNil(t, timeline.filter.From)
	})

	t.Run("spans", func(t *testing.T) {
		_, output, err := server.handleTimeline(ctx, nil, TimelineInput{Kind: "Spans"})

		require.NoError(t, err)
		require.Len(t, output.Records, 1)
		assert.Equal(t, "2025-06-01", output.Records[0].Start)
		assert.Equal(t, "Jun 30", output.Records[0].End)
	})

	t.Run("statuses", func(t *testing.T) {
		_, output, err := server.handleTimeline(ctx, nil, TimelineInput{Kind: "statuses", Status: "At Risk"})

		require.NoError(t, err)
		require.Len(t, output.Records, 1)
		assert.Equal(t, "Payments", output.Records[0].Area)
		assert.Equal(t, "At Risk", timeline.filter.Status)
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, _, err := server.handleTimeline(ctx, nil, TimelineInput{Kind: "tasks"})
		assert.ErrorIs(t, err, ErrUnknownTimelineKind)
	})

	t.Run("bad date", func(t *testing.T) {
		_, _, err := server.handleTimeline(ctx, nil, TimelineInput{From: "last week"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("store error", func(t *testing.T) {
		failing := &mockTimelineService{err: errors.New("index not ready")}
		s, err := NewServer(&Ports{Query: &mockQueryService{}, Timeline: failing})
		require.NoError(t, err)

		_, _, err = s.handleTimeline(ctx, nil, TimelineInput{})
		assert.Error(t, err)
	})

	t.Run("empty result is an empty list", func(t *testing.T) {
		s, err := NewServer(&Ports{Query: &mockQueryService{}, Timeline: &mockTimelineService{}})
		require.NoError(t, err)

		_, output, err := s.handleTimeline(ctx, nil, TimelineInput{})
		require.NoError(t, err)
		assert.NotNil(t, output.Records)
		assert.Zero(t, output.Count)
	})
}
