package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func TestTimelineService_NotIndexed(t *testing.T) {
	h := newHarness(t)
	svc := NewTimelineService(h.index)

	_, err := svc.Milestones(context.Background(), domain.TimelineFilter{})

	assert.ErrorIs(t, err, domain.ErrIndexNotFound)
}

func TestTimelineService_ReadsActiveGeneration(t *testing.T) {
	h := newHarness(t, slidesDoc("/docs/roadmap.pptx", "MS Kickoff", "Notes", "MS Beta launch"))
	ctx := context.Background()
	_, err := h.index.EnsureReady(ctx, false)
	require.NoError(t, err)
	svc := NewTimelineService(h.index)

	all, err := svc.Milestones(ctx, domain.TimelineFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	beta, err := svc.Milestones(ctx, domain.TimelineFilter{TitleContains: "beta"})
	require.NoError(t, err)
	require.Len(t, beta, 1)
	assert.Equal(t, 3, beta[0].Slide)

	spans, err := svc.Spans(ctx, domain.TimelineFilter{})
	require.NoError(t, err)
	assert.Empty(t, spans)

	statuses, err := svc.Statuses(ctx, domain.TimelineFilter{})
	require.NoError(t, err)
	assert.Empty(t, statuses)
}

func TestTimelineService_SeesRebuild(t *testing.T) {
	h := newHarness(t, slidesDoc("/docs/roadmap.pptx", "MS Kickoff"))
	ctx := context.Background()
	_, err := h.index.EnsureReady(ctx, false)
	require.NoError(t, err)
	svc := NewTimelineService(h.index)

	h.source.docs = append(h.source.docs, slidesDoc("/docs/later.pptx", "MS Launch"))
	_, err = h.index.Rebuild(ctx)
	require.NoError(t, err)

	got, err := svc.Milestones(ctx, domain.TimelineFilter{})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
