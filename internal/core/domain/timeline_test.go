package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpanRecord_Inverted(t *testing.T) {
	may := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	june := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	assert.False(t, SpanRecord{StartNormalized: &may, EndNormalized: &june}.Inverted())
	assert.True(t, SpanRecord{StartNormalized: &june, EndNormalized: &may}.Inverted())
	assert.False(t, SpanRecord{StartNormalized: &june}.Inverted())
	assert.False(t, SpanRecord{}.Inverted())
}

func TestDeckResult_Flatten(t *testing.T) {
	deck := DeckResult{
		SourceFile: "plan.pptx",
		Slides: []SlideResult{
			{Slide: 1, Milestones: []MilestoneRecord{{Title: "Kickoff"}}},
			{Slide: 2, Milestones: []MilestoneRecord{{Title: "Beta"}}, Spans: []SpanRecord{{Title: "Build"}}},
			{Slide: 3, Warnings: []Warning{{Kind: WarningUnassociatedDate}}},
		},
	}

	ms := deck.Milestones()
	assert.Len(t, ms, 2)
	assert.Equal(t, "Kickoff", ms[0].Title)
	assert.Equal(t, "Beta", ms[1].Title)
	assert.Len(t, deck.Spans(), 1)
	assert.Empty(t, deck.Statuses())
	assert.Len(t, deck.Warnings(), 1)
}

func TestSlideResult_IsEmpty(t *testing.T) {
	assert.True(t, SlideResult{}.IsEmpty())
	assert.True(t, SlideResult{Warnings: []Warning{{Kind: WarningUnassociatedDate}}}.IsEmpty())
	assert.False(t, SlideResult{Statuses: []StatusRecord{{Status: StatusAtRisk}}}.IsEmpty())
}

func TestTimelineQuery_Filter(t *testing.T) {
	f, err := TimelineQuery{Area: " Payments ", Title: "beta", From: "2025-05-01", To: "2025-06-30", Status: "At Risk"}.Filter()
	require.NoError(t, err)

	assert.Equal(t, "Payments", f.Area)
	assert.Equal(t, "beta", f.TitleContains)
	assert.Equal(t, "At Risk", f.Status)
	require.NotNil(t, f.From)
	require.NotNil(t, f.To)
	assert.Equal(t, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), *f.From)
	assert.Equal(t, time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC), *f.To)

	empty, err := TimelineQuery{}.Filter()
	require.NoError(t, err)
	assert.Equal(t, TimelineFilter{}, empty)
}

func TestTimelineQuery_Filter_Invalid(t *testing.T) {
	for _, q := range []TimelineQuery{
		{From: "May 1"},
		{To: "2025-13-01"},
		{From: "2025-06-01", To: "2025-05-01"},
	} {
		_, err := q.Filter()
		assert.ErrorIs(t, err, ErrInvalidInput, "%+v", q)
	}
}
