package timeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func TestCaption(t *testing.T) {
	res := domain.SlideResult{
		Slide:      4,
		Milestones: []domain.MilestoneRecord{{Title: "Design Complete", RawDate: "May 17"}},
		Spans:      []domain.SpanRecord{{Title: "Build", StartRaw: "May 1", EndRaw: "Jun 30"}},
		Statuses:   []domain.StatusRecord{{Area: "Payments", Status: domain.StatusAtRisk}},
	}

	assert.Equal(t,
		"Slide 4: Design Complete (May 17); Build (May 1 to Jun 30); Payments is At Risk",
		Caption(res))
	assert.Empty(t, Caption(domain.SlideResult{Slide: 1}))
}

func TestCaption_Truncated(t *testing.T) {
	res := domain.SlideResult{Slide: 1}
	for i := 0; i < 200; i++ {
		res.Milestones = append(res.Milestones, domain.MilestoneRecord{Title: strings.Repeat("é", 10), RawDate: "May 1"})
	}

	assert.Len(t, []rune(Caption(res)), maxCaptionRunes)
}
