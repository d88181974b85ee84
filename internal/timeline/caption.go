package timeline

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// maxCaptionRunes bounds the caption appended to a slide's text.
const maxCaptionRunes = 1200

// Caption renders a slide's records as one line of prose so that timeline
// facts are also reachable through retrieval. It is empty when the slide
// produced no records.
func Caption(res domain.SlideResult) string {
	var parts []string
	for _, m := range res.Milestones {
		parts = append(parts, fmt.Sprintf("%s (%s)", m.Title, m.RawDate))
	}
	for _, s := range res.Spans {
		parts = append(parts, fmt.Sprintf("%s (%s to %s)", s.Title, s.StartRaw, s.EndRaw))
	}
	for _, st := range res.Statuses {
		parts = append(parts, fmt.Sprintf("%s is %s", st.Area, st.Status))
	}
	if len(parts) == 0 {
		return ""
	}
	out := fmt.Sprintf("Slide %d: %s", res.Slide, strings.Join(parts, "; "))
	if r := []rune(out); len(r) > maxCaptionRunes {
		out = string(r[:maxCaptionRunes])
	}
	return out
}
