package timeline

import (
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/geometry"
)

// title picks the slide heading: the largest-font unknown text box, or
// the first one in authored order when no font sizes are known.
func (g *graph) title() string {
	best := -1
	for i, n := range g.nodes {
		if n.kind != kindText || n.role != domain.RoleUnknown || !hasLetter(n.text) {
			continue
		}
		if best < 0 || n.shape.FontSize > g.nodes[best].shape.FontSize {
			best = i
		}
	}
	if best < 0 {
		return ""
	}
	return g.nodes[best].text
}

// statuses turns status cards into records. The area is the nearest text
// box to the left on the same row, else the nearest one above.
func (g *graph) statuses(sourceFile string, slide int, fallbackArea string) []domain.StatusRecord {
	var out []domain.StatusRecord
	for _, n := range g.nodes {
		if n.kind != kindStatus {
			continue
		}
		area := g.areaFor(n.shape)
		if area == "" {
			area = fallbackArea
		}
		key := fmt.Sprintf("status|%s|%d|%s", sourceFile, slide, n.shape.ID)
		out = append(out, domain.StatusRecord{
			ID:         uuid.NewSHA1(recordNamespace, []byte(key)).String(),
			Slide:      slide,
			Area:       area,
			Status:     n.status,
			ColorHex:   strings.ToUpper(n.shape.FillHex),
			SourceFile: sourceFile,
		})
	}
	return out
}

func (g *graph) areaFor(card domain.Shape) string {
	left, leftGap := "", math.Inf(1)
	above, aboveGap := "", math.Inf(1)
	for _, n := range g.nodes {
		if n.kind != kindText || n.role == domain.RoleDate || !hasLetter(n.text) {
			continue
		}
		s := n.shape
		if geometry.VerticalOverlapFraction(s, card) > 0 {
			if gap := geometry.HorizontalGap(s, card); gap >= 0 && gap < leftGap {
				left, leftGap = n.text, gap
			}
			continue
		}
		if geometry.HorizontalOverlapFraction(s, card) > 0 {
			if gap := geometry.VerticalGap(s, card); gap >= 0 && gap < aboveGap {
				above, aboveGap = n.text, gap
			}
		}
	}
	if left != "" {
		return left
	}
	return above
}
