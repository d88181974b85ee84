// Package geometry provides spatial predicates over slide shapes.
//
// All functions are pure and operate on immutable domain.Shape values.
// Coordinates grow rightwards (x) and downwards (y).
package geometry

import (
	"math"
	"sort"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// Overlaps reports whether the bounding boxes intersect by more than
// minFraction of the smaller box's area. Touching edges never overlap.
func Overlaps(a, b domain.Shape, minFraction float64) bool {
	w := math.Min(a.Right(), b.Right()) - math.Max(a.Left(), b.Left())
	h := math.Min(a.Bottom(), b.Bottom()) - math.Max(a.Top(), b.Top())
	if w <= 0 || h <= 0 {
		return false
	}
	smaller := math.Min(a.Area(), b.Area())
	if smaller <= 0 {
		return false
	}
	return (w*h)/smaller > minFraction
}

// VerticalGap is the signed distance from a's bottom edge to b's top edge.
// It is negative when the boxes overlap vertically.
func VerticalGap(a, b domain.Shape) float64 {
	return b.Top() - a.Bottom()
}

// HorizontalGap is the signed distance from a's right edge to b's left edge.
// It is negative when the boxes overlap horizontally.
func HorizontalGap(a, b domain.Shape) float64 {
	return b.Left() - a.Right()
}

// HorizontalOverlapFraction is the shared width divided by the narrower width.
func HorizontalOverlapFraction(a, b domain.Shape) float64 {
	return extentOverlap(a.Left(), a.Right(), b.Left(), b.Right())
}

// VerticalOverlapFraction is the shared height divided by the shorter height.
func VerticalOverlapFraction(a, b domain.Shape) float64 {
	return extentOverlap(a.Top(), a.Bottom(), b.Top(), b.Bottom())
}

func extentOverlap(a0, a1, b0, b1 float64) float64 {
	shared := math.Min(a1, b1) - math.Max(a0, b0)
	if shared <= 0 {
		return 0
	}
	narrower := math.Min(a1-a0, b1-b0)
	if narrower <= 0 {
		return 0
	}
	return math.Min(shared/narrower, 1)
}

// IsAbove reports whether a's vertical centre sits above b's by more than
// tolerance. The shapes must share at least minOverlap of horizontal extent.
func IsAbove(a, b domain.Shape, tolerance, minOverlap float64) bool {
	if HorizontalOverlapFraction(a, b) < minOverlap {
		return false
	}
	return a.CenterY() < b.CenterY()-tolerance
}

// NearestBelow returns the candidate with the smallest non-negative vertical
// gap below shape. Candidates must pass the horizontal overlap threshold and
// sit no further than maxGap away. Ties prefer greater horizontal overlap,
// then the smaller x.
func NearestBelow(shape domain.Shape, candidates []domain.Shape, minOverlap, maxGap float64) (domain.Shape, bool) {
	best := -1
	var bestGap, bestOverlap float64
	for i, c := range candidates {
		if c.ID == shape.ID && c.Slide == shape.Slide {
			continue
		}
		gap := VerticalGap(shape, c)
		if gap < 0 || gap > maxGap {
			continue
		}
		ov := HorizontalOverlapFraction(shape, c)
		if ov < minOverlap {
			continue
		}
		if best < 0 || Better(gap, ov, c.X, bestGap, bestOverlap, candidates[best].X) {
			best, bestGap, bestOverlap = i, gap, ov
		}
	}
	if best < 0 {
		return domain.Shape{}, false
	}
	return candidates[best], true
}

// Better reports whether a candidate at distance d with overlap ov and
// left edge x beats the current best under the shared tie-break order:
// smaller distance, then greater overlap, then smaller x.
func Better(d, ov, x, bestD, bestOv, bestX float64) bool {
	const eps = 1e-9
	if math.Abs(d-bestD) > eps {
		return d < bestD
	}
	if math.Abs(ov-bestOv) > eps {
		return ov > bestOv
	}
	return x < bestX
}

// Contains reports whether inner lies entirely within outer.
func Contains(outer, inner domain.Shape) bool {
	return inner.Left() >= outer.Left() && inner.Right() <= outer.Right() &&
		inner.Top() >= outer.Top() && inner.Bottom() <= outer.Bottom()
}

// CenterDistance is the Manhattan distance between centres.
func CenterDistance(a, b domain.Shape) float64 {
	return math.Abs(a.CenterX()-b.CenterX()) + math.Abs(a.CenterY()-b.CenterY())
}

// ReadingOrder returns the shapes sorted top-to-bottom then left-to-right.
// The input slice is not modified.
func ReadingOrder(shapes []domain.Shape) []domain.Shape {
	out := make([]domain.Shape, len(shapes))
	copy(out, shapes)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Y != out[j].Y {
			return out[i].Y < out[j].Y
		}
		return out[i].X < out[j].X
	})
	return out
}

// Extent returns the bottom-right corner of the union of all shapes.
func Extent(shapes []domain.Shape) (width, height float64) {
	for _, s := range shapes {
		width = math.Max(width, s.Right())
		height = math.Max(height, s.Bottom())
	}
	return width, height
}
