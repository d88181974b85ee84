package domain

import (
	"math"
	"strings"
)

// Shape is a positioned, sized text box extracted from a presentation slide.
// Coordinates share one unit per deck (EMU for PPTX) with the origin top-left.
// Shapes are immutable once extracted.
type Shape struct {
	// ID is the shape identifier as authored (unique within a slide).
	ID string

	// Slide is the 1-based slide number the shape belongs to.
	Slide int

	// X and Y locate the top-left corner.
	X float64
	Y float64

	// Width and Height are the extent of the bounding box.
	Width  float64
	Height float64

	// Text is the concatenated text content, possibly empty.
	Text string

	// FontSize is the largest run size in points, zero when unknown.
	FontSize float64

	// FillHex is the solid fill colour as RRGGBB, empty when none.
	FillHex string
}

// Left returns the x coordinate of the left edge.
func (s Shape) Left() float64 { return s.X }

// Right returns the x coordinate of the right edge.
func (s Shape) Right() float64 { return s.X + s.Width }

// Top returns the y coordinate of the top edge.
func (s Shape) Top() float64 { return s.Y }

// Bottom returns the y coordinate of the bottom edge.
func (s Shape) Bottom() float64 { return s.Y + s.Height }

// CenterX returns the horizontal centre.
func (s Shape) CenterX() float64 { return s.X + s.Width/2 }

// CenterY returns the vertical centre.
func (s Shape) CenterY() float64 { return s.Y + s.Height/2 }

// Area returns the bounding box area.
func (s Shape) Area() float64 { return s.Width * s.Height }

// HasText reports whether the shape carries non-whitespace text.
func (s Shape) HasText() bool { return strings.TrimSpace(s.Text) != "" }

// Validate checks that the geometry is usable for spatial reasoning.
func (s Shape) Validate() error {
	for _, v := range []float64{s.X, s.Y, s.Width, s.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &MalformedShapeError{Slide: s.Slide, ShapeID: s.ID, Reason: "non-finite geometry"}
		}
	}
	if s.Width < 0 || s.Height < 0 {
		return &MalformedShapeError{Slide: s.Slide, ShapeID: s.ID, Reason: "negative size"}
	}
	return nil
}

// Slide is one presentation slide: its shapes in authored order plus the page size.
type Slide struct {
	// Number is the 1-based slide position.
	Number int

	// Width and Height are the slide dimensions in shape units.
	// Zero means unknown; extent is then derived from the shapes.
	Width  float64
	Height float64

	// Shapes are the text-bearing shapes in authored order.
	Shapes []Shape

	// Malformed is set when the slide could not be read; it holds the reason.
	Malformed string
}

// Deck is a presentation file reduced to its slides.
type Deck struct {
	// SourceFile is the path the deck was read from.
	SourceFile string

	// Slides are in presentation order.
	Slides []Slide
}

// Role is the timeline role assigned to a Shape during classification.
// It is a closed set; every consumer must handle RoleUnknown.
type Role int

// Available roles.
const (
	// RoleUnknown is any shape that takes no part in the timeline.
	RoleUnknown Role = iota

	// RoleDate is a shape whose text is a date or date range.
	RoleDate

	// RoleMilestoneLabel is a label naming a single point in time.
	RoleMilestoneLabel

	// RoleSpanLabel is a label naming an interval such as a phase.
	RoleSpanLabel
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RoleDate:
		return "DATE"
	case RoleMilestoneLabel:
		return "MILESTONE_LABEL"
	case RoleSpanLabel:
		return "SPAN_LABEL"
	case RoleUnknown:
		return "UNKNOWN"
	default:
		return "UNKNOWN"
	}
}

// IsLabel reports whether the role names a milestone or a span.
func (r Role) IsLabel() bool {
	switch r {
	case RoleMilestoneLabel, RoleSpanLabel:
		return true
	case RoleUnknown, RoleDate:
		return false
	default:
		return false
	}
}
