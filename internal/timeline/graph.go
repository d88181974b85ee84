package timeline

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/geometry"
)

// nodeKind is the lexical class of a shape's text, decided before roles.
type nodeKind int

const (
	kindText nodeKind = iota
	kindYear
	kindMonth
	kindDay
	kindStatus
	kindMarker
)

// rule is the association rule that linked a date to its label.
type rule int

const (
	ruleBelow rule = iota + 1
	ruleAdjacent
	ruleOverlap
)

func (r rule) String() string {
	switch r {
	case ruleBelow:
		return "below"
	case ruleAdjacent:
		return "adjacent"
	case ruleOverlap:
		return "overlap"
	default:
		return "none"
	}
}

type node struct {
	shape  domain.Shape
	order  int
	kind   nodeKind
	role   domain.Role
	text   string
	date   dateText
	used   bool
	status string
	day    int
}

type edge struct {
	date       int
	label      int
	rule       rule
	confidence float64
}

// graph is the per-slide association arena. It is built, consulted and
// discarded inside a single ExtractSlide call.
type graph struct {
	opts  domain.TimelineSettings
	w, h  float64
	nodes []node
	edges map[int]edge
}

func newGraph(slide domain.Slide, opts domain.TimelineSettings) *graph {
	g := &graph{opts: opts, w: slide.Width, h: slide.Height, edges: make(map[int]edge)}
	if g.w <= 0 || g.h <= 0 {
		g.w, g.h = geometry.Extent(slide.Shapes)
	}
	for i, s := range slide.Shapes {
		if !s.HasText() {
			continue
		}
		n := node{shape: s, order: i, text: spaceRe.ReplaceAllString(strings.TrimSpace(s.Text), " ")}
		n.kind, n.status, n.day = lexKind(n.text)
		g.nodes = append(g.nodes, n)
	}
	return g
}

func lexKind(text string) (nodeKind, string, int) {
	lower := strings.ToLower(text)
	switch {
	case isYear(text):
		return kindYear, "", 0
	case isMonthOnly(text):
		return kindMonth, "", 0
	case lower == "today" || lower == "now":
		return kindMarker, "", 0
	}
	if d, ok := dayOnly(text); ok {
		return kindDay, "", d
	}
	if st, ok := statusWord(lower); ok {
		return kindStatus, st, 0
	}
	return kindText, "", 0
}

func statusWord(lower string) (string, bool) {
	switch lower {
	case "on track", "green":
		return domain.StatusOnTrack, true
	case "at risk", "amber", "red":
		return domain.StatusAtRisk, true
	case "blocked", "off track":
		return domain.StatusBlocked, true
	default:
		return "", false
	}
}

// mergeSplitDates pairs bare month boxes with the nearest bare day box,
// replacing both with one synthetic text node such as "May 17".
func (g *graph) mergeSplitDates() {
	maxDX, maxDY := g.opts.MergeMaxDX*g.w, g.opts.MergeMaxDY*g.h
	consumed := make(map[int]bool)
	var merged []node
	for i := range g.nodes {
		if g.nodes[i].kind != kindMonth {
			continue
		}
		m := g.nodes[i]
		best, bestD := -1, math.Inf(1)
		for j := range g.nodes {
			d := g.nodes[j]
			if d.kind != kindDay || consumed[j] {
				continue
			}
			dx := math.Abs(d.shape.CenterX() - m.shape.CenterX())
			dy := math.Abs(d.shape.CenterY() - m.shape.CenterY())
			if dx > maxDX || dy > maxDY {
				continue
			}
			if dx+dy < bestD {
				best, bestD = j, dx+dy
			}
		}
		if best < 0 {
			continue
		}
		d := g.nodes[best]
		consumed[i], consumed[best] = true, true
		merged = append(merged, node{
			shape: union(m.shape, d.shape),
			order: min(m.order, d.order),
			kind:  kindText,
			text:  m.text + " " + d.text,
		})
	}
	if len(merged) == 0 {
		return
	}
	kept := merged
	for i, n := range g.nodes {
		if !consumed[i] {
			kept = append(kept, n)
		}
	}
	sort.SliceStable(kept, func(a, b int) bool { return kept[a].order < kept[b].order })
	g.nodes = kept
}

func union(a, b domain.Shape) domain.Shape {
	x0, y0 := math.Min(a.Left(), b.Left()), math.Min(a.Top(), b.Top())
	x1, y1 := math.Max(a.Right(), b.Right()), math.Max(a.Bottom(), b.Bottom())
	return domain.Shape{
		ID:       a.ID + "+" + b.ID,
		Slide:    a.Slide,
		X:        x0,
		Y:        y0,
		Width:    x1 - x0,
		Height:   y1 - y0,
		Text:     a.Text + " " + b.Text,
		FontSize: math.Max(a.FontSize, b.FontSize),
	}
}

// yearHeaders keeps four-digit boxes set at or above the 70th percentile
// font size among them. Without font data every year box counts.
func (g *graph) yearHeaders() []node {
	var years []node
	var sizes []float64
	for _, n := range g.nodes {
		if n.kind != kindYear {
			continue
		}
		years = append(years, n)
		if n.shape.FontSize > 0 {
			sizes = append(sizes, n.shape.FontSize)
		}
	}
	if len(sizes) == 0 {
		return years
	}
	sort.Float64s(sizes)
	cut := sizes[int(math.Ceil(0.7*float64(len(sizes))))-1]
	var out []node
	for _, n := range years {
		if n.shape.FontSize >= cut {
			out = append(out, n)
		}
	}
	return out
}

// yearFor returns the header year horizontally nearest to s, or 0.
func yearFor(s domain.Shape, headers []node) int {
	best, bestDX := 0, math.Inf(1)
	for _, h := range headers {
		dx := math.Abs(h.shape.CenterX() - s.CenterX())
		if dx < bestDX {
			best, bestDX = atoi(h.text), dx
		}
	}
	return best
}

// classify assigns roles: dates first, then labels near a date.
func (g *graph) classify(layouts []string) {
	for i := range g.nodes {
		n := &g.nodes[i]
		if n.kind != kindText {
			n.role = domain.RoleUnknown
			continue
		}
		if dt, ok := parseDateText(n.text, layouts); ok {
			n.role, n.date = domain.RoleDate, dt
		}
	}
	maxDX, maxDY := g.opts.LabelMaxDX*g.w, g.opts.LabelMaxDY*g.h
	for i := range g.nodes {
		n := &g.nodes[i]
		if n.kind != kindText || n.role == domain.RoleDate || !hasLetter(n.text) {
			continue
		}
		_, _, embedded := findRange(n.text, layouts)
		if embedded {
			n.role = domain.RoleSpanLabel
			continue
		}
		if !g.nearDate(n.shape, maxDX, maxDY) {
			continue
		}
		if isRangeLike(n.text, layouts) {
			n.role = domain.RoleSpanLabel
		} else {
			n.role = domain.RoleMilestoneLabel
		}
	}
}

func (g *graph) nearDate(s domain.Shape, maxDX, maxDY float64) bool {
	for _, d := range g.nodes {
		if d.role != domain.RoleDate {
			continue
		}
		if math.Abs(d.shape.CenterX()-s.CenterX()) <= maxDX && math.Abs(d.shape.CenterY()-s.CenterY()) <= maxDY {
			return true
		}
	}
	return false
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// associate links every DATE node to at most one unused label, trying the
// below, adjacent and overlap rules in that order.
func (g *graph) associate() {
	for i := range g.nodes {
		switch g.nodes[i].role {
		case domain.RoleDate:
		case domain.RoleUnknown, domain.RoleMilestoneLabel, domain.RoleSpanLabel:
			continue
		default:
			continue
		}
		for _, try := range []func(int) (edge, bool){g.below, g.adjacent, g.overlap} {
			if e, ok := try(i); ok {
				g.edges[i] = e
				g.nodes[e.label].used = true
				break
			}
		}
	}
}

// pairedWithRange reports whether label li is already associated with a
// DATE shape holding the same range as dt.
func (g *graph) pairedWithRange(li int, dt dateText) bool {
	for di, e := range g.edges {
		d := g.nodes[di].date
		if e.label == li && d.isRange && d.start == dt.start && d.end == dt.end {
			return true
		}
	}
	return false
}

func (g *graph) labels() ([]domain.Shape, []int) {
	var shapes []domain.Shape
	var idx []int
	for i, n := range g.nodes {
		if n.role.IsLabel() && !n.used {
			shapes = append(shapes, n.shape)
			idx = append(idx, i)
		}
	}
	return shapes, idx
}

func (g *graph) below(di int) (edge, bool) {
	date := g.nodes[di].shape
	shapes, idx := g.labels()
	limit := g.opts.BelowMaxGap * g.h
	got, ok := geometry.NearestBelow(date, shapes, g.opts.MinHorizontalOverlap, limit)
	if !ok {
		return edge{}, false
	}
	for k, s := range shapes {
		if s.ID == got.ID && s.X == got.X && s.Y == got.Y {
			ov := geometry.HorizontalOverlapFraction(date, got)
			conf := 0.7*ov + 0.3*closeness(geometry.VerticalGap(date, got), limit)
			return edge{date: di, label: idx[k], rule: ruleBelow, confidence: conf}, true
		}
	}
	return edge{}, false
}

func (g *graph) adjacent(di int) (edge, bool) {
	date := g.nodes[di].shape
	shapes, idx := g.labels()
	maxGap, yTol := g.opts.AdjacentMaxGap*g.w, g.opts.AdjacentYTolerance*g.h
	best := -1
	var bestGap, bestOv, bestYOff float64
	for k, s := range shapes {
		yOff := math.Abs(s.CenterY() - date.CenterY())
		if yOff > yTol {
			continue
		}
		gap := geometry.HorizontalGap(date, s)
		if gap < 0 {
			gap = geometry.HorizontalGap(s, date)
		}
		if gap < 0 || gap > maxGap {
			continue
		}
		ov := geometry.HorizontalOverlapFraction(date, s)
		if best < 0 || geometry.Better(gap, ov, s.X, bestGap, bestOv, shapes[best].X) {
			best, bestGap, bestOv, bestYOff = k, gap, ov, yOff
		}
	}
	if best < 0 {
		return edge{}, false
	}
	conf := 0.7*closeness(bestGap, maxGap) + 0.3*closeness(bestYOff, yTol)
	return edge{date: di, label: idx[best], rule: ruleAdjacent, confidence: conf}, true
}

func (g *graph) overlap(di int) (edge, bool) {
	date := g.nodes[di].shape
	shapes, idx := g.labels()
	best := -1
	var bestD, bestOv float64
	for k, s := range shapes {
		if !geometry.Overlaps(date, s, g.opts.OverlapMinFraction) {
			continue
		}
		d := geometry.CenterDistance(date, s)
		ov := geometry.HorizontalOverlapFraction(date, s)
		if best < 0 || geometry.Better(d, ov, s.X, bestD, bestOv, shapes[best].X) {
			best, bestD, bestOv = k, d, ov
		}
	}
	if best < 0 {
		return edge{}, false
	}
	return edge{date: di, label: idx[best], rule: ruleOverlap, confidence: 0.5 * bestOv}, true
}

// closeness maps a distance within limit to 1 (touching) .. 0 (at the limit).
func closeness(d, limit float64) float64 {
	if limit <= 0 {
		return 0
	}
	return math.Max(0, 1-math.Abs(d)/limit)
}
