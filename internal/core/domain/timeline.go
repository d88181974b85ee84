package domain

import (
	"fmt"
	"strings"
	"time"
)

// Status values recognised on slide status cards.
const (
	StatusOnTrack = "On Track"
	StatusAtRisk  = "At Risk"
	StatusBlocked = "Blocked"
)

// MilestoneRecord is a point-in-time event recovered from a slide.
type MilestoneRecord struct {
	// ID is the internal record identifier.
	ID string

	// Title is the associated label text. Never empty.
	Title string

	// RawDate is the date text as authored, e.g. "May 17".
	RawDate string

	// NormalizedDate is the resolved calendar date, nil when unparseable.
	NormalizedDate *time.Time

	// SourceFile is the deck the record came from.
	SourceFile string

	// Slide is the 1-based slide number.
	Slide int

	// Area is an optional project or workstream tag.
	Area string

	// Confidence scores the association from 0 to 1.
	Confidence float64
}

// SpanRecord is an interval event such as a phase or sprint.
type SpanRecord struct {
	ID              string
	Title           string
	StartRaw        string
	EndRaw          string
	StartNormalized *time.Time
	EndNormalized   *time.Time
	SourceFile      string
	Slide           int
	Area            string
}

// Inverted reports whether both endpoints resolved and start falls after end.
func (s SpanRecord) Inverted() bool {
	return s.StartNormalized != nil && s.EndNormalized != nil && s.StartNormalized.After(*s.EndNormalized)
}

// StatusRecord is a coloured status card attached to a workstream.
type StatusRecord struct {
	ID         string
	Slide      int
	Area       string
	Status     string
	ColorHex   string
	SourceFile string
}

// WarningKind classifies a non-fatal extraction problem.
type WarningKind string

// Available warning kinds.
const (
	// WarningUnassociatedDate is a DATE shape that matched no label.
	WarningUnassociatedDate WarningKind = "unassociated_date"

	// WarningInvertedSpan is a span whose start resolves after its end.
	WarningInvertedSpan WarningKind = "inverted_span"

	// WarningMalformedSlide is a slide skipped because of corrupt geometry.
	WarningMalformedSlide WarningKind = "malformed_slide"
)

// Warning is a recorded, non-fatal extraction issue.
type Warning struct {
	Kind    WarningKind
	Slide   int
	ShapeID string
	Text    string
	Message string
}

// SlideResult holds the records extracted from one slide.
type SlideResult struct {
	Slide      int
	Milestones []MilestoneRecord
	Spans      []SpanRecord
	Statuses   []StatusRecord
	Warnings   []Warning

	// Caption is a plain-text rendering of the slide for retrieval.
	Caption string
}

// IsEmpty reports whether no records were produced.
func (r SlideResult) IsEmpty() bool {
	return len(r.Milestones) == 0 && len(r.Spans) == 0 && len(r.Statuses) == 0
}

// DeckResult aggregates slide results for one presentation.
type DeckResult struct {
	SourceFile string
	Slides     []SlideResult
}

// Milestones flattens milestones across slides in slide order.
func (r DeckResult) Milestones() []MilestoneRecord {
	var out []MilestoneRecord
	for _, s := range r.Slides {
		out = append(out, s.Milestones...)
	}
	return out
}

// Spans flattens spans across slides in slide order.
func (r DeckResult) Spans() []SpanRecord {
	var out []SpanRecord
	for _, s := range r.Slides {
		out = append(out, s.Spans...)
	}
	return out
}

// Statuses flattens status cards across slides in slide order.
func (r DeckResult) Statuses() []StatusRecord {
	var out []StatusRecord
	for _, s := range r.Slides {
		out = append(out, s.Statuses...)
	}
	return out
}

// Warnings flattens warnings across slides in slide order.
func (r DeckResult) Warnings() []Warning {
	var out []Warning
	for _, s := range r.Slides {
		out = append(out, s.Warnings...)
	}
	return out
}

// TimelineFilter narrows structured store queries. Zero fields match everything.
type TimelineFilter struct {
	// Area matches the area tag case-insensitively as a substring.
	Area string

	// TitleContains matches the title case-insensitively as a substring.
	TitleContains string

	// TitleExact matches the title exactly.
	TitleExact string

	// From and To bound the normalized date inclusively.
	// Spans match when they overlap the window.
	From *time.Time
	To   *time.Time

	// Status matches status cards exactly.
	Status string

	// SourceFile restricts to one deck.
	SourceFile string
}

// DateLayout is the layout of normalized dates on every outer surface.
const DateLayout = "2006-01-02"

// TimelineQuery is the textual form of a TimelineFilter accepted by the
// command line, HTTP and MCP surfaces.
type TimelineQuery struct {
	Area   string `json:"area,omitempty" form:"area"`
	Title  string `json:"title,omitempty" form:"title"`
	From   string `json:"from,omitempty" form:"from"`
	To     string `json:"to,omitempty" form:"to"`
	Status string `json:"status,omitempty" form:"status"`
	Source string `json:"source,omitempty" form:"source"`
}

// Filter parses q. Dates must use DateLayout.
func (q TimelineQuery) Filter() (TimelineFilter, error) {
	f := TimelineFilter{
		Area:          strings.TrimSpace(q.Area),
		TitleContains: strings.TrimSpace(q.Title),
		Status:        strings.TrimSpace(q.Status),
		SourceFile:    strings.TrimSpace(q.Source),
	}
	var err error
	if f.From, err = parseFilterDate("from", q.From); err != nil {
		return TimelineFilter{}, err
	}
	if f.To, err = parseFilterDate("to", q.To); err != nil {
		return TimelineFilter{}, err
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return TimelineFilter{}, fmt.Errorf("%w: to %s is before from %s", ErrInvalidInput, q.To, q.From)
	}
	return f, nil
}

func parseFilterDate(name, s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s date %q, want YYYY-MM-DD", ErrInvalidInput, name, s)
	}
	return &t, nil
}
