// Package timeline recovers milestones, spans and status cards from the
// spatial layout of presentation slides.
//
// Extraction runs in two passes per slide. Classification tags each text
// box as a date, a milestone label, a span label or unknown. Association
// then links every date to one label using, in priority order, the label
// directly below it, the nearest horizontally adjacent label, and any
// overlapping label.
package timeline

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/logger"
)

var recordNamespace = uuid.MustParse("6f1c2e0a-8d4b-4c1e-9a57-3b2f7d9e4a10")

// Extractor converts slides into timeline records.
// It holds only configuration and is safe for concurrent use.
type Extractor struct {
	opts domain.TimelineSettings
	now  func() time.Time
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithClock overrides the clock used for the current-year fallback.
func WithClock(now func() time.Time) Option {
	return func(x *Extractor) { x.now = now }
}

// New creates an Extractor. Zero tolerances fall back to the defaults.
func New(opts domain.TimelineSettings, options ...Option) *Extractor {
	def := domain.DefaultTimelineSettings()
	fill := func(v *float64, d float64) {
		if *v <= 0 {
			*v = d
		}
	}
	fill(&opts.LabelMaxDX, def.LabelMaxDX)
	fill(&opts.LabelMaxDY, def.LabelMaxDY)
	fill(&opts.BelowMaxGap, def.BelowMaxGap)
	fill(&opts.AdjacentMaxGap, def.AdjacentMaxGap)
	fill(&opts.AdjacentYTolerance, def.AdjacentYTolerance)
	fill(&opts.MinHorizontalOverlap, def.MinHorizontalOverlap)
	fill(&opts.OverlapMinFraction, def.OverlapMinFraction)
	fill(&opts.MergeMaxDX, def.MergeMaxDX)
	fill(&opts.MergeMaxDY, def.MergeMaxDY)

	x := &Extractor{opts: opts, now: time.Now}
	for _, o := range options {
		o(x)
	}
	return x
}

// ExtractDeck extracts every slide of a deck. A slide with corrupt geometry
// is skipped and reported as a warning; the remaining slides still run.
// The deck year context carries forward from the last slide with a year
// header, then falls back to a year in the file name.
func (x *Extractor) ExtractDeck(deck domain.Deck) domain.DeckResult {
	out := domain.DeckResult{SourceFile: deck.SourceFile}
	carry := FileYear(filepath.Base(deck.SourceFile))
	for _, slide := range deck.Slides {
		res, year, err := x.extract(deck.SourceFile, slide, carry)
		if err != nil {
			var mse *domain.MalformedShapeError
			if !errors.As(err, &mse) {
				mse = &domain.MalformedShapeError{Slide: slide.Number, Reason: err.Error()}
			}
			logger.Warn("skipping slide %d of %s: %v", slide.Number, deck.SourceFile, err)
			res = domain.SlideResult{Slide: slide.Number, Warnings: []domain.Warning{{
				Kind:    domain.WarningMalformedSlide,
				Slide:   slide.Number,
				ShapeID: mse.ShapeID,
				Message: mse.Error(),
			}}}
		}
		if year != 0 {
			carry = year
		}
		out.Slides = append(out.Slides, res)
	}
	return out
}

// ExtractSlide extracts one slide. yearHint supplies a year from file or
// deck context and may be zero. Slides without text yield an empty result.
// Corrupt geometry yields a *domain.MalformedShapeError.
func (x *Extractor) ExtractSlide(sourceFile string, slide domain.Slide, yearHint int) (domain.SlideResult, error) {
	res, _, err := x.extract(sourceFile, slide, yearHint)
	return res, err
}

func (x *Extractor) extract(sourceFile string, slide domain.Slide, yearHint int) (domain.SlideResult, int, error) {
	res := domain.SlideResult{Slide: slide.Number}
	if slide.Malformed != "" {
		return res, 0, &domain.MalformedShapeError{Slide: slide.Number, Reason: slide.Malformed}
	}
	for _, s := range slide.Shapes {
		if err := s.Validate(); err != nil {
			return res, 0, err
		}
	}

	g := newGraph(slide, x.opts)
	if len(g.nodes) == 0 {
		return res, 0, nil
	}
	g.mergeSplitDates()
	headers := g.yearHeaders()
	g.classify(x.opts.DateLayouts)
	g.associate()

	fallback := yearHint
	if fallback == 0 {
		fallback = x.opts.DefaultYear
	}
	if fallback == 0 {
		fallback = x.now().Year()
	}
	yearOf := func(s domain.Shape) int {
		if y := yearFor(s, headers); y != 0 {
			return y
		}
		return fallback
	}

	area := g.title()
	e := emitter{sourceFile: sourceFile, slide: slide.Number, area: area}
	for i, n := range g.nodes {
		switch n.role {
		case domain.RoleDate:
			ed, ok := g.edges[i]
			if !ok {
				logger.Debug("slide %d: date %q has no label", slide.Number, n.text)
				res.Warnings = append(res.Warnings, domain.Warning{
					Kind:    domain.WarningUnassociatedDate,
					Slide:   slide.Number,
					ShapeID: n.shape.ID,
					Text:    n.text,
					Message: "no label below, beside or overlapping the date",
				})
				continue
			}
			label := g.nodes[ed.label]
			logger.Debug("slide %d: %q -> %q (%s)", slide.Number, n.text, label.text, ed.rule)
			if n.date.isRange {
				e.span(n.order, cleanTitle(label.text, x.opts.DateLayouts), n.date, n.shape, label.shape, yearOf(n.shape))
			} else {
				e.milestone(n.order, cleanTitle(label.text, x.opts.DateLayouts), n.date, n.shape, label.shape, yearOf(n.shape), ed.confidence)
			}
		case domain.RoleSpanLabel:
			dt, loc, ok := findRange(n.text, x.opts.DateLayouts)
			if !ok || g.pairedWithRange(i, dt) {
				continue
			}
			title := strings.TrimSpace(n.text[:loc[0]] + " " + n.text[loc[1]:])
			e.span(n.order, trimTitle(title, n.text), dt, n.shape, n.shape, yearOf(n.shape))
		case domain.RoleMilestoneLabel, domain.RoleUnknown:
		}
	}

	res.Milestones = e.sortedMilestones()
	res.Spans = e.sortedSpans()
	for _, sp := range res.Spans {
		if sp.Inverted() {
			res.Warnings = append(res.Warnings, domain.Warning{
				Kind:    domain.WarningInvertedSpan,
				Slide:   slide.Number,
				Text:    sp.Title,
				Message: fmt.Sprintf("span starts %s after it ends %s", sp.StartRaw, sp.EndRaw),
			})
		}
	}
	res.Statuses = g.statuses(sourceFile, slide.Number, area)
	res.Caption = Caption(res)

	headerYear := 0
	if len(headers) > 0 {
		headerYear = atoi(headers[0].text)
	}
	return res, headerYear, nil
}

type orderedMilestone struct {
	order int
	rec   domain.MilestoneRecord
}

type orderedSpan struct {
	order int
	rec   domain.SpanRecord
}

type emitter struct {
	sourceFile string
	slide      int
	area       string
	milestones []orderedMilestone
	spans      []orderedSpan
}

func (e *emitter) id(kind string, a, b domain.Shape) string {
	key := fmt.Sprintf("%s|%s|%d|%s|%s", kind, e.sourceFile, e.slide, a.ID, b.ID)
	return uuid.NewSHA1(recordNamespace, []byte(key)).String()
}

func (e *emitter) milestone(order int, title string, dt dateText, date, label domain.Shape, year int, conf float64) {
	e.milestones = append(e.milestones, orderedMilestone{order: order, rec: domain.MilestoneRecord{
		ID:             e.id("milestone", date, label),
		Title:          title,
		RawDate:        dt.raw,
		NormalizedDate: dt.start.resolve(year),
		SourceFile:     e.sourceFile,
		Slide:          e.slide,
		Area:           e.area,
		Confidence:     math.Round(conf*100) / 100,
	}})
}

func (e *emitter) span(order int, title string, dt dateText, date, label domain.Shape, year int) {
	start, end := dt.resolveRange(year)
	e.spans = append(e.spans, orderedSpan{order: order, rec: domain.SpanRecord{
		ID:              e.id("span", date, label),
		Title:           title,
		StartRaw:        dt.startRaw,
		EndRaw:          dt.endRaw,
		StartNormalized: start,
		EndNormalized:   end,
		SourceFile:      e.sourceFile,
		Slide:           e.slide,
		Area:            e.area,
	}})
}

func (e *emitter) sortedMilestones() []domain.MilestoneRecord {
	sort.SliceStable(e.milestones, func(i, j int) bool { return e.milestones[i].order < e.milestones[j].order })
	out := make([]domain.MilestoneRecord, 0, len(e.milestones))
	for _, m := range e.milestones {
		out = append(out, m.rec)
	}
	return out
}

func (e *emitter) sortedSpans() []domain.SpanRecord {
	sort.SliceStable(e.spans, func(i, j int) bool { return e.spans[i].order < e.spans[j].order })
	out := make([]domain.SpanRecord, 0, len(e.spans))
	for _, s := range e.spans {
		out = append(out, s.rec)
	}
	return out
}

// cleanTitle drops an embedded date range from a label.
func cleanTitle(text string, layouts []string) string {
	_, loc, ok := findRange(text, layouts)
	if !ok {
		return text
	}
	return trimTitle(strings.TrimSpace(text[:loc[0]]+" "+text[loc[1]:]), text)
}

func trimTitle(title, original string) string {
	title = strings.Trim(title, " ()[]-–—:,;")
	title = strings.ReplaceAll(title, "()", "")
	title = spaceRe.ReplaceAllString(strings.TrimSpace(title), " ")
	if !hasLetter(title) {
		return original
	}
	return title
}
