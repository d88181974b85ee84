package services

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Question shapes the planner recognises.
var (
	statusQuestionRe = regexp.MustCompile(`(?i)\b(red|at risk|blocked)\b`)
	whenQuestionRe   = regexp.MustCompile(`(?i)\bwhen\b|\bdate\b|\bdeadline\b|\brange\b|\bfrom\b.*\bto\b`)
	nextDaysRe       = regexp.MustCompile(`(?i)\bnext\s+(\d{1,3})\s+days?\b`)
	inMonthRe        = regexp.MustCompile(`(?i)\bin\s+([a-z]{3,9})\.?\b`)
	betweenRe        = regexp.MustCompile(`(?i)\b(?:between|from)\s+([a-z]{3,9}\.?\s+\d{1,2}|\d{4}-\d{2}-\d{2})\s+(?:and|to)\s+([a-z]{3,9}\.?\s+\d{1,2}|\d{4}-\d{2}-\d{2})`)

	// subjectLeadRe strips the interrogative lead-in of a WHEN question.
	subjectLeadRe = regexp.MustCompile(`(?i)^\s*(?:(?:when|what)\b\s*(?:(?:is|are|was|were|will|does|do|did)\b\s*)?)?(?:the\s+)?(?:(?:date|deadline|range|timeline)\s+(?:of|for)\s+)?(?:the\s+)?`)
	subjectTailRe = regexp.MustCompile(`(?i)\s+(?:be\s+)?(?:due|scheduled|planned|happening|happen|start|end|take place|land)\s*$`)
)

var monthNames = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
}

type intentKind int

const (
	intentNone intentKind = iota
	intentStatus
	intentWindow
	intentWhen
)

// intent is what the planner understood from a question.
type intent struct {
	kind    intentKind
	status  string
	from    time.Time
	to      time.Time
	subject string
}

// Planner answers timeline questions from the structured store before
// falling back to retrieval.
type Planner struct {
	defaultYear int
	now         func() time.Time
}

// NewPlanner creates a planner. defaultYear resolves month-only dates;
// zero means the current year. now may be nil.
func NewPlanner(defaultYear int, now func() time.Time) *Planner {
	if now == nil {
		now = time.Now
	}
	return &Planner{defaultYear: defaultYear, now: now}
}

func (p *Planner) year() int {
	if p.defaultYear != 0 {
		return p.defaultYear
	}
	return p.now().Year()
}

// classify detects status questions first, then date windows, then WHEN lookups.
func (p *Planner) classify(question string) intent {
	if m := statusQuestionRe.FindStringSubmatch(question); m != nil {
		status := "At Risk"
		if strings.EqualFold(m[1], "blocked") {
			status = "Blocked"
		}
		return intent{kind: intentStatus, status: status}
	}
	if from, to, ok := p.window(question); ok {
		return intent{kind: intentWindow, from: from, to: to}
	}
	if whenQuestionRe.MatchString(question) {
		if subject := extractSubject(question); subject != "" {
			return intent{kind: intentWhen, subject: subject}
		}
	}
	return intent{}
}

// window returns the inclusive date range a question asks about.
func (p *Planner) window(question string) (time.Time, time.Time, bool) {
	if m := nextDaysRe.FindStringSubmatch(question); m != nil {
		n, _ := strconv.Atoi(m[1])
		today := truncateDay(p.now())
		return today, today.AddDate(0, 0, n), true
	}

	if m := inMonthRe.FindStringSubmatch(question); m != nil {
		if month, ok := parseMonth(m[1]); ok {
			start := time.Date(p.year(), month, 1, 0, 0, 0, 0, time.UTC)
			return start, start.AddDate(0, 1, -1), true
		}
	}

	if m := betweenRe.FindStringSubmatch(question); m != nil {
		from, okFrom := p.parseDateish(m[1])
		to, okTo := p.parseDateish(m[2])
		if okFrom && okTo {
			return from, to, true
		}
	}
	return time.Time{}, time.Time{}, false
}

// parseDateish accepts "Aug 5", "August 5th" or an ISO date.
func (p *Planner) parseDateish(s string) (time.Time, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ".", ""))
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	parts := strings.Fields(s)
	if len(parts) != 2 {
		return time.Time{}, false
	}
	month, ok := parseMonth(parts[0])
	if !ok {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(strings.TrimRight(parts[1], "stndrh"))
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, false
	}
	return time.Date(p.year(), month, day, 0, 0, 0, 0, time.UTC), true
}

func parseMonth(s string) (time.Month, bool) {
	s = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(s), "."))
	if m, ok := monthNames[s]; ok {
		return m, true
	}
	if len(s) == 3 {
		for name, m := range monthNames {
			if strings.HasPrefix(name, s) {
				return m, true
			}
		}
	}
	return 0, false
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// extractSubject reduces "When is the production cutover?" to "production cutover".
func extractSubject(question string) string {
	s := strings.TrimSpace(question)
	s = strings.TrimRight(s, "?!. ")
	s = subjectLeadRe.ReplaceAllString(s, "")
	s = subjectTailRe.ReplaceAllString(s, "")
	s = strings.Trim(s, `"'“”‘’ `)
	switch strings.ToLower(s) {
	case "", "date", "deadline", "range", "timeline", "it", "that":
		return ""
	}
	return s
}

// Answer returns a structured answer when the question matches a known
// shape and the store has matching rows. ok is false when retrieval
// should handle the question instead.
func (p *Planner) Answer(ctx context.Context, store driven.TimelineStore, question string) (domain.Answer, bool, error) {
	in := p.classify(question)
	switch in.kind {
	case intentStatus:
		return p.statusAnswer(ctx, store, in)
	case intentWindow:
		from, to := in.from, in.to
		return p.recordsAnswer(ctx, store, domain.TimelineFilter{From: &from, To: &to}, true)
	case intentWhen:
		return p.recordsAnswer(ctx, store, domain.TimelineFilter{TitleContains: in.subject}, false)
	case intentNone:
	}
	return domain.Answer{}, false, nil
}

func (p *Planner) statusAnswer(ctx context.Context, store driven.TimelineStore, in intent) (domain.Answer, bool, error) {
	rows, err := store.Statuses(ctx, domain.TimelineFilter{Status: in.status})
	if err != nil || len(rows) == 0 {
		return domain.Answer{}, false, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Teams/areas marked **%s**:", in.status)
	var sources sourceSet
	for _, r := range rows {
		area := r.Area
		if area == "" {
			area = "(unlabelled)"
		}
		fmt.Fprintf(&b, "\n- Slide %d: %s", r.Slide, area)
		sources.add(r.SourceFile, r.Slide)
	}
	return domain.Answer{Text: b.String(), Sources: sources.list, Structured: true}, true, nil
}

// recordsAnswer lists milestones and spans matching filter. Window
// questions only list milestones whose date is known.
func (p *Planner) recordsAnswer(ctx context.Context, store driven.TimelineStore, filter domain.TimelineFilter, datedOnly bool) (domain.Answer, bool, error) {
	milestones, err := store.Milestones(ctx, filter)
	if err != nil {
		return domain.Answer{}, false, err
	}
	spans, err := store.Spans(ctx, filter)
	if err != nil {
		return domain.Answer{}, false, err
	}

	var sources sourceSet
	var parts []string
	if lines := milestoneLines(milestones, datedOnly, &sources); len(lines) > 0 {
		parts = append(parts, "**Milestones:**")
		parts = append(parts, lines...)
	}
	if lines := spanLines(spans, &sources); len(lines) > 0 {
		parts = append(parts, "**Spans:**")
		parts = append(parts, lines...)
	}
	if len(parts) == 0 {
		return domain.Answer{}, false, nil
	}
	return domain.Answer{Text: strings.Join(parts, "\n"), Sources: sources.list, Structured: true}, true, nil
}

func milestoneLines(rows []domain.MilestoneRecord, datedOnly bool, sources *sourceSet) []string {
	seen := make(map[string]bool)
	var lines []string
	for _, r := range rows {
		if datedOnly && r.NormalizedDate == nil {
			continue
		}
		when := r.RawDate
		if r.NormalizedDate != nil {
			when = r.NormalizedDate.Format("2006-01-02")
		}
		key := fmt.Sprintf("%d|%s|%s", r.Slide, r.Title, when)
		if seen[key] {
			continue
		}
		seen[key] = true
		sources.add(r.SourceFile, r.Slide)
		if when == "" {
			lines = append(lines, fmt.Sprintf("- Slide %d: **%s**", r.Slide, r.Title))
			continue
		}
		lines = append(lines, fmt.Sprintf("- Slide %d: **%s** (%s)", r.Slide, r.Title, when))
	}
	return lines
}

func spanLines(rows []domain.SpanRecord, sources *sourceSet) []string {
	seen := make(map[string]bool)
	var lines []string
	for _, r := range rows {
		start, end := endpoint(r.StartNormalized, r.StartRaw), endpoint(r.EndNormalized, r.EndRaw)
		key := fmt.Sprintf("%d|%s|%s|%s", r.Slide, r.Title, start, end)
		if seen[key] {
			continue
		}
		seen[key] = true
		sources.add(r.SourceFile, r.Slide)
		if start == "" && end == "" {
			lines = append(lines, fmt.Sprintf("- Slide %d: **%s**", r.Slide, r.Title))
			continue
		}
		lines = append(lines, fmt.Sprintf("- Slide %d: **%s** (%s → %s)", r.Slide, r.Title, start, end))
	}
	return lines
}

func endpoint(t *time.Time, raw string) string {
	if t != nil {
		return t.Format("2006-01-02")
	}
	return raw
}

// sourceSet collects distinct citations in first-seen order.
type sourceSet struct {
	seen map[domain.Source]bool
	list []domain.Source
}

func (s *sourceSet) add(file string, page int) {
	src := domain.Source{File: filepath.Base(file), Page: page}
	if file == "" {
		src.File = "unknown"
	}
	if s.seen == nil {
		s.seen = make(map[domain.Source]bool)
	}
	if !s.seen[src] {
		s.seen[src] = true
		s.list = append(s.list, src)
	}
}
