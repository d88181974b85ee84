package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure TimelineStore implements the interface.
var _ driven.TimelineStore = (*TimelineStore)(nil)

// TimelineStore is an in-memory implementation of driven.TimelineStore.
// Filtering and ordering match the SQLite store.
type TimelineStore struct {
	mu         sync.RWMutex
	milestones []domain.MilestoneRecord
	spans      []domain.SpanRecord
	statuses   []domain.StatusRecord
}

// NewTimelineStore creates an empty timeline store.
func NewTimelineStore() *TimelineStore {
	return &TimelineStore{}
}

// AddMilestones appends milestone records.
func (s *TimelineStore) AddMilestones(_ context.Context, records []domain.MilestoneRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.milestones = append(s.milestones, records...)
	return nil
}

// AddSpans appends span records.
func (s *TimelineStore) AddSpans(_ context.Context, records []domain.SpanRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spans = append(s.spans, records...)
	return nil
}

// AddStatuses appends status card records.
func (s *TimelineStore) AddStatuses(_ context.Context, records []domain.StatusRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses = append(s.statuses, records...)
	return nil
}

// DeleteBySource removes every record from one source file.
func (s *TimelineStore) DeleteBySource(_ context.Context, sourceFile string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.milestones = without(s.milestones, func(m domain.MilestoneRecord) bool { return m.SourceFile == sourceFile })
	s.spans = without(s.spans, func(sp domain.SpanRecord) bool { return sp.SourceFile == sourceFile })
	s.statuses = without(s.statuses, func(st domain.StatusRecord) bool { return st.SourceFile == sourceFile })
	return nil
}

// Reset removes every record.
func (s *TimelineStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.milestones, s.spans, s.statuses = nil, nil, nil
	return nil
}

// Milestones returns milestones matching filter, ordered by date.
func (s *TimelineStore) Milestones(_ context.Context, f domain.TimelineFilter) ([]domain.MilestoneRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.MilestoneRecord
	for _, m := range s.milestones {
		if !matchCommon(f, m.Area, m.SourceFile) || !matchTitle(f, m.Title) {
			continue
		}
		if (f.From != nil || f.To != nil) && !inWindow(f, m.NormalizedDate, m.NormalizedDate) {
			continue
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return dateLess(out[i].NormalizedDate, out[j].NormalizedDate,
			out[i].SourceFile, out[j].SourceFile, out[i].Slide, out[j].Slide)
	})
	return out, nil
}

// Spans returns spans matching filter, ordered by start date.
func (s *TimelineStore) Spans(_ context.Context, f domain.TimelineFilter) ([]domain.SpanRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.SpanRecord
	for _, sp := range s.spans {
		if !matchCommon(f, sp.Area, sp.SourceFile) || !matchTitle(f, sp.Title) {
			continue
		}
		if f.From != nil || f.To != nil {
			start, end := sp.StartNormalized, sp.EndNormalized
			if start == nil {
				start = end
			}
			if end == nil {
				end = start
			}
			if !inWindow(f, start, end) {
				continue
			}
		}
		out = append(out, sp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return dateLess(out[i].StartNormalized, out[j].StartNormalized,
			out[i].SourceFile, out[j].SourceFile, out[i].Slide, out[j].Slide)
	})
	return out, nil
}

// Statuses returns status cards matching filter, ordered by area.
func (s *TimelineStore) Statuses(_ context.Context, f domain.TimelineFilter) ([]domain.StatusRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.StatusRecord
	for _, st := range s.statuses {
		if !matchCommon(f, st.Area, st.SourceFile) {
			continue
		}
		if f.Status != "" && !strings.EqualFold(st.Status, f.Status) {
			continue
		}
		out = append(out, st)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Area != b.Area {
			return a.Area < b.Area
		}
		if a.SourceFile != b.SourceFile {
			return a.SourceFile < b.SourceFile
		}
		return a.Slide < b.Slide
	})
	return out, nil
}

// Close is a no-op.
func (s *TimelineStore) Close() error {
	return nil
}

func without[T any](in []T, drop func(T) bool) []T {
	out := in[:0]
	for _, v := range in {
		if !drop(v) {
			out = append(out, v)
		}
	}
	return out
}

func matchCommon(f domain.TimelineFilter, area, source string) bool {
	if f.Area != "" && !strings.Contains(strings.ToLower(area), strings.ToLower(f.Area)) {
		return false
	}
	return f.SourceFile == "" || f.SourceFile == source
}

func matchTitle(f domain.TimelineFilter, title string) bool {
	if f.TitleExact != "" && title != f.TitleExact {
		return false
	}
	return f.TitleContains == "" || strings.Contains(strings.ToLower(title), strings.ToLower(f.TitleContains))
}

// inWindow reports whether [start, end] overlaps the filter window.
// Unresolved dates never match a window.
func inWindow(f domain.TimelineFilter, start, end *time.Time) bool {
	if start == nil || end == nil {
		return false
	}
	if f.From != nil && end.Before(*f.From) {
		return false
	}
	return f.To == nil || !start.After(*f.To)
}

func dateLess(a, b *time.Time, srcA, srcB string, slideA, slideB int) bool {
	switch {
	case a == nil && b != nil:
		return false
	case a != nil && b == nil:
		return true
	case a != nil && !a.Equal(*b):
		return a.Before(*b)
	}
	if srcA != srcB {
		return srcA < srcB
	}
	return slideA < slideB
}
