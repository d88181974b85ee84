// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/docqa/internal/core/domain"
)

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewChat is the question and answer transcript.
	ViewChat ViewType = iota
	// ViewTimeline browses extracted milestones, spans and statuses.
	ViewTimeline
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewChat:
		return "chat"
	case ViewTimeline:
		return "timeline"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// QuestionSubmitted is sent when the user asks a question.
type QuestionSubmitted struct {
	Question string
}

// AnswerReceived carries the reply to a question back to the model.
type AnswerReceived struct {
	Question string
	Answer   domain.Answer
	Err      error
}

// TimelineKind selects which timeline table is shown.
type TimelineKind int

const (
	// KindMilestones lists point-in-time events.
	KindMilestones TimelineKind = iota
	// KindSpans lists intervals.
	KindSpans
	// KindStatuses lists status cards.
	KindStatuses
)

// String returns the table name.
func (k TimelineKind) String() string {
	switch k {
	case KindMilestones:
		return "milestones"
	case KindSpans:
		return "spans"
	case KindStatuses:
		return "statuses"
	default:
		return "unknown"
	}
}

// Next cycles to the following kind.
func (k TimelineKind) Next() TimelineKind {
	return (k + 1) % 3
}

// Prev cycles to the preceding kind.
func (k TimelineKind) Prev() TimelineKind {
	return (k + 2) % 3
}

// TimelineLoaded carries one timeline table. Only the slice matching Kind
// is populated.
type TimelineLoaded struct {
	Kind       TimelineKind
	Milestones []domain.MilestoneRecord
	Spans      []domain.SpanRecord
	Statuses   []domain.StatusRecord
	Err        error
}

// IndexStatusLoaded carries the active index summary for the status bar.
type IndexStatusLoaded struct {
	Ready  bool
	Chunks int
	Model  string
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
