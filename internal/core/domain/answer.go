package domain

import (
	"fmt"
	"strings"
)

// Source is a citation for an answer.
type Source struct {
	File string
	Page int
}

// String renders the citation as "file" or "file, page N".
func (s Source) String() string {
	if s.Page > 0 {
		return fmt.Sprintf("%s, page %d", s.File, s.Page)
	}
	return s.File
}

// Answer is the orchestrator's response to a question.
type Answer struct {
	// Text is the generated or structured answer.
	Text string

	// Sources are the distinct citations in rank order.
	Sources []Source

	// Structured is true when the answer came from the timeline store
	// instead of the language model.
	Structured bool

	// NoSources is true when retrieval found nothing relevant.
	// It is a successful outcome, distinct from a backend failure.
	NoSources bool
}

// Format renders the answer text followed by its citation list.
func (a Answer) Format() string {
	if len(a.Sources) == 0 {
		return a.Text
	}
	var b strings.Builder
	b.WriteString(a.Text)
	b.WriteString("\n\nSources:")
	for _, s := range a.Sources {
		b.WriteString("\n- ")
		b.WriteString(s.String())
	}
	return b.String()
}

// Turn roles.
const (
	TurnUser      = "user"
	TurnAssistant = "assistant"
)

// Turn is one message of chat history.
type Turn struct {
	Role    string
	Content string
}
