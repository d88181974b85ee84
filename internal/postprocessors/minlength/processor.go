// Package minlength drops chunks too short to be worth embedding.
package minlength

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// DefaultMinChars keeps any chunk with visible text.
const DefaultMinChars = 1

var _ driven.PostProcessor = (*Processor)(nil)

// Processor filters chunks whose trimmed content is shorter than a minimum.
type Processor struct {
	minChars int
}

// New creates a filter keeping chunks of at least minChars non-blank characters.
func New(minChars int) *Processor {
	if minChars < 1 {
		minChars = DefaultMinChars
	}
	return &Processor{minChars: minChars}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "minlength"
}

// Process drops short chunks and renumbers positions. IDs and offsets are kept.
func (p *Processor) Process(_ context.Context, _ *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	out := chunks[:0:0]
	for _, c := range chunks {
		if utf8.RuneCountInString(strings.TrimSpace(c.Content)) < p.minChars {
			continue
		}
		c.Position = len(out)
		out = append(out, c)
	}
	return out, nil
}
