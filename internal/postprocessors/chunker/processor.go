// Package chunker splits normalised documents into overlapping, citable chunks.
package chunker

import (
	"context"
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Default sizing, in characters.
const (
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 50
	DefaultSlack        = 80
)

// Strategy selects how chunk boundaries are chosen.
type Strategy string

const (
	// StrategyBoundary cuts at the latest paragraph, sentence or word break
	// inside the slack window before the target length.
	StrategyBoundary Strategy = "boundary"

	// StrategyRecursive delegates to langchaingo's recursive character splitter.
	StrategyRecursive Strategy = "recursive"
)

// chunkNamespace seeds deterministic chunk IDs.
var chunkNamespace = uuid.MustParse("6f1c7b7e-4a86-5d0e-9b0c-2f3f5b1d8a41")

// Verify interface compliance.
var _ driven.PostProcessor = (*Processor)(nil)

// Processor splits document sections into chunks.
// Each chunk records its source file, character offset into Document.Content
// and the page it came from.
type Processor struct {
	chunkSize int
	overlap   int
	slack     int
	strategy  Strategy
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the target chunk length in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between consecutive chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// WithSlack sets how far back from the target length a break is searched for.
func WithSlack(slack int) Option {
	return func(p *Processor) {
		if slack >= 0 {
			p.slack = slack
		}
	}
}

// WithStrategy selects the boundary strategy.
func WithStrategy(s Strategy) Option {
	return func(p *Processor) {
		if s != "" {
			p.strategy = s
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
		slack:     DefaultSlack,
		strategy:  StrategyBoundary,
	}

	for _, opt := range opts {
		opt(p)
	}

	switch p.strategy {
	case StrategyBoundary, StrategyRecursive:
	default:
		return nil, fmt.Errorf("%w: unknown chunking strategy %q", domain.ErrInvalidInput, p.strategy)
	}

	// Overlap must leave room to advance.
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}
	if p.slack >= p.chunkSize {
		p.slack = p.chunkSize / 2
	}

	return p, nil
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits the document into chunks, one section at a time so every
// chunk carries a single page. Input chunks are ignored.
func (p *Processor) Process(ctx context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	sections := doc.Sections
	if len(sections) == 0 {
		if doc.Content == "" {
			return nil, nil
		}
		sections = []domain.Section{{Text: doc.Content}}
	}

	var chunks []domain.Chunk
	base := 0
	for i, section := range sections {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if i > 0 {
			base += utf8.RuneCountInString(domain.SectionSeparator)
		}

		spans, err := p.split(section.Text)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", doc.URI, err)
		}
		for _, s := range spans {
			offset := base + s.offset
			chunks = append(chunks, domain.Chunk{
				ID:         chunkID(doc.URI, offset),
				DocumentID: doc.ID,
				Content:    s.text,
				SourceFile: doc.URI,
				Offset:     offset,
				Page:       section.Page,
				Position:   len(chunks),
				Metadata:   map[string]any{"strategy": string(p.strategy)},
			})
		}
		base += utf8.RuneCountInString(section.Text)
	}
	return chunks, nil
}

func (p *Processor) split(text string) ([]span, error) {
	if p.strategy == StrategyRecursive {
		return splitRecursive(text, p.chunkSize, p.overlap)
	}
	return splitBoundary(text, p.chunkSize, p.overlap, p.slack), nil
}

// chunkID is stable for a given source file and offset.
func chunkID(source string, offset int) string {
	return uuid.NewSHA1(chunkNamespace, []byte(source+"|"+strconv.Itoa(offset))).String()
}
