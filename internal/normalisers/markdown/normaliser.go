// Package markdown normalises Markdown files into plain prose.
package markdown

import (
	"context"
	"regexp"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

var (
	fenceRe      = regexp.MustCompile("(?m)^```.*$")
	inlineCodeRe = regexp.MustCompile("`([^`]+)`")
	imageRe      = regexp.MustCompile(`!\[([^\]]*)\]\([^)]+\)`)
	linkRe       = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headingRe    = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	emphasisRe   = regexp.MustCompile(`(\*\*|__|\*|~~)`)
	quoteRe      = regexp.MustCompile(`(?m)^>\s?`)
	ruleRe       = regexp.MustCompile(`(?m)^\s*([-*_]\s*){3,}$`)
	bulletRe     = regexp.MustCompile(`(?m)^(\s*)[-*+]\s+`)
	tableSepRe   = regexp.MustCompile(`(?m)^\|?\s*:?-{3,}:?\s*(\|\s*:?-{3,}:?\s*)*\|?\s*$\n?`)
	blankRunRe   = regexp.MustCompile(`\n{3,}`)
)

// Normaliser handles Markdown documents.
type Normaliser struct{}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Higher than plaintext
}

// Normalise strips Markdown syntax and keeps the prose. Fenced code
// content is kept, fence lines are not.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	source := strings.ReplaceAll(string(raw.Content), "\r\n", "\n")
	text := stripMarkdown(source)

	var sections []domain.Section
	if text != "" {
		sections = []domain.Section{{Text: text}}
	}

	return &driven.NormaliseResult{
		Document: normalisers.NewDocument(raw, firstHeading(source), "markdown", sections),
	}, nil
}

// firstHeading returns the first H1 text, or "".
func firstHeading(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "# "))
		}
	}
	return ""
}

func stripMarkdown(content string) string {
	content = fenceRe.ReplaceAllString(content, "")
	content = inlineCodeRe.ReplaceAllString(content, "$1")
	content = imageRe.ReplaceAllString(content, "$1")
	content = linkRe.ReplaceAllString(content, "$1")
	content = headingRe.ReplaceAllString(content, "")
	content = ruleRe.ReplaceAllString(content, "")
	content = bulletRe.ReplaceAllString(content, "$1")
	content = emphasisRe.ReplaceAllString(content, "")
	content = quoteRe.ReplaceAllString(content, "")
	content = tableSepRe.ReplaceAllString(content, "")
	content = blankRunRe.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}
