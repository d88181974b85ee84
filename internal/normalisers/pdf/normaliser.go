// Package pdf normalises PDF documents, one section per page.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
	"github.com/custodia-labs/docqa/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

var licenseOnce sync.Once

// PageExtractor returns the text of each page in order.
type PageExtractor func(content []byte) ([]string, error)

// Normaliser handles PDF documents.
type Normaliser struct {
	extract PageExtractor
}

// Option configures a Normaliser.
type Option func(*Normaliser)

// WithPageExtractor replaces the unipdf text extractor.
func WithPageExtractor(fn PageExtractor) Option {
	return func(n *Normaliser) { n.extract = fn }
}

// New creates a PDF normaliser. licenseKey is the UniDoc metered key;
// it is applied once per process.
func New(licenseKey string, opts ...Option) *Normaliser {
	n := &Normaliser{extract: extractPages}
	for _, opt := range opts {
		opt(n)
	}
	if licenseKey != "" {
		licenseOnce.Do(func() {
			if err := license.SetMeteredKey(licenseKey); err != nil {
				logger.Warn("pdf: setting unidoc license: %v", err)
			}
		})
	}
	return n
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"application/pdf"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise extracts text page by page. Blank pages produce no section but
// page numbers of later pages are preserved.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	pages, err := n.extract(raw.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: pdf %s: %v", domain.ErrInvalidInput, raw.URI, err)
	}

	var sections []domain.Section
	for i, text := range pages {
		text = strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
		if text == "" {
			continue
		}
		sections = append(sections, domain.Section{Text: text, Page: i + 1})
	}

	doc := normalisers.NewDocument(raw, "", "pdf", sections)
	doc.Metadata["pages"] = len(pages)
	return &driven.NormaliseResult{Document: doc}, nil
}

// extractPages reads every page with unipdf. A page that fails to extract
// is logged and left blank.
func extractPages(content []byte) ([]string, error) {
	reader, err := model.NewPdfReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}

	numPages, err := reader.GetNumPages()
	if err != nil {
		return nil, err
	}

	pages := make([]string, numPages)
	for i := 1; i <= numPages; i++ {
		page, err := reader.GetPage(i)
		if err != nil {
			logger.Warn("pdf: page %d: %v", i, err)
			continue
		}
		ex, err := extractor.New(page)
		if err != nil {
			logger.Warn("pdf: page %d: %v", i, err)
			continue
		}
		text, err := ex.ExtractText()
		if err != nil {
			logger.Warn("pdf: page %d: %v", i, err)
			continue
		}
		pages[i-1] = text
	}
	return pages, nil
}
