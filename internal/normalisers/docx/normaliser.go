// Package docx normalises Word documents.
package docx

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// MIMEType is the DOCX content type.
const MIMEType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Normaliser handles DOCX documents.
type Normaliser struct{}

// New creates a new DOCX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{MIMEType}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise extracts paragraph and table text from word/document.xml.
// Word has no stable page model, so the result is one unpaged section.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	zr, err := normalisers.OpenZip(raw.Content)
	if err != nil {
		return nil, err
	}
	body, err := normalisers.ReadZipEntry(zr, "word/document.xml")
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, fmt.Errorf("%w: word/document.xml missing", domain.ErrInvalidInput)
	}

	text, err := extractText(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	var sections []domain.Section
	if text != "" {
		sections = []domain.Section{{Text: text}}
	}

	return &driven.NormaliseResult{
		Document: normalisers.NewDocument(raw, normalisers.CoreTitle(zr), "docx", sections),
	}, nil
}

// extractText walks the WordprocessingML token stream. Paragraphs end with
// a newline; table cells are separated by tabs.
func extractText(data []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var out, para strings.Builder
	inText := false
	cells := 0

	flush := func() {
		line := strings.TrimRight(para.String(), " \t")
		para.Reset()
		if line == "" {
			return
		}
		out.WriteString(line)
		out.WriteByte('\n')
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				para.WriteByte('\t')
			case "br", "cr":
				para.WriteByte('\n')
			case "tr":
				cells = 0
			case "tc":
				if cells > 0 {
					para.WriteByte('\t')
				}
				cells++
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				// Paragraphs inside a table cell stay on the row line.
				if cells == 0 {
					flush()
				} else {
					para.WriteByte(' ')
				}
			case "tr":
				cells = 0
				flush()
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		}
	}
	flush()
	return strings.TrimSpace(out.String()), nil
}
