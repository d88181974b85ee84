// Package xlsx normalises Excel workbooks, one section per sheet.
package xlsx

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
	"github.com/custodia-labs/docqa/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// MIMEType is the XLSX content type.
const MIMEType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Normaliser handles XLSX workbooks.
type Normaliser struct{}

// New creates a new XLSX normaliser.
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

// Normalise renders each sheet as text. The first non-empty row is taken
// as the header and later rows are written as "Header: value" pairs so
// each line stands on its own in a chunk.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	f, err := excelize.OpenReader(bytes.NewReader(raw.Content))
	if err != nil {
		return nil, fmt.Errorf("%w: xlsx %s: %v", domain.ErrInvalidInput, raw.URI, err)
	}
	defer f.Close()

	var sections []domain.Section
	sheets := f.GetSheetList()
	for i, sheet := range sheets {
		rows, err := f.GetRows(sheet)
		if err != nil {
			logger.Warn("xlsx: %s sheet %q: %v", raw.URI, sheet, err)
			continue
		}
		if text := renderSheet(sheet, rows); text != "" {
			sections = append(sections, domain.Section{Text: text, Page: i + 1})
		}
	}

	doc := normalisers.NewDocument(raw, "", "xlsx", sections)
	doc.Metadata["sheets"] = len(sheets)
	return &driven.NormaliseResult{Document: doc}, nil
}

func renderSheet(name string, rows [][]string) string {
	var header []string
	var lines []string
	for _, row := range rows {
		row = trimRow(row)
		if len(row) == 0 {
			continue
		}
		if header == nil {
			header = row
			lines = append(lines, strings.Join(row, " | "))
			continue
		}
		pairs := make([]string, 0, len(row))
		for c, v := range row {
			if v == "" {
				continue
			}
			if c < len(header) && header[c] != "" {
				pairs = append(pairs, header[c]+": "+v)
			} else {
				pairs = append(pairs, v)
			}
		}
		lines = append(lines, strings.Join(pairs, "; "))
	}
	if len(lines) == 0 {
		return ""
	}
	return "Sheet: " + name + "\n" + strings.Join(lines, "\n")
}

func trimRow(row []string) []string {
	out := make([]string, len(row))
	last := -1
	for i, v := range row {
		out[i] = strings.TrimSpace(v)
		if out[i] != "" {
			last = i
		}
	}
	return out[:last+1]
}
