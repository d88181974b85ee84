package normalisers

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

var documentNamespace = uuid.MustParse("6f1c1d1e-5a0b-4b8e-9d0c-0b7f3b1f2a60")

// DocumentID derives a stable document ID from its path.
func DocumentID(uri string) string {
	return uuid.NewSHA1(documentNamespace, []byte(uri)).String()
}

// NewDocument builds a Document from raw with the given sections.
// Content is the sections joined by domain.SectionSeparator.
func NewDocument(raw *domain.RawDocument, title, format string, sections []domain.Section) domain.Document {
	if title == "" {
		title = TitleFromURI(raw.URI)
	}
	meta := make(map[string]any, len(raw.Metadata)+2)
	for k, v := range raw.Metadata {
		meta[k] = v
	}
	meta["mime_type"] = raw.MIMEType
	meta["format"] = format

	return domain.Document{
		ID:        DocumentID(raw.URI),
		SourceID:  raw.SourceID,
		URI:       raw.URI,
		Title:     title,
		Content:   domain.JoinSections(sections),
		Sections:  sections,
		Metadata:  meta,
		CreatedAt: time.Now(),
	}
}

// TitleFromURI derives a readable title from a file name.
func TitleFromURI(uri string) string {
	name := filepath.Base(uri)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.ReplaceAll(name, "_", " ")
	return strings.ReplaceAll(name, "-", " ")
}
