package domain

import "time"

// Document represents an extracted document with metadata.
// It is the canonical representation after normalisation.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// SourceID names the document folder that produced this document.
	SourceID string

	// URI is the original location (file path).
	URI string

	// Title is the human-readable title.
	Title string

	// Content is the full text content after normalisation.
	// This is the complete document text before chunking.
	Content string

	// Sections split Content by page, slide or sheet.
	// Concatenating section texts with a blank line yields Content.
	Sections []Section

	// Slides carries positioned shapes for presentation formats.
	Slides []Slide

	// Metadata contains arbitrary key-value pairs.
	Metadata map[string]any

	// CreatedAt is when the document was extracted.
	CreatedAt time.Time
}

// Section is a run of document text tied to a page, slide or sheet.
type Section struct {
	// Text is the section content.
	Text string

	// Page is the 1-based page, slide or sheet ordinal. Zero means unpaged.
	Page int
}

// SectionSeparator joins sections into Document.Content.
const SectionSeparator = "\n\n"

// JoinSections builds Document.Content from sections.
func JoinSections(sections []Section) string {
	n := 0
	for _, s := range sections {
		n += len(s.Text) + len(SectionSeparator)
	}
	buf := make([]byte, 0, n)
	for i, s := range sections {
		if i > 0 {
			buf = append(buf, SectionSeparator...)
		}
		buf = append(buf, s.Text...)
	}
	return string(buf)
}

// Chunk represents a retrievable unit within a document.
type Chunk struct {
	// ID is deterministic for a given source file and offset.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Content is the text content of this chunk.
	Content string

	// SourceFile is the document path used for citation.
	SourceFile string

	// Offset is the character index of Content within the document text.
	Offset int

	// Page is the page, slide or sheet the chunk starts on. Zero means unpaged.
	Page int

	// Position is the ordinal position within the document.
	Position int

	// Embedding is the vector representation for semantic search.
	Embedding []float32

	// Metadata contains chunk-specific key-value pairs.
	Metadata map[string]any
}

// ScoredChunk is a search hit with its similarity to the query.
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}
