package domain

import "time"

// RawDocument is a file read from the document folder before extraction.
type RawDocument struct {
	// SourceID names the document folder that produced this file.
	SourceID string

	// URI is the file path.
	URI string

	// MIMEType is the content type derived from the extension.
	MIMEType string

	// Content is the raw bytes.
	Content []byte

	// ModTime is the file modification time.
	ModTime time.Time

	// Metadata contains loader-specific key-value pairs.
	Metadata map[string]any
}

// ChangeType represents the type of document change.
type ChangeType int

const (
	// ChangeCreated indicates a new document.
	ChangeCreated ChangeType = iota

	// ChangeUpdated indicates a modified document.
	ChangeUpdated

	// ChangeDeleted indicates a removed document.
	ChangeDeleted
)

// String returns the change name.
func (c ChangeType) String() string {
	switch c {
	case ChangeCreated:
		return "created"
	case ChangeUpdated:
		return "updated"
	case ChangeDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// RawDocumentChange is a change event from the folder watcher.
type RawDocumentChange struct {
	// Type is the kind of change.
	Type ChangeType

	// Document is the affected document. Content is empty for deletions.
	Document RawDocument
}
