package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// DocumentSource reads files from the document folder.
type DocumentSource interface {
	// Root returns the folder being read.
	Root() string

	// Validate checks the folder exists and is readable.
	Validate(ctx context.Context) error

	// FullSync streams every supported file in deterministic path order.
	// Per-file read failures arrive on the error channel; both channels close when done.
	FullSync(ctx context.Context) (<-chan domain.RawDocument, <-chan error)

	// Watch streams change events until ctx is cancelled.
	Watch(ctx context.Context) (<-chan domain.RawDocumentChange, error)

	// Close releases resources.
	Close() error
}
