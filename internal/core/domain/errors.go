package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown provider or backend identifier.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrUnsupportedFormat indicates a file whose format no extractor handles.
	// The file is skipped and the rest of the batch continues.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrMalformedShape indicates corrupt slide geometry.
	// Callers skip the slide and continue with the file.
	ErrMalformedShape = errors.New("malformed shape")

	// Index Errors.

	// ErrIndexNotFound indicates no persisted index exists.
	// Callers should build rather than load.
	ErrIndexNotFound = errors.New("index not found")

	// ErrIndexStale indicates the persisted index was built with a different
	// embedding model or dimension than the one configured now.
	ErrIndexStale = errors.New("index stale")

	// ErrRebuildInProgress indicates another rebuild currently holds the build lock.
	ErrRebuildInProgress = errors.New("rebuild in progress")

	// Backend Errors.

	// ErrEmbeddingFailed indicates the embedding collaborator could not embed text.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrRetrievalFailed indicates the question could not be matched against the index.
	ErrRetrievalFailed = errors.New("retrieval failed")

	// ErrGenerationFailed indicates the language model returned an error.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrGenerationTimeout indicates the language model did not answer in time.
	ErrGenerationTimeout = errors.New("generation timed out")

	// ErrRateLimited indicates the API rate limit or quota was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrMalformedResponse indicates a backend answered with an unusable payload.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)

// MalformedShapeError describes a shape whose geometry cannot be reasoned about.
type MalformedShapeError struct {
	Slide   int
	ShapeID string
	Reason  string
}

func (e *MalformedShapeError) Error() string {
	return fmt.Sprintf("malformed shape %q on slide %d: %s", e.ShapeID, e.Slide, e.Reason)
}

// Unwrap lets errors.Is match ErrMalformedShape.
func (e *MalformedShapeError) Unwrap() error {
	return ErrMalformedShape
}
