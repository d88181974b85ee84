package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// QueryService answers questions over the indexed documents.
type QueryService interface {
	// Answer returns a grounded answer with its sources. A question with no
	// relevant chunks succeeds with Answer.NoSources set. Backend failures
	// wrap domain.ErrRetrievalFailed, domain.ErrGenerationFailed or
	// domain.ErrGenerationTimeout.
	Answer(ctx context.Context, question string, history []domain.Turn) (domain.Answer, error)
}
