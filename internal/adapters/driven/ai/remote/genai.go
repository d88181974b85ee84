package remote

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// GenAIError classifies an error returned by the Gemini SDK the same way
// CheckStatus classifies raw HTTP responses.
func GenAIError(err error, kind error) error {
	const provider = "google"

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return classifyAPIError(provider, apiErr, kind)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return classifyAPIError(provider, *apiErrPtr, kind)
	}
	return TransportError(provider, err, kind)
}

func classifyAPIError(provider string, e genai.APIError, kind error) error {
	if e.Code == http.StatusTooManyRequests || e.Status == "RESOURCE_EXHAUSTED" {
		return fmt.Errorf("%s: %w: %s", provider, domain.ErrRateLimited, e.Message)
	}
	return fmt.Errorf("%s: %w (status %d): %s", provider, kind, e.Code, e.Message)
}
