// Package mock provides an offline LLM that echoes the start of its prompt.
package mock

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Prefix starts every mock answer.
const Prefix = "MOCK RESPONSE: "

// echoRunes is how much of the prompt is echoed back.
const echoRunes = 400

// LLMService answers with Prefix followed by the first part of the prompt.
type LLMService struct{}

// NewLLMService creates the mock LLM.
func NewLLMService() *LLMService {
	return &LLMService{}
}

// Generate echoes the prompt.
func (s *LLMService) Generate(ctx context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r := []rune(prompt)
	if len(r) > echoRunes {
		r = r[:echoRunes]
	}
	return Prefix + string(r), nil
}

// ModelName returns "mock".
func (s *LLMService) ModelName() string {
	return "mock"
}

// Ping always succeeds.
func (s *LLMService) Ping(context.Context) error {
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
