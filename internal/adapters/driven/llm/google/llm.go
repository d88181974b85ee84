// Package google provides an LLM service adapter for the Gemini API.
package google

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/custodia-labs/docqa/internal/adapters/driven/ai/remote"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.0-flash"

// generateFunc matches genai.Models.GenerateContent.
type generateFunc func(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

// LLMConfig holds configuration for the Gemini LLM service.
type LLMConfig struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// Model is the Gemini model (default: gemini-2.0-flash).
	Model string
}

// LLMService generates text with the Gemini API.
type LLMService struct {
	generate generateFunc
	model    string
}

// NewLLMService creates a Gemini client for text generation.
func NewLLMService(ctx context.Context, cfg LLMConfig) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: google API key is required", domain.ErrInvalidInput)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return newService(client.Models.GenerateContent, cfg.Model), nil
}

func newService(generate generateFunc, model string) *LLMService {
	if model == "" {
		model = DefaultModel
	}
	return &LLMService{generate: generate, model: model}
}

// Generate produces text completion from a prompt.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	temperature := float32(opts.Temperature)
	cfg := &genai.GenerateContentConfig{
		Temperature:   &temperature,
		StopSequences: opts.StopWords,
	}
	if opts.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(opts.MaxTokens)
	}

	resp, err := s.generate(ctx, s.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", remote.GenAIError(err, domain.ErrGenerationFailed)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", remote.Malformed("google", "no candidates returned")
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		reason := ""
		if c := resp.Candidates[0]; c != nil {
			reason = string(c.FinishReason)
		}
		return "", remote.Malformed("google", "empty response (finish reason %q)", reason)
	}
	return text, nil
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping issues a one-token generation.
func (s *LLMService) Ping(ctx context.Context) error {
	_, err := s.generate(ctx, s.model, genai.Text("ping"), &genai.GenerateContentConfig{MaxOutputTokens: 1})
	if err != nil {
		return remote.GenAIError(err, domain.ErrLLMUnavailable)
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
