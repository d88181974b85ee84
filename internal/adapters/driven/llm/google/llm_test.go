package google

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

func reply(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: genai.NewContentFromText(text, genai.RoleModel),
	}}}
}

func TestGenerate(t *testing.T) {
	var cfgSeen *genai.GenerateContentConfig
	svc := newService(func(_ context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		assert.Equal(t, DefaultModel, model)
		require.Len(t, contents, 1)
		assert.Equal(t, "the prompt", contents[0].Parts[0].Text)
		cfgSeen = cfg
		return reply("grounded answer"), nil
	}, "")

	out, err := svc.Generate(context.Background(), "the prompt", driven.GenerateOptions{MaxTokens: 256, Temperature: 0.2})
	require.NoError(t, err)
	assert.Equal(t, "grounded answer", out)
	assert.Equal(t, int32(256), cfgSeen.MaxOutputTokens)
	assert.InDelta(t, 0.2, *cfgSeen.Temperature, 1e-6)
}

func TestGenerate_Failures(t *testing.T) {
	svc := newService(func(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		return nil, genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED"}
	}, "gemini-x")
	_, err := svc.Generate(context.Background(), "p", driven.GenerateOptions{})
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.ErrorIs(t, svc.Ping(context.Background()), domain.ErrRateLimited)

	svc = newService(func(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		return &genai.GenerateContentResponse{}, nil
	}, "gemini-x")
	_, err = svc.Generate(context.Background(), "p", driven.GenerateOptions{})
	assert.ErrorIs(t, err, domain.ErrMalformedResponse)

	svc = newService(func(ctx context.Context, _ string, _ []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		return nil, context.DeadlineExceeded
	}, "gemini-x")
	_, err = svc.Generate(context.Background(), "p", driven.GenerateOptions{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
