package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func TestInit_DefaultsRunOffline(t *testing.T) {
	result, err := Init(context.Background(), domain.DefaultAppSettings())
	require.NoError(t, err)
	defer result.Close()

	assert.Equal(t, "hashing-v1", result.EmbeddingService.ModelName())
	assert.Equal(t, 384, result.EmbeddingService.Dimensions())
	assert.Equal(t, "mock", result.LLMService.ModelName())
}

func TestInitResult_CloseWithNilServices(t *testing.T) {
	assert.NoError(t, (&InitResult{}).Close())
}

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name      string
		settings  *domain.EmbeddingSettings
		wantNil   bool
		wantModel string
	}{
		{name: "nil settings", settings: nil, wantNil: true},
		{name: "unconfigured", settings: &domain.EmbeddingSettings{}, wantNil: true},
		{name: "mock cannot embed", settings: &domain.EmbeddingSettings{Provider: domain.AIProviderMock}, wantNil: true},
		{name: "openai without key", settings: &domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI}, wantNil: true},
		{
			name:      "hashing",
			settings:  &domain.EmbeddingSettings{Provider: domain.AIProviderHashing, Dimensions: 64},
			wantModel: "hashing-v1",
		},
		{
			name:      "ollama",
			settings:  &domain.EmbeddingSettings{Provider: domain.AIProviderOllama, Model: "nomic-embed-text"},
			wantModel: "nomic-embed-text",
		},
		{
			name:      "openai",
			settings:  &domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI, APIKey: "k", Model: "text-embedding-3-small"},
			wantModel: "text-embedding-3-small",
		},
		{
			name:      "google",
			settings:  &domain.EmbeddingSettings{Provider: domain.AIProviderGoogle, APIKey: "k"},
			wantModel: "text-embedding-004",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(context.Background(), tt.settings)
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, svc)
				return
			}
			require.NotNil(t, svc)
			assert.Equal(t, tt.wantModel, svc.ModelName())
		})
	}
}

func TestCreateLLMService(t *testing.T) {
	tests := []struct {
		name      string
		settings  *domain.LLMSettings
		wantNil   bool
		wantModel string
	}{
		{name: "nil settings", settings: nil, wantNil: true},
		{name: "hashing cannot generate", settings: &domain.LLMSettings{Provider: domain.AIProviderHashing}, wantNil: true},
		{name: "google without key", settings: &domain.LLMSettings{Provider: domain.AIProviderGoogle}, wantNil: true},
		{name: "mock", settings: &domain.LLMSettings{Provider: domain.AIProviderMock}, wantModel: "mock"},
		{name: "ollama", settings: &domain.LLMSettings{Provider: domain.AIProviderOllama, Model: "llama3.2"}, wantModel: "llama3.2"},
		{name: "openai", settings: &domain.LLMSettings{Provider: domain.AIProviderOpenAI, APIKey: "k"}, wantModel: "gpt-4o-mini"},
		{name: "google", settings: &domain.LLMSettings{Provider: domain.AIProviderGoogle, APIKey: "k"}, wantModel: "gemini-2.0-flash"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateLLMService(context.Background(), tt.settings)
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, svc)
				return
			}
			require.NotNil(t, svc)
			assert.Equal(t, tt.wantModel, svc.ModelName())
		})
	}
}

func TestCreateAndValidate_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := CreateAndValidateEmbeddingService(context.Background(), &domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  srv.URL,
	})
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)

	_, err = CreateAndValidateLLMService(context.Background(), &domain.LLMSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  srv.URL,
	})
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestCreateAndValidate_Unconfigured(t *testing.T) {
	_, err := CreateAndValidateEmbeddingService(context.Background(), &domain.EmbeddingSettings{})
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)

	_, err = CreateAndValidateLLMService(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}
