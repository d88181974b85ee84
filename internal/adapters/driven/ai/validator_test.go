package ai

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func TestConfigValidator_Unconfigured(t *testing.T) {
	v := NewConfigValidator()
	require.NotNil(t, v)

	assert.NoError(t, v.ValidateEmbedding(nil))
	assert.NoError(t, v.ValidateEmbedding(&domain.EmbeddingSettings{Model: "x"}))
	assert.NoError(t, v.ValidateLLM(nil))
	assert.NoError(t, v.ValidateLLM(&domain.LLMSettings{Model: "x"}))
}

func TestConfigValidator_Offline(t *testing.T) {
	v := NewConfigValidator()
	assert.NoError(t, v.ValidateEmbedding(&domain.EmbeddingSettings{Provider: domain.AIProviderHashing}))
	assert.NoError(t, v.ValidateLLM(&domain.LLMSettings{Provider: domain.AIProviderMock}))
}

func TestConfigValidator_PingsProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	v := NewConfigValidator()
	assert.NoError(t, v.ValidateLLM(&domain.LLMSettings{Provider: domain.AIProviderOpenAI, APIKey: "good", BaseURL: srv.URL}))
	assert.ErrorIs(t,
		v.ValidateLLM(&domain.LLMSettings{Provider: domain.AIProviderOpenAI, APIKey: "bad", BaseURL: srv.URL}),
		domain.ErrLLMUnavailable)
}
