package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAIProvider_IsValid(t *testing.T) {
	for _, p := range []AIProvider{AIProviderGoogle, AIProviderOpenAI, AIProviderOllama, AIProviderMock, AIProviderHashing} {
		assert.True(t, p.IsValid(), p)
		assert.NotEqual(t, unknownDescription, p.Description(), p)
	}
	assert.False(t, AIProvider("anthropic").IsValid())
	assert.Equal(t, unknownDescription, AIProvider("x").Description())
}

func TestAIProvider_Capabilities(t *testing.T) {
	assert.True(t, AIProviderMock.SupportsLLM())
	assert.False(t, AIProviderMock.SupportsEmbedding())
	assert.True(t, AIProviderHashing.SupportsEmbedding())
	assert.False(t, AIProviderHashing.SupportsLLM())
	assert.True(t, AIProviderGoogle.RequiresAPIKey())
	assert.False(t, AIProviderOllama.RequiresAPIKey())
	assert.True(t, AIProviderOllama.IsLocal())
}

func TestLLMSettings_IsConfigured(t *testing.T) {
	assert.True(t, LLMSettings{Provider: AIProviderMock}.IsConfigured())
	assert.False(t, LLMSettings{Provider: AIProviderOpenAI}.IsConfigured())
	assert.True(t, LLMSettings{Provider: AIProviderOpenAI, APIKey: "sk"}.IsConfigured())
	assert.False(t, LLMSettings{Provider: AIProviderHashing}.IsConfigured())
}

func TestEmbeddingSettings_IsConfigured(t *testing.T) {
	assert.True(t, EmbeddingSettings{Provider: AIProviderHashing}.IsConfigured())
	assert.False(t, EmbeddingSettings{Provider: AIProviderGoogle}.IsConfigured())
	assert.False(t, EmbeddingSettings{Provider: AIProviderMock}.IsConfigured())
}

func TestDefaultAppSettings_Valid(t *testing.T) {
	s := DefaultAppSettings()
	require.NoError(t, s.Validate())

	assert.Equal(t, IndexBackendLocal, s.Index.Backend)
	assert.Equal(t, 5, s.Retrieval.K)
	assert.Equal(t, AIProviderHashing, s.Embedding.Provider)
	assert.Equal(t, AIProviderMock, s.LLM.Provider)
	assert.Contains(t, s.Documents.Extensions, ".pptx")
	assert.Equal(t, []string{"chunker", "minlength"}, s.Pipeline.Processors)
}

func TestAppSettings_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppSettings)
		target error
	}{
		{"empty dir", func(s *AppSettings) { s.Documents.Dir = "" }, ErrInvalidInput},
		{"bad backend", func(s *AppSettings) { s.Index.Backend = "faiss" }, ErrUnsupportedType},
		{"zero k", func(s *AppSettings) { s.Retrieval.K = 0 }, ErrInvalidInput},
		{"llm as embedder", func(s *AppSettings) { s.Embedding.Provider = AIProviderMock }, ErrUnsupportedType},
		{"unknown llm", func(s *AppSettings) { s.LLM.Provider = "anthropic" }, ErrUnsupportedType},
		{"zero timeout", func(s *AppSettings) { s.LLM.Timeout = 0 }, ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultAppSettings()
			tt.mutate(&s)
			assert.ErrorIs(t, s.Validate(), tt.target)
		})
	}
}

func TestPipelineConfig_GetProcessorConfig(t *testing.T) {
	cfg := DefaultPipelineConfig()
	assert.Equal(t, 500, cfg.GetProcessorConfig("chunker")["chunk_size"])
	assert.Nil(t, cfg.GetProcessorConfig("missing"))

	var empty PipelineConfig
	assert.Nil(t, empty.GetProcessorConfig("chunker"))
}
