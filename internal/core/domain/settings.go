package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderGoogle is the Gemini API.
	AIProviderGoogle AIProvider = "google"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderMock echoes the prompt back; useful offline and in tests.
	AIProviderMock AIProvider = "mock"

	// AIProviderHashing is the built-in deterministic feature-hashing embedder.
	AIProviderHashing AIProvider = "hashing"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderGoogle, AIProviderOpenAI, AIProviderOllama, AIProviderMock, AIProviderHashing:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderGoogle
}

// IsLocal returns true if this provider runs without a network service.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama || p == AIProviderMock || p == AIProviderHashing
}

// SupportsEmbedding returns true if the provider can produce vectors.
func (p AIProvider) SupportsEmbedding() bool {
	return p == AIProviderGoogle || p == AIProviderOpenAI || p == AIProviderOllama || p == AIProviderHashing
}

// SupportsLLM returns true if the provider can generate text.
func (p AIProvider) SupportsLLM() bool {
	return p == AIProviderGoogle || p == AIProviderOpenAI || p == AIProviderOllama || p == AIProviderMock
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderGoogle:
		return "Google Gemini (cloud)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderMock:
		return "Mock (echo, offline)"
	case AIProviderHashing:
		return "Feature hashing (built-in, offline)"
	default:
		return unknownDescription
	}
}

// IndexBackend selects where chunk vectors are stored and searched.
type IndexBackend string

// Available index backends.
const (
	// IndexBackendLocal keeps vectors in a SQLite file and searches in memory.
	IndexBackendLocal IndexBackend = "local"

	// IndexBackendChroma stores vectors in a Chroma server collection.
	IndexBackendChroma IndexBackend = "chroma"
)

// IsValid returns true if the backend is recognised.
func (b IndexBackend) IsValid() bool {
	return b == IndexBackendLocal || b == IndexBackendChroma
}

// DocumentSettings locates the documents to index.
type DocumentSettings struct {
	// Dir is the folder scanned recursively.
	Dir string

	// Extensions restricts indexing to these lowercase extensions (with dot).
	Extensions []string
}

// IndexSettings configures the retrieval index.
type IndexSettings struct {
	// Dir holds the persisted index files.
	Dir string

	// Backend selects the vector store.
	Backend IndexBackend

	// ChromaURL is the Chroma server base URL (chroma backend only).
	ChromaURL string

	// Collection is the Chroma collection name prefix.
	Collection string

	// Workers bounds per-file indexing parallelism. Zero means NumCPU.
	Workers int

	// BatchSize is the number of chunks embedded per request.
	BatchSize int
}

// RetrievalSettings configures top-k search.
type RetrievalSettings struct {
	// K is the number of chunks retrieved per question.
	K int

	// Adaptive widens k up to MaxK while fewer than K distinct hits are found.
	Adaptive bool

	// MaxK caps adaptive widening.
	MaxK int
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama and OpenAI-compatible servers).
	BaseURL string

	// APIKey is the API key (for OpenAI and Google).
	APIKey string

	// Dimensions is the vector size for the hashing provider.
	Dimensions int

	// RequestsPerSecond throttles remote providers. Zero disables throttling.
	RequestsPerSecond float64
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.SupportsEmbedding() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama and OpenAI-compatible servers).
	BaseURL string

	// APIKey is the API key (for OpenAI and Google).
	APIKey string

	// Timeout bounds a single generation call.
	Timeout time.Duration

	// MaxRetries is how many times a rate-limited call is retried.
	MaxRetries int

	// Temperature controls randomness.
	Temperature float64

	// MaxTokens caps the generated answer length.
	MaxTokens int
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.SupportsLLM() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// StructuredSettings locates the timeline store.
type StructuredSettings struct {
	// Path is the SQLite database file.
	Path string
}

// TimelineSettings tunes the slide timeline heuristics.
// Distances are fractions of the slide width (x) or height (y).
type TimelineSettings struct {
	// DefaultYear is used when neither the text nor a year header supplies one.
	// Zero means the current year.
	DefaultYear int

	// DateLayouts are extra Go time layouts tried before the built-in patterns.
	DateLayouts []string

	// LabelMaxDX and LabelMaxDY bound how far a label may sit from a date
	// to be classified as its label at all.
	LabelMaxDX float64
	LabelMaxDY float64

	// BelowMaxGap bounds the gap for the "label directly below" rule.
	BelowMaxGap float64

	// AdjacentMaxGap bounds the horizontal gap for the adjacency rule.
	AdjacentMaxGap float64

	// AdjacentYTolerance bounds the vertical centre offset for the adjacency rule.
	AdjacentYTolerance float64

	// MinHorizontalOverlap is the shared-width fraction required for "below".
	MinHorizontalOverlap float64

	// OverlapMinFraction is the intersection fraction required for overlap.
	OverlapMinFraction float64

	// MergeMaxDX and MergeMaxDY bound pairing of split month and day boxes.
	MergeMaxDX float64
	MergeMaxDY float64
}

// ServerSettings configures the HTTP API.
type ServerSettings struct {
	// Addr is the listen address.
	Addr string
}

// AppSettings holds all application settings.
type AppSettings struct {
	Documents  DocumentSettings
	Index      IndexSettings
	Pipeline   PipelineConfig
	Retrieval  RetrievalSettings
	Embedding  EmbeddingSettings
	LLM        LLMSettings
	Structured StructuredSettings
	Timeline   TimelineSettings
	Server     ServerSettings
}

// DefaultExtensions lists the document formats indexed by default.
func DefaultExtensions() []string {
	return []string{".pdf", ".docx", ".txt", ".md", ".xlsx", ".pptx"}
}

// DefaultTimelineSettings returns the tuned starting heuristics.
func DefaultTimelineSettings() TimelineSettings {
	return TimelineSettings{
		LabelMaxDX:           0.30,
		LabelMaxDY:           0.30,
		BelowMaxGap:          0.15,
		AdjacentMaxGap:       0.10,
		AdjacentYTolerance:   0.04,
		MinHorizontalOverlap: 0.30,
		OverlapMinFraction:   0.10,
		MergeMaxDX:           0.22,
		MergeMaxDY:           0.18,
	}
}

// DefaultAppSettings returns settings with sensible defaults.
// The defaults run fully offline: hashing embeddings and the mock LLM.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Documents: DocumentSettings{
			Dir:        "data/docs",
			Extensions: DefaultExtensions(),
		},
		Index: IndexSettings{
			Dir:        "data/index",
			Backend:    IndexBackendLocal,
			ChromaURL:  "http://localhost:8000",
			Collection: "docqa",
			BatchSize:  32,
		},
		Pipeline: DefaultPipelineConfig(),
		Retrieval: RetrievalSettings{
			K:        5,
			Adaptive: true,
			MaxK:     12,
		},
		Embedding: EmbeddingSettings{
			Provider:   AIProviderHashing,
			Model:      "hashing-v1",
			Dimensions: 384,
		},
		LLM: LLMSettings{
			Provider:    AIProviderMock,
			Model:       "mock",
			Timeout:     60 * time.Second,
			MaxRetries:  1,
			Temperature: 0.1,
			MaxTokens:   1024,
		},
		Structured: StructuredSettings{
			Path: "data/structured.db",
		},
		Timeline: DefaultTimelineSettings(),
		Server: ServerSettings{
			Addr: "127.0.0.1:8080",
		},
	}
}

// Validate reports the first setting that cannot work.
func (s AppSettings) Validate() error {
	if s.Documents.Dir == "" {
		return fmt.Errorf("%w: documents.dir is empty", ErrInvalidInput)
	}
	if !s.Index.Backend.IsValid() {
		return fmt.Errorf("%w: index backend %q", ErrUnsupportedType, s.Index.Backend)
	}
	if s.Retrieval.K <= 0 {
		return fmt.Errorf("%w: retrieval.k must be positive", ErrInvalidInput)
	}
	if !s.Embedding.Provider.SupportsEmbedding() {
		return fmt.Errorf("%w: embedding provider %q", ErrUnsupportedType, s.Embedding.Provider)
	}
	if !s.LLM.Provider.SupportsLLM() {
		return fmt.Errorf("%w: llm provider %q", ErrUnsupportedType, s.LLM.Provider)
	}
	if s.LLM.Timeout <= 0 {
		return fmt.Errorf("%w: llm.timeout must be positive", ErrInvalidInput)
	}
	return nil
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderGoogle:  "text-embedding-004",
		AIProviderOpenAI:  "text-embedding-3-small",
		AIProviderOllama:  "nomic-embed-text",
		AIProviderHashing: "hashing-v1",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderGoogle: "gemini-2.0-flash",
		AIProviderOpenAI: "gpt-4o-mini",
		AIProviderOllama: "llama3.2",
		AIProviderMock:   "mock",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"nomic-embed-text":       768,
		"mxbai-embed-large":      1024,
		"all-minilm":             384,
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-004":     768,
	}
}

// PipelineConfig holds post-processor pipeline configuration.
// Uses generic map-based config for extensibility - new processors can be added
// without modifying this struct.
type PipelineConfig struct {
	// Processors is the ordered list of processor names to run.
	Processors []string

	// ProcessorConfigs holds per-processor configuration as generic maps.
	// Key is processor name, value is processor-specific config.
	ProcessorConfigs map[string]map[string]any
}

// GetProcessorConfig returns config for a specific processor, or nil if not set.
func (c *PipelineConfig) GetProcessorConfig(name string) map[string]any {
	if c.ProcessorConfigs == nil {
		return nil
	}
	return c.ProcessorConfigs[name]
}

// DefaultPipelineConfig returns the default pipeline configuration:
// 500-character chunks with 50 characters of overlap, then empty-chunk filtering.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Processors: []string{"chunker", "minlength"},
		ProcessorConfigs: map[string]map[string]any{
			"chunker": {
				"strategy":   "boundary",
				"chunk_size": 500,
				"overlap":    50,
				"slack":      80,
			},
			"minlength": {
				"min_chars": 1,
			},
		},
	}
}
