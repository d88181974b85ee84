package services

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// EnvPrefix prefixes every environment override: embedding.api_key is
// read from DOCQA_EMBEDDING_API_KEY.
const EnvPrefix = "DOCQA_"

// Config keys that need special handling.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider = "embedding.provider"
	keyEmbedModel    = "embedding.model"
	keyEmbedAPIKey   = "embedding.api_key"
	keyLLMProvider   = "llm.provider"
	keyLLMModel      = "llm.model"
	keyLLMAPIKey     = "llm.api_key"
	keyProcessors    = "pipeline.processors"
)

const maskedSecret = "********"

// binding ties a dotted config key to the settings field it fills.
// target is a pointer to one of the supported field types.
type binding struct {
	key    string
	target any
}

// SettingsService materialises application settings from defaults,
// the config file and DOCQA_* environment variables, in that order.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	lookupEnv   func(string) (string, bool)
}

// SettingsOption configures a SettingsService.
type SettingsOption func(*SettingsService)

// WithEnvLookup replaces os.LookupEnv, mainly for tests.
func WithEnvLookup(lookup func(string) (string, bool)) SettingsOption {
	return func(s *SettingsService) {
		if lookup != nil {
			s.lookupEnv = lookup
		}
	}
}

// NewSettingsService creates a new settings service.
// aiValidator may be nil, in which case provider validation is skipped.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator, opts ...SettingsOption) *SettingsService {
	s := &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		lookupEnv:   os.LookupEnv,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnvKey returns the environment variable that overrides a dotted key.
func EnvKey(key string) string {
	return EnvPrefix + strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
}

func bindings(a *domain.AppSettings) []binding {
	t := &a.Timeline
	return []binding{
		{"documents.dir", &a.Documents.Dir},
		{"documents.extensions", &a.Documents.Extensions},

		{"index.dir", &a.Index.Dir},
		{"index.backend", &a.Index.Backend},
		{"index.chroma_url", &a.Index.ChromaURL},
		{"index.collection", &a.Index.Collection},
		{"index.workers", &a.Index.Workers},
		{"index.batch_size", &a.Index.BatchSize},

		{"retrieval.k", &a.Retrieval.K},
		{"retrieval.adaptive", &a.Retrieval.Adaptive},
		{"retrieval.max_k", &a.Retrieval.MaxK},

		{keyEmbedProvider, &a.Embedding.Provider},
		{keyEmbedModel, &a.Embedding.Model},
		{"embedding.base_url", &a.Embedding.BaseURL},
		{keyEmbedAPIKey, &a.Embedding.APIKey},
		{"embedding.dimensions", &a.Embedding.Dimensions},
		{"embedding.requests_per_second", &a.Embedding.RequestsPerSecond},

		{keyLLMProvider, &a.LLM.Provider},
		{keyLLMModel, &a.LLM.Model},
		{"llm.base_url", &a.LLM.BaseURL},
		{keyLLMAPIKey, &a.LLM.APIKey},
		{"llm.timeout", &a.LLM.Timeout},
		{"llm.max_retries", &a.LLM.MaxRetries},
		{"llm.temperature", &a.LLM.Temperature},
		{"llm.max_tokens", &a.LLM.MaxTokens},

		{"structured.path", &a.Structured.Path},

		{"timeline.default_year", &t.DefaultYear},
		{"timeline.date_layouts", &t.DateLayouts},
		{"timeline.label_max_dx", &t.LabelMaxDX},
		{"timeline.label_max_dy", &t.LabelMaxDY},
		{"timeline.below_max_gap", &t.BelowMaxGap},
		{"timeline.adjacent_max_gap", &t.AdjacentMaxGap},
		{"timeline.adjacent_y_tolerance", &t.AdjacentYTolerance},
		{"timeline.min_horizontal_overlap", &t.MinHorizontalOverlap},
		{"timeline.overlap_min_fraction", &t.OverlapMinFraction},
		{"timeline.merge_max_dx", &t.MergeMaxDX},
		{"timeline.merge_max_dy", &t.MergeMaxDY},

		{"server.addr", &a.Server.Addr},
	}
}

// Get materialises and validates the current settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	settings := domain.DefaultAppSettings()

	set := make(map[string]bool)
	for _, b := range bindings(&settings) {
		raw, ok := s.lookup(b.key)
		if !ok {
			continue
		}
		if err := assign(b.target, raw); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, b.key, err)
		}
		set[b.key] = true
	}

	// A provider switch without an explicit model picks that provider's default.
	if set[keyEmbedProvider] && !set[keyEmbedModel] {
		if m, ok := domain.DefaultEmbeddingModels()[settings.Embedding.Provider]; ok {
			settings.Embedding.Model = m
		}
	}
	if set[keyLLMProvider] && !set[keyLLMModel] {
		if m, ok := domain.DefaultLLMModels()[settings.LLM.Provider]; ok {
			settings.LLM.Model = m
		}
	}

	pipeline, err := s.GetPipelineConfig()
	if err != nil {
		return nil, err
	}
	settings.Pipeline = pipeline

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &settings, nil
}

// Set stores a single dotted key and persists the config file.
func (s *SettingsService) Set(key string, value any) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("%w: empty key", domain.ErrInvalidInput)
	}
	if err := s.configStore.Set(key, value); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return s.configStore.Save()
}

// Effective returns every known key with its effective value.
// API keys are masked.
func (s *SettingsService) Effective() (map[string]any, error) {
	settings, err := s.Get()
	if err != nil {
		return nil, err
	}

	out := make(map[string]any)
	for _, b := range bindings(settings) {
		out[b.key] = display(b.target)
	}
	for _, key := range []string{keyEmbedAPIKey, keyLLMAPIKey} {
		if out[key] != "" {
			out[key] = maskedSecret
		}
	}

	out[keyProcessors] = strings.Join(settings.Pipeline.Processors, ",")
	for name, cfg := range settings.Pipeline.ProcessorConfigs {
		for k, v := range cfg {
			out["pipeline."+name+"."+k] = v
		}
	}
	return out, nil
}

// SortedKeys returns the keys of an Effective map in display order.
func SortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// GetPipelineConfig returns the post-processor pipeline configuration.
// Per-processor keys (pipeline.<name>.<key>) are merged over the defaults.
func (s *SettingsService) GetPipelineConfig() (domain.PipelineConfig, error) {
	cfg := domain.DefaultPipelineConfig()

	if raw, ok := s.lookup(keyProcessors); ok {
		var processors []string
		if err := assign(&processors, raw); err != nil {
			return cfg, fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, keyProcessors, err)
		}
		if len(processors) > 0 {
			cfg.Processors = processors
		}
	}

	for _, name := range cfg.Processors {
		merged := make(map[string]any)
		for k, v := range cfg.ProcessorConfigs[name] {
			merged[k] = v
		}
		for k, v := range s.loadProcessorConfig(name, merged) {
			merged[k] = v
		}
		if len(merged) > 0 {
			cfg.ProcessorConfigs[name] = merged
		}
	}
	return cfg, nil
}

// loadProcessorConfig reads every config key under pipeline.<name>. and the
// environment overrides of keys already known for that processor.
func (s *SettingsService) loadProcessorConfig(name string, known map[string]any) map[string]any {
	prefix := "pipeline." + name + "."
	cfg := make(map[string]any)

	for _, key := range s.configStore.Keys() {
		if sub, ok := strings.CutPrefix(key, prefix); ok && sub != "" {
			if v, exists := s.configStore.Get(key); exists {
				cfg[sub] = v
			}
		}
	}
	for sub := range known {
		if v, ok := s.lookupEnv(EnvKey(prefix + sub)); ok {
			cfg[sub] = parseScalar(v)
		}
	}
	return cfg
}

// lookup returns the environment override for key, else the config value.
func (s *SettingsService) lookup(key string) (any, bool) {
	if v, ok := s.lookupEnv(EnvKey(key)); ok {
		return v, true
	}
	return s.configStore.Get(key)
}

// assign converts raw (a config value or an environment string) into the
// field behind target.
func assign(target, raw any) error {
	switch t := target.(type) {
	case *string:
		*t = fmt.Sprint(raw)
	case *domain.AIProvider:
		*t = domain.AIProvider(strings.ToLower(strings.TrimSpace(fmt.Sprint(raw))))
	case *domain.IndexBackend:
		*t = domain.IndexBackend(strings.ToLower(strings.TrimSpace(fmt.Sprint(raw))))
	case *int:
		n, err := toInt(raw)
		if err != nil {
			return err
		}
		*t = n
	case *float64:
		f, err := toFloat(raw)
		if err != nil {
			return err
		}
		*t = f
	case *bool:
		b, err := toBool(raw)
		if err != nil {
			return err
		}
		*t = b
	case *time.Duration:
		d, err := toDuration(raw)
		if err != nil {
			return err
		}
		*t = d
	case *[]string:
		*t = toStrings(raw)
	default:
		return fmt.Errorf("unsupported field type %T", target)
	}
	return nil
}

func toInt(raw any) (int, error) {
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case uint64:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		return strconv.Atoi(strings.TrimSpace(v))
	}
	return 0, fmt.Errorf("not an integer: %v", raw)
}

func toFloat(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	}
	return 0, fmt.Errorf("not a number: %v", raw)
}

func toBool(raw any) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(v))
	}
	return false, fmt.Errorf("not a boolean: %v", raw)
}

// toDuration accepts Go duration strings ("45s", "2m") or a bare number of seconds.
func toDuration(raw any) (time.Duration, error) {
	if s, ok := raw.(string); ok {
		s = strings.TrimSpace(s)
		if d, err := time.ParseDuration(s); err == nil {
			return d, nil
		}
		raw = s
	}
	secs, err := toFloat(raw)
	if err != nil {
		return 0, fmt.Errorf("not a duration: %v", raw)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// toStrings accepts a list or a comma-separated string.
func toStrings(raw any) []string {
	var parts []string
	switch v := raw.(type) {
	case []string:
		parts = v
	case []any:
		for _, item := range v {
			parts = append(parts, fmt.Sprint(item))
		}
	default:
		parts = strings.Split(fmt.Sprint(v), ",")
	}

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseScalar types an environment string for a processor config map.
func parseScalar(s string) any {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}

func display(target any) any {
	switch t := target.(type) {
	case *string:
		return *t
	case *domain.AIProvider:
		return string(*t)
	case *domain.IndexBackend:
		return string(*t)
	case *int:
		return *t
	case *float64:
		return *t
	case *bool:
		return *t
	case *time.Duration:
		return t.String()
	case *[]string:
		return strings.Join(*t, ",")
	}
	return nil
}
