package driving

import "github.com/custodia-labs/docqa/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get materialises current settings from defaults, the config file
	// and environment overrides.
	Get() (*domain.AppSettings, error)

	// Set stores a single dotted key and persists the config file.
	Set(key string, value any) error

	// Effective returns every effective key with its value, for display.
	Effective() (map[string]any, error)

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// ValidateEmbeddingConfig pings the configured embedding provider.
	ValidateEmbeddingConfig() error

	// ValidateLLMConfig pings the configured LLM provider.
	ValidateLLMConfig() error
}
