package postprocessors

import (
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/postprocessors/chunker"
	"github.com/custodia-labs/docqa/internal/postprocessors/minlength"
)

// RegisterDefaults registers all built-in processors with the registry.
// Call this during application initialisation to enable standard processors.
func RegisterDefaults(r *Registry) {
	r.Register("chunker", buildChunker)
	r.Register("minlength", buildMinLength)
}

// buildChunker creates a chunker processor from generic config.
// Supported config keys:
//   - strategy (string): "boundary" (default) or "recursive"
//   - chunk_size (int): target characters per chunk (default: 500)
//   - overlap (int): overlapping characters between chunks (default: 50)
//   - slack (int): how far back to look for a break (default: 80)
func buildChunker(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []chunker.Option

	if size := getIntFromConfig(cfg, "chunk_size"); size > 0 {
		opts = append(opts, chunker.WithChunkSize(size))
	}
	if _, ok := cfg["overlap"]; ok {
		opts = append(opts, chunker.WithOverlap(getIntFromConfig(cfg, "overlap")))
	}
	if _, ok := cfg["slack"]; ok {
		opts = append(opts, chunker.WithSlack(getIntFromConfig(cfg, "slack")))
	}
	if s, ok := cfg["strategy"].(string); ok {
		opts = append(opts, chunker.WithStrategy(chunker.Strategy(s)))
	}

	return chunker.New(opts...)
}

// buildMinLength creates the short-chunk filter.
// Supported config keys:
//   - min_chars (int): minimum non-blank characters (default: 1)
func buildMinLength(cfg map[string]any) (driven.PostProcessor, error) {
	return minlength.New(getIntFromConfig(cfg, "min_chars")), nil
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) int {
	val, ok := cfg[key]
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
