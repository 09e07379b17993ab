package postprocessors

import (
	"github.com/weave-lab/weave-chatbot-reference/internal/core/domain"
	"github.com/weave-lab/weave-chatbot-reference/internal/core/ports/driven"
	"github.com/weave-lab/weave-chatbot-reference/internal/postprocessors/chunker"
)

// RegisterDefaults registers all built-in processors with the registry.
// Call this during application initialisation to enable standard processors.
func RegisterDefaults(r *Registry) {
	r.Register("chunker", buildChunker(domain.ChunkModeSimple))
	r.Register("markdown", buildChunker(domain.ChunkModeMarkdown))
}

// buildChunker returns a builder for a chunker of the given mode.
// Supported config keys:
//   - chunk_size (int): Characters per chunk (default: 512 simple, 6000 markdown)
//   - overlap (int): Overlapping characters between chunks (default: 50 simple, 200 markdown)
//
// Keys that are present are passed through unchanged so that invalid sizing
// surfaces as a configuration error.
func buildChunker(mode domain.ChunkMode) BuilderFunc {
	return func(cfg map[string]any) (driven.PostProcessor, error) {
		opts := []chunker.Option{chunker.WithMode(mode)}

		if size, ok := getIntFromConfig(cfg, "chunk_size"); ok {
			opts = append(opts, chunker.WithChunkSize(size))
		}
		if overlap, ok := getIntFromConfig(cfg, "overlap"); ok {
			opts = append(opts, chunker.WithOverlap(overlap))
		}

		return chunker.New(opts...)
	}
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
// The boolean reports whether the key held a number.
func getIntFromConfig(cfg map[string]any, key string) (int, bool) {
	val, ok := cfg[key]
	if !ok {
		return 0, false
	}

	switch v := val.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
