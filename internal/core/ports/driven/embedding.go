// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import (
	"context"

	"github.com/weave-lab/weave-chatbot-reference/internal/core/domain"
)

// EmbeddingService generates vector embeddings from text.
//
// The task hint is not cosmetic: some models embed documents and queries
// asymmetrically, so ingestion must pass domain.TaskHintDocument and search
// must pass domain.TaskHintQuery. Providers with symmetric models may ignore it.
//
// Implementations may include:
//   - Gemini (gemini-embedding-001, task types RETRIEVAL_DOCUMENT/RETRIEVAL_QUERY)
//   - Ollama (nomic-embed-text with search_document/search_query prefixes)
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	// Returns domain.ErrEmptyEmbedding if the provider returned no usable vector.
	Embed(ctx context.Context, text string, hint domain.TaskHint) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts with the same hint.
	// Either every text is embedded or an error is returned.
	EmbedBatch(ctx context.Context, texts []string, hint domain.TaskHint) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 768, 1536, 3072).
	// This must match the dimension declared by the store.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
