package driven

import "github.com/weave-lab/weave-chatbot-reference/internal/core/domain"

// AIConfigValidator validates provider settings by contacting the provider.
type AIConfigValidator interface {
	// ValidateEmbedding creates an embedding service from the settings and pings it.
	// Unconfigured settings are not an error.
	ValidateEmbedding(config *domain.EmbeddingSettings) error
}
