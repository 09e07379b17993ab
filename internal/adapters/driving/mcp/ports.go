package mcp

import (
	"github.com/weave-lab/weave-chatbot-reference/internal/core/domain"
	"github.com/weave-lab/weave-chatbot-reference/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Collections answers retrieval queries against stored collections.
	Collections driving.CollectionService

	// Settings supplies the default collection and top-k. Optional.
	Settings driving.SettingsService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Collections == nil {
		return ErrMissingCollectionService
	}
	return nil
}

// defaults returns the configured collection name and top-k.
func (p *Ports) defaults() (collection string, topK int) {
	collection, topK = domain.DefaultCollectionName, domain.DefaultTopK
	if p.Settings == nil {
		return collection, topK
	}
	settings, err := p.Settings.Get()
	if err != nil {
		return collection, topK
	}
	if settings.VectorStore.Collection != "" {
		collection = settings.VectorStore.Collection
	}
	if settings.Retrieval.TopK > 0 {
		topK = settings.Retrieval.TopK
	}
	return collection, topK
}
