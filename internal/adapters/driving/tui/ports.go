// Package tui provides an interactive terminal interface for querying stored collections.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/weave-lab/weave-chatbot-reference/internal/core/domain"
	"github.com/weave-lab/weave-chatbot-reference/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces required by the TUI.
type Ports struct {
	// Collections lists and queries stored collections.
	Collections driving.CollectionService

	// Settings supplies the default top-k. Optional.
	Settings driving.SettingsService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Collections == nil {
		return ErrMissingCollectionService
	}
	return nil
}

// topK returns the configured result count, or the domain default.
func (p *Ports) topK() int {
	if p.Settings == nil {
		return domain.DefaultTopK
	}
	s, err := p.Settings.Get()
	if err != nil || s.Retrieval.TopK <= 0 {
		return domain.DefaultTopK
	}
	return s.Retrieval.TopK
}
