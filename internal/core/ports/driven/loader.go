package driven

import (
	"context"

	"github.com/weave-lab/weave-chatbot-reference/internal/core/domain"
)

// DocumentLoader reads a source location into a Document.
type DocumentLoader interface {
	// Load returns the document at path with its raw content.
	// Returns domain.ErrNotFound if nothing exists at path.
	Load(ctx context.Context, path string) (*domain.Document, error)
}
