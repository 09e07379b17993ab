package driving

import (
	"context"

	"github.com/weave-lab/weave-chatbot-reference/internal/core/domain"
)

// RetrievalService ingests documents into an in-memory store and answers
// similarity queries against it.
type RetrievalService interface {
	// Ingest chunks and embeds each document and adds its chunks to the store.
	// A document whose embedding fails contributes no records.
	Ingest(ctx context.Context, sources []domain.Document) error

	// Query embeds text and returns the matching snippets in rank order.
	// No match is an empty result, not an error.
	Query(ctx context.Context, text string, opts domain.RetrieveOptions) ([]string, error)

	// QueryScored is Query with similarity scores.
	QueryScored(ctx context.Context, text string, opts domain.RetrieveOptions) ([]domain.ScoredText, error)
}
