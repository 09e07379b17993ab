package driving

import (
	"context"

	"github.com/weave-lab/weave-chatbot-reference/internal/core/domain"
)

// CollectionService manages named collections in an index-backed store.
type CollectionService interface {
	// CreateCollection loads, chunks and embeds the documents at paths and
	// replaces any existing collection of the same name with the result.
	CreateCollection(ctx context.Context, paths []string, name string) error

	// Retrieve embeds query and returns up to TopK snippets in engine rank order.
	// Without a threshold exactly min(TopK, count) snippets are returned.
	// Returns domain.ErrCollectionNotFound if the collection does not exist.
	Retrieve(ctx context.Context, query, name string, opts domain.RetrieveOptions) ([]string, error)

	// RetrieveScored is Retrieve with similarity scores.
	RetrieveScored(ctx context.Context, query, name string, opts domain.RetrieveOptions) ([]domain.ScoredText, error)

	// DropCollection removes a collection.
	DropCollection(ctx context.Context, name string) error

	// ListCollections returns every collection with its record count.
	ListCollections(ctx context.Context) ([]CollectionInfo, error)
}

// CollectionInfo summarises a stored collection.
type CollectionInfo struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}
