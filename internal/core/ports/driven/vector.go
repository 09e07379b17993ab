package driven

import (
	"context"

	"github.com/weave-lab/weave-chatbot-reference/internal/core/domain"
)

// VectorStore holds (text, embedding) pairs in memory and answers top-k
// similarity queries by exhaustive cosine comparison.
// Records are append-only; re-ingestion calls Reset and starts over.
type VectorStore interface {
	// Add appends a record. The first embedding fixes the dimension unless one
	// was declared; any other length fails with domain.ErrDimensionMismatch.
	Add(ctx context.Context, text string, embedding []float32) error

	// Retrieve ranks every record by cosine similarity, keeps the first TopK
	// and then drops those not strictly above the threshold, if one is set.
	// An empty store yields an empty result, never an error.
	Retrieve(ctx context.Context, query []float32, opts domain.RetrieveOptions) ([]domain.ScoredText, error)

	// Len returns the number of stored records.
	Len() int

	// Dimension returns the declared or inferred dimension, 0 if unknown.
	Dimension() int

	// Reset removes every record. A declared dimension is kept.
	Reset()
}

// CollectionHit is a single nearest-neighbour result from a CollectionIndex.
type CollectionHit struct {
	// ID is the record identifier.
	ID string

	// Text is the stored chunk text.
	Text string

	// Similarity is the cosine similarity to the query.
	Similarity float64
}

// CollectionIndex is an embedded nearest-neighbour engine persisting named
// collections to a single file. Each collection has a declared dimension.
//
// Operations on a collection that does not exist return domain.ErrCollectionNotFound.
// Implementations are safe for concurrent use but callers serialise
// drop-and-recreate against readers themselves.
type CollectionIndex interface {
	// HasCollection reports whether the named collection exists.
	HasCollection(ctx context.Context, name string) (bool, error)

	// CreateCollection creates an empty collection. Fails if it already exists.
	CreateCollection(ctx context.Context, name string, dimension int) error

	// DropCollection removes a collection and its records.
	DropCollection(ctx context.Context, name string) error

	// ListCollections returns the collection names in lexical order.
	ListCollections(ctx context.Context) ([]string, error)

	// Insert bulk-inserts records. Every embedding must match the declared dimension.
	Insert(ctx context.Context, name string, records []domain.Record) error

	// Search returns up to k nearest records ordered by descending similarity.
	// k larger than the collection size is clamped.
	Search(ctx context.Context, name string, query []float32, k int) ([]CollectionHit, error)

	// Count returns the number of records in a collection.
	Count(ctx context.Context, name string) (int, error)

	// Close flushes and releases the underlying file.
	Close() error
}
