package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent retrieval failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// ErrUnsupportedType indicates an unknown backend, provider or chunk mode.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrInvalidConfig indicates invalid sizing or mismatched dimensions.
	// It is reported immediately and never coerced.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrDimensionMismatch indicates an embedding whose length differs from
	// the declared dimension of its store or collection.
	ErrDimensionMismatch = fmt.Errorf("%w: embedding dimension mismatch", ErrInvalidConfig)

	// ErrEmbeddingFailed indicates the embedding provider could not produce a vector.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrEmptyEmbedding indicates the provider answered without a usable vector.
	ErrEmptyEmbedding = fmt.Errorf("%w: empty embedding returned", ErrEmbeddingFailed)

	// ErrCollectionNotFound indicates a query against a collection that does not exist.
	// This is distinct from a query that matched nothing.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorIndexUnavailable indicates the vector index could not be opened.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrRateLimited indicates the provider rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)
