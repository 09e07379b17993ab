package memory

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/weave-lab/weave-chatbot-reference/internal/adapters/driven/vector"
	"github.com/weave-lab/weave-chatbot-reference/internal/core/domain"
	"github.com/weave-lab/weave-chatbot-reference/internal/core/ports/driven"
	"github.com/weave-lab/weave-chatbot-reference/internal/logger"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// VectorStore is a brute-force in-memory implementation of driven.VectorStore.
// Every query compares against every record, O(n·d), which suits corpora
// of up to a few thousand chunks.
type VectorStore struct {
	mu        sync.RWMutex
	dimension int
	declared  bool
	records   []domain.Record
	diag      io.Writer
}

// VectorStoreOption configures a VectorStore.
type VectorStoreOption func(*VectorStore)

// WithDiagnostics sets where verbose retrievals list their candidates.
// Defaults to os.Stderr.
func WithDiagnostics(w io.Writer) VectorStoreOption {
	return func(s *VectorStore) {
		s.diag = w
	}
}

// NewVectorStore creates a new in-memory vector store.
// A positive dimension is declared up front; otherwise the first Add fixes it.
func NewVectorStore(dimension int, opts ...VectorStoreOption) *VectorStore {
	s := &VectorStore{diag: os.Stderr}
	if dimension > 0 {
		s.dimension = dimension
		s.declared = true
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add appends a record. There is no deduplication.
func (s *VectorStore) Add(_ context.Context, text string, embedding []float32) error {
	if len(embedding) == 0 {
		return domain.ErrEmptyEmbedding
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dimension == 0 {
		s.dimension = len(embedding)
	} else if len(embedding) != s.dimension {
		return fmt.Errorf("%w: store holds %d dimensions, got %d",
			domain.ErrDimensionMismatch, s.dimension, len(embedding))
	}

	s.records = append(s.records, domain.Record{
		ID:        uuid.New().String(),
		Text:      text,
		Embedding: append([]float32(nil), embedding...),
	})
	return nil
}

// Retrieve ranks all records by cosine similarity to query, keeps the first
// TopK (ties in insertion order) and then applies the threshold if one is set.
func (s *VectorStore) Retrieve(
	_ context.Context,
	query []float32,
	opts domain.RetrieveOptions,
) ([]domain.ScoredText, error) {
	if len(query) == 0 {
		return nil, fmt.Errorf("%w: empty query embedding", domain.ErrInvalidInput)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.records) == 0 {
		logger.Debug("vector store is empty")
		return []domain.ScoredText{}, nil
	}
	if len(query) != s.dimension {
		return nil, fmt.Errorf("%w: store holds %d dimensions, query has %d",
			domain.ErrDimensionMismatch, s.dimension, len(query))
	}

	hits := make([]domain.ScoredText, len(s.records))
	for i := range s.records {
		hits[i] = domain.ScoredText{
			ID:         s.records[i].ID,
			Text:       s.records[i].Text,
			Similarity: vector.Cosine(query, s.records[i].Embedding),
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})

	top := hits[:min(opts.Limit(), len(hits))]
	if opts.Verbose {
		s.writeDiagnostics(top)
	}

	results := make([]domain.ScoredText, 0, len(top))
	for _, hit := range top {
		if opts.Passes(hit.Similarity) {
			results = append(results, hit)
		}
	}

	logger.Debug("brute-force retrieve: %d records, %d in top-k, %d returned",
		len(s.records), len(top), len(results))
	return results, nil
}

func (s *VectorStore) writeDiagnostics(top []domain.ScoredText) {
	fmt.Fprintln(s.diag, "--- Retrieved Context Details ---")
	for _, hit := range top {
		fmt.Fprintf(s.diag, "Similarity: %.4f, Text: '%s'\n", hit.Similarity, hit.Text)
	}
}

// Len returns the number of stored records.
func (s *VectorStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Dimension returns the declared or inferred dimension, 0 if unknown.
func (s *VectorStore) Dimension() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dimension
}

// Reset removes every record. An inferred dimension is forgotten.
func (s *VectorStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	if !s.declared {
		s.dimension = 0
	}
}
