package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/weave-lab/weave-chatbot-reference/internal/core/domain"
	"github.com/weave-lab/weave-chatbot-reference/internal/core/ports/driven"
	"github.com/weave-lab/weave-chatbot-reference/internal/core/ports/driving"
	"github.com/weave-lab/weave-chatbot-reference/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// RetrievalService wires the chunking pipeline, the embedding service and an
// in-memory vector store into ingest and query. It keeps no state of its own.
type RetrievalService struct {
	store    driven.VectorStore
	embedder driven.EmbeddingService
	pipeline driven.PostProcessorPipeline
}

// NewRetrievalService creates a new retrieval service.
func NewRetrievalService(
	store driven.VectorStore,
	embedder driven.EmbeddingService,
	pipeline driven.PostProcessorPipeline,
) *RetrievalService {
	return &RetrievalService{
		store:    store,
		embedder: embedder,
		pipeline: pipeline,
	}
}

// stagedChunk is a chunk waiting to be added to the store.
type stagedChunk struct {
	text      string
	embedding []float32
}

// Ingest chunks and embeds every document, then adds all chunks to the store.
// Nothing is added unless every document was chunked and embedded.
func (s *RetrievalService) Ingest(ctx context.Context, sources []domain.Document) error {
	logger.Section("Ingest")
	logger.Debug("Documents: %d", len(sources))

	var staged []stagedChunk
	for i := range sources {
		doc := &sources[i]
		chunks, err := stageDocument(ctx, s.pipeline, s.embedder, doc)
		if err != nil {
			return err
		}
		staged = append(staged, chunks...)
	}

	if err := checkDimensions(staged, s.store.Dimension()); err != nil {
		return err
	}

	for _, c := range staged {
		if err := s.store.Add(ctx, c.text, c.embedding); err != nil {
			return fmt.Errorf("add chunk: %w", err)
		}
	}

	logger.Info("Ingested %d chunks from %d documents", len(staged), len(sources))
	return nil
}

// stageDocument chunks a document and embeds every chunk with the document hint.
func stageDocument(
	ctx context.Context,
	pipeline driven.PostProcessorPipeline,
	embedder driven.EmbeddingService,
	doc *domain.Document,
) ([]stagedChunk, error) {
	name := documentName(doc)

	chunks, err := pipeline.Process(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("chunk %s: %w", name, err)
	}
	if len(chunks) == 0 {
		logger.Debug("%s: no chunks", name)
		return nil, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	embeddings, err := embedder.EmbedBatch(ctx, texts, domain.TaskHintDocument)
	if err != nil {
		return nil, fmt.Errorf("embed chunks of %s: %w", name, err)
	}
	if len(embeddings) != len(texts) {
		return nil, fmt.Errorf("embed chunks of %s: %w: got %d vectors for %d chunks",
			name, domain.ErrEmbeddingFailed, len(embeddings), len(texts))
	}

	staged := make([]stagedChunk, len(chunks))
	for i := range chunks {
		if len(embeddings[i]) == 0 {
			return nil, fmt.Errorf("embed chunk %d of %s: %w", i, name, domain.ErrEmptyEmbedding)
		}
		staged[i] = stagedChunk{text: texts[i], embedding: embeddings[i]}
	}

	logger.Debug("%s: %d chunks embedded", name, len(staged))
	return staged, nil
}

// checkDimensions verifies every staged embedding has one length, equal to want when want is set.
func checkDimensions(staged []stagedChunk, want int) error {
	for i, c := range staged {
		if want == 0 {
			want = len(c.embedding)
		}
		if len(c.embedding) != want {
			return fmt.Errorf("chunk %d: %w: expected %d, got %d",
				i, domain.ErrDimensionMismatch, want, len(c.embedding))
		}
	}
	return nil
}

func documentName(doc *domain.Document) string {
	switch {
	case doc.URI != "":
		return doc.URI
	case doc.Title != "":
		return doc.Title
	default:
		return doc.ID
	}
}

// Query embeds text and returns matching snippets in rank order.
func (s *RetrievalService) Query(ctx context.Context, text string, opts domain.RetrieveOptions) ([]string, error) {
	hits, err := s.QueryScored(ctx, text, opts)
	if err != nil {
		return nil, err
	}
	return domain.Texts(hits), nil
}

// QueryScored is Query with similarity scores.
func (s *RetrievalService) QueryScored(
	ctx context.Context, text string, opts domain.RetrieveOptions,
) ([]domain.ScoredText, error) {
	logger.Section("Query")
	logger.Debug("Query: %q, top_k: %d, threshold set: %t", text, opts.Limit(), opts.HasThreshold())

	if strings.TrimSpace(text) == "" {
		logger.Debug("Empty query, returning no results")
		return []domain.ScoredText{}, nil
	}
	if s.store.Len() == 0 {
		logger.Debug("Empty store, returning no results")
		return []domain.ScoredText{}, nil
	}

	vec, err := s.embedder.Embed(ctx, text, domain.TaskHintQuery)
	if err != nil {
		return nil, fmt.Errorf("generate query embedding: %w", err)
	}

	hits, err := s.store.Retrieve(ctx, vec, opts)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	return hits, nil
}
