package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/weave-lab/weave-chatbot-reference/internal/core/domain"
	"github.com/weave-lab/weave-chatbot-reference/internal/core/ports/driven"
	"github.com/weave-lab/weave-chatbot-reference/internal/core/ports/driving"
	"github.com/weave-lab/weave-chatbot-reference/internal/logger"
)

// Ensure CollectionService implements the interface.
var _ driving.CollectionService = (*CollectionService)(nil)

// CollectionService manages named collections in an index-backed store.
//
// Re-ingestion embeds the whole corpus before touching the index, so a failed
// embedding leaves the previous collection in place. Readers are held off
// while a collection is dropped and recreated.
type CollectionService struct {
	mu       sync.RWMutex
	index    driven.CollectionIndex
	embedder driven.EmbeddingService
	loader   driven.DocumentLoader
	pipeline driven.PostProcessorPipeline
}

// NewCollectionService creates a new collection service.
func NewCollectionService(
	index driven.CollectionIndex,
	embedder driven.EmbeddingService,
	loader driven.DocumentLoader,
	pipeline driven.PostProcessorPipeline,
) *CollectionService {
	return &CollectionService{
		index:    index,
		embedder: embedder,
		loader:   loader,
		pipeline: pipeline,
	}
}

// CreateCollection loads, chunks and embeds the documents at paths, then
// replaces the named collection with the result. Record IDs are the chunk's
// position across the whole corpus, starting at "0".
func (s *CollectionService) CreateCollection(ctx context.Context, paths []string, name string) error {
	name = collectionName(name)
	logger.Section("Create Collection")
	logger.Debug("Collection: %s, sources: %d", name, len(paths))

	var staged []stagedChunk
	for _, path := range paths {
		doc, err := s.loader.Load(ctx, path)
		if err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		chunks, err := stageDocument(ctx, s.pipeline, s.embedder, doc)
		if err != nil {
			return err
		}
		staged = append(staged, chunks...)
	}

	dim := s.embedder.Dimensions()
	if dim <= 0 && len(staged) > 0 {
		dim = len(staged[0].embedding)
	}
	if dim <= 0 {
		return fmt.Errorf("%w: embedding service reports no dimension", domain.ErrInvalidConfig)
	}
	if err := checkDimensions(staged, dim); err != nil {
		return err
	}

	records := make([]domain.Record, len(staged))
	for i, c := range staged {
		records[i] = domain.Record{
			ID:        strconv.Itoa(i),
			Text:      c.text,
			Embedding: c.embedding,
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.index.HasCollection(ctx, name)
	if err != nil {
		return fmt.Errorf("check collection: %w", err)
	}
	if exists {
		logger.Debug("Dropping existing collection %s", name)
		if err := s.index.DropCollection(ctx, name); err != nil {
			return fmt.Errorf("drop collection: %w", err)
		}
	}
	if err := s.index.CreateCollection(ctx, name, dim); err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	if len(records) > 0 {
		if err := s.index.Insert(ctx, name, records); err != nil {
			return fmt.Errorf("insert: %w", err)
		}
	}

	logger.Info("Collection %s: %d records of dimension %d", name, len(records), dim)
	return nil
}

// Retrieve embeds query and returns matching snippets in engine rank order.
func (s *CollectionService) Retrieve(
	ctx context.Context, query, name string, opts domain.RetrieveOptions,
) ([]string, error) {
	hits, err := s.RetrieveScored(ctx, query, name, opts)
	if err != nil {
		return nil, err
	}
	return domain.Texts(hits), nil
}

// RetrieveScored is Retrieve with similarity scores.
// A threshold, when set, filters the engine's top-k without re-ranking it.
func (s *CollectionService) RetrieveScored(
	ctx context.Context, query, name string, opts domain.RetrieveOptions,
) ([]domain.ScoredText, error) {
	name = collectionName(name)
	logger.Section("Retrieve")
	logger.Debug("Collection: %s, query: %q, top_k: %d", name, query, opts.Limit())

	s.mu.RLock()
	defer s.mu.RUnlock()

	exists, err := s.index.HasCollection(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("check collection: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, name)
	}
	if strings.TrimSpace(query) == "" {
		return []domain.ScoredText{}, nil
	}

	vec, err := s.embedder.Embed(ctx, query, domain.TaskHintQuery)
	if err != nil {
		return nil, fmt.Errorf("generate query embedding: %w", err)
	}

	hits, err := s.index.Search(ctx, name, vec, opts.Limit())
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	results := make([]domain.ScoredText, 0, len(hits))
	for _, h := range hits {
		if opts.Verbose {
			logger.Debug("ID: %s, Similarity: %.4f, Text: %q", h.ID, h.Similarity, h.Text)
		}
		if !opts.Passes(h.Similarity) {
			continue
		}
		results = append(results, domain.ScoredText{ID: h.ID, Text: h.Text, Similarity: h.Similarity})
	}

	logger.Debug("Found %d results", len(results))
	return results, nil
}

// DropCollection removes a collection.
func (s *CollectionService) DropCollection(ctx context.Context, name string) error {
	name = collectionName(name)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.DropCollection(ctx, name); err != nil {
		return fmt.Errorf("drop collection %s: %w", name, err)
	}
	return nil
}

// ListCollections returns every collection with its record count.
func (s *CollectionService) ListCollections(ctx context.Context) ([]driving.CollectionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names, err := s.index.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}

	infos := make([]driving.CollectionInfo, 0, len(names))
	for _, n := range names {
		count, err := s.index.Count(ctx, n)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", n, err)
		}
		infos = append(infos, driving.CollectionInfo{Name: n, Count: count})
	}
	return infos, nil
}

func collectionName(name string) string {
	if name = strings.TrimSpace(name); name == "" {
		return domain.DefaultCollectionName
	}
	return name
}
