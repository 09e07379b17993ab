// Package chromem provides a driven.CollectionIndex backed by chromem-go.
//
// The whole database is exported to one gob file after every mutation and
// imported again on open. A path ending in ".gz" is gzip-compressed.
package chromem

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/philippgille/chromem-go"

	"github.com/weave-lab/weave-chatbot-reference/internal/core/domain"
	"github.com/weave-lab/weave-chatbot-reference/internal/core/ports/driven"
	"github.com/weave-lab/weave-chatbot-reference/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.CollectionIndex = (*Index)(nil)

// dimensionsCollection holds one document per user collection recording its
// declared dimension in metadata. chromem keeps collection metadata private.
const dimensionsCollection = "_weave_dimensions"

const dimensionKey = "dimension"

// placeholder is the embedding of every dimensionsCollection document.
var placeholder = []float32{1}

// Index is a chromem-go collection index persisted to a single file.
type Index struct {
	mu       sync.RWMutex
	db       *chromem.DB
	path     string
	compress bool
	dims     map[string]int
}

// New opens the index at path, importing it if the file exists.
func New(path string) (*Index, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: index path is required", domain.ErrInvalidConfig)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	idx := &Index{
		db:       chromem.NewDB(),
		path:     path,
		compress: strings.HasSuffix(path, ".gz"),
		dims:     make(map[string]int),
	}

	if _, err := os.Stat(path); err == nil {
		if err := idx.db.ImportFromFile(path, ""); err != nil {
			return nil, fmt.Errorf("%w: import %s: %w", domain.ErrVectorIndexUnavailable, path, err)
		}
		if err := idx.loadDimensions(context.Background()); err != nil {
			return nil, err
		}
		logger.Debug("chromem: imported %d collections from %s", len(idx.dims), path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %w", domain.ErrVectorIndexUnavailable, err)
	}

	return idx, nil
}

// loadDimensions rebuilds the dimension map from the reserved collection.
func (idx *Index) loadDimensions(ctx context.Context) error {
	meta := idx.db.GetCollection(dimensionsCollection, nil)
	if meta == nil || meta.Count() == 0 {
		return nil
	}

	results, err := meta.QueryEmbedding(ctx, placeholder, meta.Count(), nil, nil)
	if err != nil {
		return fmt.Errorf("reading collection dimensions: %w", err)
	}
	for _, r := range results {
		dim, err := strconv.Atoi(r.Metadata[dimensionKey])
		if err != nil {
			return fmt.Errorf("%w: collection %s has dimension %q",
				domain.ErrVectorIndexUnavailable, r.ID, r.Metadata[dimensionKey])
		}
		idx.dims[r.ID] = dim
	}
	return nil
}

// persist exports the whole database (caller must hold the write lock).
func (idx *Index) persist() error {
	if err := idx.db.ExportToFile(idx.path, idx.compress, ""); err != nil {
		return fmt.Errorf("export %s: %w", idx.path, err)
	}
	return nil
}

// HasCollection reports whether the named collection exists.
func (idx *Index) HasCollection(_ context.Context, name string) (bool, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	_, ok := idx.dims[name]
	return ok, nil
}

// CreateCollection creates an empty collection with a declared dimension.
func (idx *Index) CreateCollection(ctx context.Context, name string, dimension int) error {
	if name == "" || name == dimensionsCollection {
		return fmt.Errorf("%w: invalid collection name %q", domain.ErrInvalidInput, name)
	}
	if dimension <= 0 {
		return fmt.Errorf("%w: dimension must be positive, got %d", domain.ErrInvalidConfig, dimension)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, ok := idx.dims[name]; ok {
		return fmt.Errorf("%w: collection %s already exists", domain.ErrInvalidInput, name)
	}

	meta, err := idx.db.GetOrCreateCollection(dimensionsCollection, nil, nil)
	if err != nil {
		return fmt.Errorf("creating dimensions collection: %w", err)
	}
	if _, err := idx.db.CreateCollection(name, nil, nil); err != nil {
		return fmt.Errorf("creating collection %s: %w", name, err)
	}
	err = meta.AddDocument(ctx, chromem.Document{
		ID:        name,
		Metadata:  map[string]string{dimensionKey: strconv.Itoa(dimension)},
		Embedding: placeholder,
		Content:   name,
	})
	if err != nil {
		_ = idx.db.DeleteCollection(name)
		return fmt.Errorf("recording dimension of %s: %w", name, err)
	}

	idx.dims[name] = dimension
	return idx.persist()
}

// DropCollection removes a collection and its records.
func (idx *Index) DropCollection(ctx context.Context, name string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, ok := idx.dims[name]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, name)
	}

	if err := idx.db.DeleteCollection(name); err != nil {
		return fmt.Errorf("deleting collection %s: %w", name, err)
	}
	if meta := idx.db.GetCollection(dimensionsCollection, nil); meta != nil {
		if err := meta.Delete(ctx, nil, nil, name); err != nil {
			return fmt.Errorf("deleting dimension of %s: %w", name, err)
		}
	}

	delete(idx.dims, name)
	return idx.persist()
}

// ListCollections returns the collection names in lexical order.
func (idx *Index) ListCollections(_ context.Context) ([]string, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	names := make([]string, 0, len(idx.dims))
	for name := range idx.dims {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// collection returns a user collection and its dimension (caller holds a lock).
func (idx *Index) collection(name string) (*chromem.Collection, int, error) {
	dim, ok := idx.dims[name]
	if !ok {
		return nil, 0, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, name)
	}
	c := idx.db.GetCollection(name, nil)
	if c == nil {
		return nil, 0, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, name)
	}
	return c, dim, nil
}

// Insert bulk-inserts records. Records without an ID get the next sequential one.
func (idx *Index) Insert(ctx context.Context, name string, records []domain.Record) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	c, dim, err := idx.collection(name)
	if err != nil {
		return err
	}

	docs := make([]chromem.Document, len(records))
	next := c.Count()
	for i, r := range records {
		if r.Dimension() != dim {
			return fmt.Errorf("%w: record %s has %d, collection %s declares %d",
				domain.ErrDimensionMismatch, r.ID, r.Dimension(), name, dim)
		}
		id := r.ID
		if id == "" {
			id = strconv.Itoa(next + i)
		}
		docs[i] = chromem.Document{
			ID:        id,
			Content:   r.Text,
			Metadata:  map[string]string{"position": strconv.Itoa(next + i)},
			Embedding: append([]float32(nil), r.Embedding...),
		}
	}
	if len(docs) == 0 {
		return nil
	}

	if err := c.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("adding documents: %w", err)
	}
	return idx.persist()
}

// Search returns up to k nearest records ordered by descending similarity.
func (idx *Index) Search(ctx context.Context, name string, query []float32, k int) ([]driven.CollectionHit, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	c, dim, err := idx.collection(name)
	if err != nil {
		return nil, err
	}
	if len(query) != dim {
		return nil, fmt.Errorf("%w: query has %d, collection %s declares %d",
			domain.ErrDimensionMismatch, len(query), name, dim)
	}

	// chromem rejects nResults above the collection size.
	n := min(k, c.Count())
	if n <= 0 {
		return []driven.CollectionHit{}, nil
	}

	results, err := c.QueryEmbedding(ctx, query, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("querying collection %s: %w", name, err)
	}

	hits := make([]driven.CollectionHit, len(results))
	for i, r := range results {
		hits[i] = driven.CollectionHit{
			ID:         r.ID,
			Text:       r.Content,
			Similarity: float64(r.Similarity),
		}
	}
	return hits, nil
}

// Count returns the number of records in a collection.
func (idx *Index) Count(_ context.Context, name string) (int, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	c, _, err := idx.collection(name)
	if err != nil {
		return 0, err
	}
	return c.Count(), nil
}

// Close releases the index. Every mutation is already persisted.
func (idx *Index) Close() error {
	return nil
}
