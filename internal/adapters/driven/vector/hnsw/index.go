// Package hnsw provides a driven.CollectionIndex backed by an in-memory HNSW
// graph over records persisted in a bbolt file.
//
// Records are the source of truth. Graphs are rebuilt on open by replaying
// records in insertion order with a fixed level seed, so a reopened index
// answers exactly as it did before.
package hnsw

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"go.etcd.io/bbolt"

	"github.com/weave-lab/weave-chatbot-reference/internal/adapters/driven/vector"
	"github.com/weave-lab/weave-chatbot-reference/internal/core/domain"
	"github.com/weave-lab/weave-chatbot-reference/internal/core/ports/driven"
	"github.com/weave-lab/weave-chatbot-reference/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.CollectionIndex = (*Index)(nil)

var (
	bucketCollections = []byte("collections")
	bucketRecords     = []byte("records")
	keyDimension      = []byte("dimension")
)

// storedRecord is the bbolt value of a record.
type storedRecord struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding"`
}

type collection struct {
	dimension int
	records   []storedRecord
	graph     *graph
}

func (c *collection) add(r storedRecord) {
	c.records = append(c.records, r)
	c.graph.add(r.Embedding)
}

// Index is an HNSW collection index persisted to a single bbolt file.
type Index struct {
	mu          sync.RWMutex
	db          *bbolt.DB
	collections map[string]*collection
}

// New opens or creates the index at path and rebuilds every graph.
func New(path string) (*Index, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: index path is required", domain.ErrInvalidConfig)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", domain.ErrVectorIndexUnavailable, path, err)
	}

	idx := &Index{
		db:          db,
		collections: make(map[string]*collection),
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketCollections)
		return err
	})
	if err == nil {
		err = idx.load()
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: load %s: %w", domain.ErrVectorIndexUnavailable, path, err)
	}

	logger.Debug("hnsw: loaded %d collections from %s", len(idx.collections), path)
	return idx, nil
}

// load reads every collection and replays its records into a fresh graph.
func (idx *Index) load() error {
	return idx.db.View(func(tx *bbolt.Tx) error {
		root := tx.Bucket(bucketCollections)
		return root.ForEach(func(name, v []byte) error {
			if v != nil {
				return nil // not a nested bucket
			}
			b := root.Bucket(name)

			raw := b.Get(keyDimension)
			if len(raw) != 8 {
				return fmt.Errorf("collection %s: missing dimension", name)
			}
			c := &collection{
				dimension: int(binary.BigEndian.Uint64(raw)),
				graph:     newGraph(),
			}

			records := b.Bucket(bucketRecords)
			if records != nil {
				err := records.ForEach(func(_, data []byte) error {
					var r storedRecord
					if err := json.Unmarshal(data, &r); err != nil {
						return fmt.Errorf("collection %s: %w", name, err)
					}
					c.add(r)
					return nil
				})
				if err != nil {
					return err
				}
			}

			idx.collections[string(name)] = c
			return nil
		})
	})
}

// HasCollection reports whether the named collection exists.
func (idx *Index) HasCollection(_ context.Context, name string) (bool, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	_, ok := idx.collections[name]
	return ok, nil
}

// CreateCollection creates an empty collection with a declared dimension.
func (idx *Index) CreateCollection(_ context.Context, name string, dimension int) error {
	if name == "" {
		return fmt.Errorf("%w: collection name is required", domain.ErrInvalidInput)
	}
	if dimension <= 0 {
		return fmt.Errorf("%w: dimension must be positive, got %d", domain.ErrInvalidConfig, dimension)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, ok := idx.collections[name]; ok {
		return fmt.Errorf("%w: collection %s already exists", domain.ErrInvalidInput, name)
	}

	err := idx.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.Bucket(bucketCollections).CreateBucket([]byte(name))
		if err != nil {
			return err
		}
		dim := make([]byte, 8)
		binary.BigEndian.PutUint64(dim, uint64(dimension))
		if err := b.Put(keyDimension, dim); err != nil {
			return err
		}
		_, err = b.CreateBucket(bucketRecords)
		return err
	})
	if err != nil {
		return fmt.Errorf("creating collection %s: %w", name, err)
	}

	idx.collections[name] = &collection{dimension: dimension, graph: newGraph()}
	return nil
}

// DropCollection removes a collection and its records.
func (idx *Index) DropCollection(_ context.Context, name string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, ok := idx.collections[name]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, name)
	}

	err := idx.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketCollections).DeleteBucket([]byte(name))
	})
	if err != nil {
		return fmt.Errorf("deleting collection %s: %w", name, err)
	}

	delete(idx.collections, name)
	return nil
}

// ListCollections returns the collection names in lexical order.
func (idx *Index) ListCollections(_ context.Context) ([]string, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	names := make([]string, 0, len(idx.collections))
	for name := range idx.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (idx *Index) collection(name string) (*collection, error) {
	c, ok := idx.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, name)
	}
	return c, nil
}

// Insert persists records in one transaction, then adds them to the graph.
func (idx *Index) Insert(_ context.Context, name string, records []domain.Record) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	c, err := idx.collection(name)
	if err != nil {
		return err
	}

	next := len(c.records)
	stored := make([]storedRecord, len(records))
	for i, r := range records {
		if r.Dimension() != c.dimension {
			return fmt.Errorf("%w: record %s has %d, collection %s declares %d",
				domain.ErrDimensionMismatch, r.ID, r.Dimension(), name, c.dimension)
		}
		id := r.ID
		if id == "" {
			id = strconv.Itoa(next + i)
		}
		stored[i] = storedRecord{
			ID:        id,
			Text:      r.Text,
			Embedding: append([]float32(nil), r.Embedding...),
		}
	}

	err = idx.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketCollections).Bucket([]byte(name)).Bucket(bucketRecords)
		for i, r := range stored {
			data, err := json.Marshal(r)
			if err != nil {
				return err
			}
			key := make([]byte, 8)
			binary.BigEndian.PutUint64(key, uint64(next+i))
			if err := b.Put(key, data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("inserting into %s: %w", name, err)
	}

	for _, r := range stored {
		c.add(r)
	}
	return nil
}

// Search returns up to k nearest records ordered by descending similarity.
// When k covers the whole collection every record is scored exactly.
func (idx *Index) Search(_ context.Context, name string, query []float32, k int) ([]driven.CollectionHit, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	c, err := idx.collection(name)
	if err != nil {
		return nil, err
	}
	if len(query) != c.dimension {
		return nil, fmt.Errorf("%w: query has %d, collection %s declares %d",
			domain.ErrDimensionMismatch, len(query), name, c.dimension)
	}
	if k <= 0 || len(c.records) == 0 {
		return []driven.CollectionHit{}, nil
	}

	var positions []int
	if k >= len(c.records) {
		positions = make([]int, len(c.records))
		for i := range positions {
			positions[i] = i
		}
	} else {
		for _, cand := range c.graph.search(query, k) {
			positions = append(positions, cand.id)
		}
		sort.Ints(positions)
	}

	hits := make([]driven.CollectionHit, len(positions))
	for i, pos := range positions {
		r := c.records[pos]
		hits[i] = driven.CollectionHit{
			ID:         r.ID,
			Text:       r.Text,
			Similarity: vector.Cosine(query, r.Embedding),
		}
	}
	// positions are ascending, so a stable sort breaks ties by insertion order.
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Count returns the number of records in a collection.
func (idx *Index) Count(_ context.Context, name string) (int, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	c, err := idx.collection(name)
	if err != nil {
		return 0, err
	}
	return len(c.records), nil
}

// Close releases the bbolt file.
func (idx *Index) Close() error {
	return idx.db.Close()
}
