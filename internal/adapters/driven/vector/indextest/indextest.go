// Package indextest is a conformance suite for driven.CollectionIndex engines.
package indextest

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weave-lab/weave-chatbot-reference/internal/core/domain"
	"github.com/weave-lab/weave-chatbot-reference/internal/core/ports/driven"
)

// OpenFunc opens (or reopens) an engine persisting to path.
type OpenFunc func(t *testing.T, path string) driven.CollectionIndex

// Compass records: query {1, 0.1, 0} ranks them east, north-east, north, up.
var compass = []domain.Record{
	{ID: "0", Text: "north", Embedding: []float32{0, 1, 0}},
	{ID: "1", Text: "east", Embedding: []float32{1, 0, 0}},
	{ID: "2", Text: "up", Embedding: []float32{0, 0, 1}},
	{ID: "3", Text: "north-east", Embedding: []float32{1, 1, 0}},
}

var eastish = []float32{1, 0.1, 0}

// Run executes every conformance test against the engine. file is the base name used under t.TempDir().
func Run(t *testing.T, file string, open OpenFunc) {
	t.Helper()

	newIndex := func(t *testing.T) (driven.CollectionIndex, string) {
		path := filepath.Join(t.TempDir(), "nested", file)
		idx := open(t, path)
		t.Cleanup(func() { _ = idx.Close() })
		return idx, path
	}

	t.Run("Lifecycle", func(t *testing.T) {
		ctx := context.Background()
		idx, _ := newIndex(t)

		names, err := idx.ListCollections(ctx)
		require.NoError(t, err)
		assert.Empty(t, names)

		require.NoError(t, idx.CreateCollection(ctx, "zeta", 3))
		require.NoError(t, idx.CreateCollection(ctx, "alpha", 3))

		ok, err := idx.HasCollection(ctx, "alpha")
		require.NoError(t, err)
		assert.True(t, ok)

		names, err = idx.ListCollections(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"alpha", "zeta"}, names)

		n, err := idx.Count(ctx, "alpha")
		require.NoError(t, err)
		assert.Zero(t, n)

		require.NoError(t, idx.DropCollection(ctx, "alpha"))
		ok, err = idx.HasCollection(ctx, "alpha")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("CreateTwiceFails", func(t *testing.T) {
		ctx := context.Background()
		idx, _ := newIndex(t)

		require.NoError(t, idx.CreateCollection(ctx, "docs", 3))
		assert.Error(t, idx.CreateCollection(ctx, "docs", 3))
	})

	t.Run("CreateRejectsBadDimension", func(t *testing.T) {
		idx, _ := newIndex(t)
		assert.ErrorIs(t, idx.CreateCollection(context.Background(), "docs", 0), domain.ErrInvalidConfig)
	})

	t.Run("MissingCollection", func(t *testing.T) {
		ctx := context.Background()
		idx, _ := newIndex(t)

		_, err := idx.Search(ctx, "ghost", eastish, 3)
		assert.ErrorIs(t, err, domain.ErrCollectionNotFound)

		_, err = idx.Count(ctx, "ghost")
		assert.ErrorIs(t, err, domain.ErrCollectionNotFound)

		err = idx.Insert(ctx, "ghost", compass)
		assert.ErrorIs(t, err, domain.ErrCollectionNotFound)

		err = idx.DropCollection(ctx, "ghost")
		assert.ErrorIs(t, err, domain.ErrCollectionNotFound)
	})

	t.Run("SearchRanksByCosine", func(t *testing.T) {
		ctx := context.Background()
		idx, _ := newIndex(t)

		require.NoError(t, idx.CreateCollection(ctx, "compass", 3))
		require.NoError(t, idx.Insert(ctx, "compass", compass))

		n, err := idx.Count(ctx, "compass")
		require.NoError(t, err)
		assert.Equal(t, 4, n)

		hits, err := idx.Search(ctx, "compass", eastish, 3)
		require.NoError(t, err)
		require.Len(t, hits, 3)
		assert.Equal(t, []string{"east", "north-east", "north"}, texts(hits))
		assert.Equal(t, "1", hits[0].ID)
		assert.InDelta(t, 0.995, hits[0].Similarity, 1e-3)
		assert.InDelta(t, 0.774, hits[1].Similarity, 1e-3)
		assert.InDelta(t, 0.0995, hits[2].Similarity, 1e-3)
	})

	t.Run("SearchClampsK", func(t *testing.T) {
		ctx := context.Background()
		idx, _ := newIndex(t)

		require.NoError(t, idx.CreateCollection(ctx, "compass", 3))
		require.NoError(t, idx.Insert(ctx, "compass", compass))

		hits, err := idx.Search(ctx, "compass", eastish, 50)
		require.NoError(t, err)
		assert.Len(t, hits, 4)
		assert.Equal(t, "up", hits[3].Text)
	})

	t.Run("SearchEmptyCollection", func(t *testing.T) {
		ctx := context.Background()
		idx, _ := newIndex(t)

		require.NoError(t, idx.CreateCollection(ctx, "empty", 3))
		hits, err := idx.Search(ctx, "empty", eastish, 3)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("DimensionMismatch", func(t *testing.T) {
		ctx := context.Background()
		idx, _ := newIndex(t)

		require.NoError(t, idx.CreateCollection(ctx, "compass", 3))
		err := idx.Insert(ctx, "compass", []domain.Record{{ID: "0", Text: "flat", Embedding: []float32{1, 0}}})
		assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

		n, err := idx.Count(ctx, "compass")
		require.NoError(t, err)
		assert.Zero(t, n)

		require.NoError(t, idx.Insert(ctx, "compass", compass))
		_, err = idx.Search(ctx, "compass", []float32{1, 0}, 1)
		assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	})

	t.Run("DropAndRecreateReplacesRecords", func(t *testing.T) {
		ctx := context.Background()
		idx, _ := newIndex(t)

		require.NoError(t, idx.CreateCollection(ctx, "docs", 3))
		require.NoError(t, idx.Insert(ctx, "docs", compass))

		require.NoError(t, idx.DropCollection(ctx, "docs"))
		require.NoError(t, idx.CreateCollection(ctx, "docs", 3))
		require.NoError(t, idx.Insert(ctx, "docs", compass[:1]))

		hits, err := idx.Search(ctx, "docs", eastish, 3)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "north", hits[0].Text)
	})

	t.Run("CollectionsAreIsolated", func(t *testing.T) {
		ctx := context.Background()
		idx, _ := newIndex(t)

		require.NoError(t, idx.CreateCollection(ctx, "a", 3))
		require.NoError(t, idx.CreateCollection(ctx, "b", 3))
		require.NoError(t, idx.Insert(ctx, "a", compass))
		require.NoError(t, idx.Insert(ctx, "b", compass[2:3]))

		hits, err := idx.Search(ctx, "b", eastish, 3)
		require.NoError(t, err)
		assert.Equal(t, []string{"up"}, texts(hits))
	})

	t.Run("PersistsAcrossReopen", func(t *testing.T) {
		ctx := context.Background()
		idx, path := newIndex(t)

		require.NoError(t, idx.CreateCollection(ctx, "compass", 3))
		require.NoError(t, idx.Insert(ctx, "compass", compass))
		require.NoError(t, idx.Close())

		reopened := open(t, path)
		t.Cleanup(func() { _ = reopened.Close() })

		names, err := reopened.ListCollections(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"compass"}, names)

		hits, err := reopened.Search(ctx, "compass", eastish, 2)
		require.NoError(t, err)
		assert.Equal(t, []string{"east", "north-east"}, texts(hits))

		err = reopened.Insert(ctx, "compass", []domain.Record{{ID: "4", Text: "flat", Embedding: []float32{1}}})
		assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	})

	t.Run("ManyRecords", func(t *testing.T) {
		ctx := context.Background()
		idx, _ := newIndex(t)

		records := make([]domain.Record, 200)
		for i := range records {
			angle := float32(i) / 200
			records[i] = domain.Record{
				ID:        strconv.Itoa(i),
				Text:      "r" + strconv.Itoa(i),
				Embedding: []float32{1 - angle, angle, 0.01},
			}
		}
		require.NoError(t, idx.CreateCollection(ctx, "many", 3))
		require.NoError(t, idx.Insert(ctx, "many", records))

		hits, err := idx.Search(ctx, "many", []float32{1, 0, 0.01}, 5)
		require.NoError(t, err)
		require.Len(t, hits, 5)
		assert.Equal(t, "r0", hits[0].Text)
		for i := 1; i < len(hits); i++ {
			assert.GreaterOrEqual(t, hits[i-1].Similarity, hits[i].Similarity)
		}
	})
}

func texts(hits []driven.CollectionHit) []string {
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.Text
	}
	return out
}
