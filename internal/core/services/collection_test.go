package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weave-lab/weave-chatbot-reference/internal/adapters/driven/storage/sqlite"
	"github.com/weave-lab/weave-chatbot-reference/internal/core/domain"
	"github.com/weave-lab/weave-chatbot-reference/internal/core/ports/driving"
)

func capitalsLoader() *mockLoader {
	return &mockLoader{files: map[string]string{
		"utah.md":  utahDoc,
		"paris.md": parisDoc,
		"empty.md": "",
	}}
}

func newCollectionFixture(t *testing.T) (*CollectionService, *mockIndex, *keywordEmbedder) {
	t.Helper()
	index := newMockIndex()
	embedder := capitalsEmbedder()
	return NewCollectionService(index, embedder, capitalsLoader(), simplePipeline(t)), index, embedder
}

func TestCollectionService_CreateAndRetrieve(t *testing.T) {
	svc, index, _ := newCollectionFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.CreateCollection(ctx, []string{"utah.md", "paris.md"}, "capitals"))

	assert.Equal(t, 7, index.dims["capitals"])
	assert.Equal(t, []string{utahDoc, parisDoc}, index.texts("capitals"))
	assert.Equal(t, "0", index.records["capitals"][0].ID)
	assert.Equal(t, "1", index.records["capitals"][1].ID)

	results, err := svc.Retrieve(ctx, "What is the capital of Utah?", "capitals", domain.RetrieveOptions{TopK: 1})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, results[0], "Salt Lake City")
}

func TestCollectionService_DefaultName(t *testing.T) {
	svc, index, _ := newCollectionFixture(t)

	require.NoError(t, svc.CreateCollection(context.Background(), []string{"utah.md"}, ""))

	_, ok := index.dims[domain.DefaultCollectionName]
	assert.True(t, ok)
}

func TestCollectionService_RecreateIsIdempotent(t *testing.T) {
	svc, index, _ := newCollectionFixture(t)
	ctx := context.Background()
	paths := []string{"utah.md", "paris.md"}

	require.NoError(t, svc.CreateCollection(ctx, paths, "capitals"))
	first, err := svc.RetrieveScored(ctx, "Paris", "capitals", domain.RetrieveOptions{TopK: 2})
	require.NoError(t, err)

	require.NoError(t, svc.CreateCollection(ctx, paths, "capitals"))
	second, err := svc.RetrieveScored(ctx, "Paris", "capitals", domain.RetrieveOptions{TopK: 2})
	require.NoError(t, err)

	count, err := index.Count(ctx, "capitals")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, index.dropCalls)
}

func TestCollectionService_EmbeddingFailureKeepsPreviousCollection(t *testing.T) {
	svc, index, embedder := newCollectionFixture(t)
	ctx := context.Background()
	require.NoError(t, svc.CreateCollection(ctx, []string{"utah.md"}, "capitals"))

	embedder.failOn = "Eiffel"
	err := svc.CreateCollection(ctx, []string{"utah.md", "paris.md"}, "capitals")

	require.Error(t, err)
	assert.Equal(t, []string{utahDoc}, index.texts("capitals"))
	assert.Zero(t, index.dropCalls)
}

func TestCollectionService_LoadError(t *testing.T) {
	svc, index, _ := newCollectionFixture(t)

	err := svc.CreateCollection(context.Background(), []string{"missing.md"}, "capitals")

	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Zero(t, index.createCalls)
}

func TestCollectionService_InsertError(t *testing.T) {
	svc, index, _ := newCollectionFixture(t)
	index.insertErr = errors.New("disk full")

	err := svc.CreateCollection(context.Background(), []string{"utah.md"}, "capitals")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert: disk full")
}

func TestCollectionService_EmptyCorpusCreatesEmptyCollection(t *testing.T) {
	svc, index, embedder := newCollectionFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.CreateCollection(ctx, []string{"empty.md"}, "empty"))

	assert.Equal(t, embedder.Dimensions(), index.dims["empty"])
	results, err := svc.Retrieve(ctx, "anything", "empty", domain.RetrieveOptions{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestCollectionService_RetrieveMissingCollection(t *testing.T) {
	svc, _, embedder := newCollectionFixture(t)

	_, err := svc.Retrieve(context.Background(), "utah", "nope", domain.RetrieveOptions{})

	require.ErrorIs(t, err, domain.ErrCollectionNotFound)
	assert.Zero(t, embedder.calls)
}

func TestCollectionService_RetrieveReturnsExactlyTopKWithoutThreshold(t *testing.T) {
	svc, _, _ := newCollectionFixture(t)
	ctx := context.Background()
	require.NoError(t, svc.CreateCollection(ctx, []string{"utah.md", "paris.md"}, "capitals"))

	results, err := svc.RetrieveScored(ctx, "Utah", "capitals", domain.RetrieveOptions{TopK: 2})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Less(t, results[1].Similarity, 0.1)

	results, err = svc.RetrieveScored(ctx, "Utah", "capitals", domain.RetrieveOptions{TopK: 10})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestCollectionService_RetrieveAppliesThreshold(t *testing.T) {
	svc, _, _ := newCollectionFixture(t)
	ctx := context.Background()
	require.NoError(t, svc.CreateCollection(ctx, []string{"utah.md", "paris.md"}, "capitals"))

	opts := domain.RetrieveOptions{TopK: 2}.WithThreshold(0.5)
	results, err := svc.Retrieve(ctx, "Utah", "capitals", opts)

	require.NoError(t, err)
	assert.Equal(t, []string{utahDoc}, results)
}

func TestCollectionService_RetrieveHints(t *testing.T) {
	svc, _, embedder := newCollectionFixture(t)
	ctx := context.Background()
	require.NoError(t, svc.CreateCollection(ctx, []string{"utah.md"}, "capitals"))

	_, err := svc.Retrieve(ctx, "utah", "capitals", domain.RetrieveOptions{})
	require.NoError(t, err)

	assert.Equal(t, []domain.TaskHint{domain.TaskHintDocument, domain.TaskHintQuery}, embedder.seenHints())
}

func TestCollectionService_DropAndList(t *testing.T) {
	svc, _, _ := newCollectionFixture(t)
	ctx := context.Background()
	require.NoError(t, svc.CreateCollection(ctx, []string{"utah.md", "paris.md"}, "b"))
	require.NoError(t, svc.CreateCollection(ctx, []string{"utah.md"}, "a"))

	infos, err := svc.ListCollections(ctx)
	require.NoError(t, err)
	assert.Equal(t, []driving.CollectionInfo{{Name: "a", Count: 1}, {Name: "b", Count: 2}}, infos)

	require.NoError(t, svc.DropCollection(ctx, "a"))
	infos, err = svc.ListCollections(ctx)
	require.NoError(t, err)
	assert.Equal(t, []driving.CollectionInfo{{Name: "b", Count: 2}}, infos)

	err = svc.DropCollection(ctx, "a")
	require.ErrorIs(t, err, domain.ErrCollectionNotFound)
}

func TestCollectionService_ConcurrentRetrieveDuringRecreate(t *testing.T) {
	svc, _, _ := newCollectionFixture(t)
	ctx := context.Background()
	paths := []string{"utah.md", "paris.md"}
	require.NoError(t, svc.CreateCollection(ctx, paths, "capitals"))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, svc.CreateCollection(ctx, paths, "capitals"))
		}()
		go func() {
			defer wg.Done()
			results, err := svc.Retrieve(ctx, "Utah", "capitals", domain.RetrieveOptions{TopK: 2})
			assert.NoError(t, err)
			assert.Len(t, results, 2)
		}()
	}
	wg.Wait()
}

func TestCollectionService_WithSQLiteIndex(t *testing.T) {
	store, err := sqlite.NewStore(filepath.Join(t.TempDir(), "collections.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	svc := NewCollectionService(store, capitalsEmbedder(), capitalsLoader(), simplePipeline(t))
	ctx := context.Background()

	require.NoError(t, svc.CreateCollection(ctx, []string{"utah.md", "paris.md"}, "capitals"))
	require.NoError(t, svc.CreateCollection(ctx, []string{"utah.md", "paris.md"}, "capitals"))

	results, err := svc.Retrieve(ctx, "What is the capital of Utah?", "capitals", domain.RetrieveOptions{TopK: 1})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, results[0], "Salt Lake City")

	infos, err := svc.ListCollections(ctx)
	require.NoError(t, err)
	assert.Equal(t, []driving.CollectionInfo{{Name: "capitals", Count: 2}}, infos)
}
