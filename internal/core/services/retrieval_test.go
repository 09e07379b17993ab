package services

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weave-lab/weave-chatbot-reference/internal/adapters/driven/storage/memory"
	"github.com/weave-lab/weave-chatbot-reference/internal/core/domain"
)

func newRetrievalFixture(t *testing.T) (*RetrievalService, *memory.VectorStore, *keywordEmbedder) {
	t.Helper()
	store := memory.NewVectorStore(0, memory.WithDiagnostics(&bytes.Buffer{}))
	embedder := capitalsEmbedder()
	return NewRetrievalService(store, embedder, simplePipeline(t)), store, embedder
}

func TestRetrievalService_CapitalOfUtah(t *testing.T) {
	svc, store, _ := newRetrievalFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.Ingest(ctx, capitalsDocs()))
	assert.Equal(t, 2, store.Len())

	results, err := svc.Query(ctx, "What is the capital of Utah?", domain.RetrieveOptions{TopK: 1})

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, results[0], "Salt Lake City")
}

func TestRetrievalService_QueryScoredRanksDescending(t *testing.T) {
	svc, _, _ := newRetrievalFixture(t)
	ctx := context.Background()
	require.NoError(t, svc.Ingest(ctx, capitalsDocs()))

	hits, err := svc.QueryScored(ctx, "Eiffel Tower in Paris", domain.RetrieveOptions{TopK: 5})

	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Contains(t, hits[0].Text, "Paris")
	assert.GreaterOrEqual(t, hits[0].Similarity, hits[1].Similarity)
}

func TestRetrievalService_UsesTaskHints(t *testing.T) {
	svc, _, embedder := newRetrievalFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.Ingest(ctx, capitalsDocs()))
	_, err := svc.Query(ctx, "utah", domain.RetrieveOptions{})
	require.NoError(t, err)

	assert.Equal(t, []domain.TaskHint{
		domain.TaskHintDocument,
		domain.TaskHintDocument,
		domain.TaskHintQuery,
	}, embedder.seenHints())
}

func TestRetrievalService_ThresholdFiltersTopK(t *testing.T) {
	svc, _, _ := newRetrievalFixture(t)
	ctx := context.Background()
	require.NoError(t, svc.Ingest(ctx, capitalsDocs()))

	opts := domain.RetrieveOptions{TopK: 2}.WithThreshold(0.99)
	results, err := svc.Query(ctx, "Utah", opts)

	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = svc.Query(ctx, "Utah", domain.RetrieveOptions{TopK: 2}.WithThreshold(0.5))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, results[0], "Utah")
}

func TestRetrievalService_EmptyStore(t *testing.T) {
	svc, _, embedder := newRetrievalFixture(t)

	results, err := svc.Query(context.Background(), "anything", domain.RetrieveOptions{})

	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Zero(t, embedder.calls)
}

func TestRetrievalService_EmptyQuery(t *testing.T) {
	svc, _, _ := newRetrievalFixture(t)
	require.NoError(t, svc.Ingest(context.Background(), capitalsDocs()))

	results, err := svc.Query(context.Background(), "   ", domain.RetrieveOptions{})

	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRetrievalService_IngestEmptyCorpus(t *testing.T) {
	svc, store, _ := newRetrievalFixture(t)

	require.NoError(t, svc.Ingest(context.Background(), nil))
	require.NoError(t, svc.Ingest(context.Background(), []domain.Document{{ID: "blank", Content: ""}}))

	assert.Zero(t, store.Len())
}

func TestRetrievalService_IngestEmbeddingFailureAddsNothing(t *testing.T) {
	svc, store, embedder := newRetrievalFixture(t)
	embedder.failOn = "Eiffel"

	err := svc.Ingest(context.Background(), capitalsDocs())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "file:///paris.md")
	assert.Zero(t, store.Len())
}

func TestRetrievalService_IngestDimensionMismatch(t *testing.T) {
	store := memory.NewVectorStore(3)
	svc := NewRetrievalService(store, capitalsEmbedder(), simplePipeline(t))

	err := svc.Ingest(context.Background(), capitalsDocs())

	require.ErrorIs(t, err, domain.ErrDimensionMismatch)
	assert.Zero(t, store.Len())
}

func TestRetrievalService_QueryEmbeddingError(t *testing.T) {
	svc, _, embedder := newRetrievalFixture(t)
	require.NoError(t, svc.Ingest(context.Background(), capitalsDocs()))
	embedder.embedErr = domain.ErrEmbeddingFailed

	_, err := svc.Query(context.Background(), "utah", domain.RetrieveOptions{})

	require.ErrorIs(t, err, domain.ErrEmbeddingFailed)
	assert.Contains(t, err.Error(), "generate query embedding")
}

func TestRetrievalService_ReingestAfterReset(t *testing.T) {
	svc, store, _ := newRetrievalFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.Ingest(ctx, capitalsDocs()))
	first, err := svc.Query(ctx, "capital of Utah", domain.RetrieveOptions{TopK: 2})
	require.NoError(t, err)

	store.Reset()
	require.NoError(t, svc.Ingest(ctx, capitalsDocs()))
	second, err := svc.Query(ctx, "capital of Utah", domain.RetrieveOptions{TopK: 2})
	require.NoError(t, err)

	assert.Equal(t, 2, store.Len())
	assert.Equal(t, first, second)
}

func TestRetrievalService_ChunkError(t *testing.T) {
	store := memory.NewVectorStore(0)
	svc := NewRetrievalService(store, capitalsEmbedder(), failingPipeline{})

	err := svc.Ingest(context.Background(), capitalsDocs())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "chunk file:///utah.md")
}

type failingPipeline struct{}

func (failingPipeline) Process(_ context.Context, _ *domain.Document) ([]domain.Chunk, error) {
	return nil, errors.New("boom")
}
