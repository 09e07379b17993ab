package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/weave-lab/weave-chatbot-reference/internal/adapters/driven/vector"
	"github.com/weave-lab/weave-chatbot-reference/internal/core/domain"
	"github.com/weave-lab/weave-chatbot-reference/internal/core/ports/driven"
	"github.com/weave-lab/weave-chatbot-reference/internal/postprocessors"
	"github.com/weave-lab/weave-chatbot-reference/internal/postprocessors/chunker"
)

// --- Mock implementations ---

// keywordEmbedder implements driven.EmbeddingService by counting vocabulary
// words. The last dimension is a small constant so no vector is zero.
type keywordEmbedder struct {
	vocab    []string
	failOn   string
	embedErr error

	mu    sync.Mutex
	hints []domain.TaskHint
	calls int
}

var _ driven.EmbeddingService = (*keywordEmbedder)(nil)

func newKeywordEmbedder(vocab ...string) *keywordEmbedder {
	return &keywordEmbedder{vocab: vocab}
}

func (m *keywordEmbedder) vectorFor(text string) []float32 {
	lower := strings.ToLower(text)
	vec := make([]float32, len(m.vocab)+1)
	for i, word := range m.vocab {
		vec[i] = float32(strings.Count(lower, word))
	}
	vec[len(m.vocab)] = 0.01
	return vec
}

func (m *keywordEmbedder) record(hint domain.TaskHint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hints = append(m.hints, hint)
	m.calls++
}

func (m *keywordEmbedder) Embed(_ context.Context, text string, hint domain.TaskHint) ([]float32, error) {
	m.record(hint)
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.vectorFor(text), nil
}

func (m *keywordEmbedder) EmbedBatch(_ context.Context, texts []string, hint domain.TaskHint) ([][]float32, error) {
	m.record(hint)
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if m.failOn != "" && strings.Contains(text, m.failOn) {
			return nil, errors.New("provider rejected input")
		}
		out[i] = m.vectorFor(text)
	}
	return out, nil
}

func (m *keywordEmbedder) Dimensions() int              { return len(m.vocab) + 1 }
func (m *keywordEmbedder) ModelName() string            { return "keyword" }
func (m *keywordEmbedder) Ping(_ context.Context) error { return nil }
func (m *keywordEmbedder) Close() error                 { return nil }

func (m *keywordEmbedder) seenHints() []domain.TaskHint {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.TaskHint(nil), m.hints...)
}

// mockLoader implements driven.DocumentLoader from an in-memory map of path to content.
type mockLoader struct {
	files map[string]string
}

func (m *mockLoader) Load(_ context.Context, path string) (*domain.Document, error) {
	content, ok := m.files[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &domain.Document{ID: path, URI: "file://" + path, Content: content}, nil
}

// mockIndex implements driven.CollectionIndex with exact search over maps.
type mockIndex struct {
	mu          sync.Mutex
	dims        map[string]int
	records     map[string][]domain.Record
	insertErr   error
	dropCalls   int
	createCalls int
}

var _ driven.CollectionIndex = (*mockIndex)(nil)

func newMockIndex() *mockIndex {
	return &mockIndex{dims: map[string]int{}, records: map[string][]domain.Record{}}
}

func (m *mockIndex) HasCollection(_ context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.dims[name]
	return ok, nil
}

func (m *mockIndex) CreateCollection(_ context.Context, name string, dimension int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	if _, ok := m.dims[name]; ok {
		return domain.ErrInvalidInput
	}
	m.dims[name] = dimension
	return nil
}

func (m *mockIndex) DropCollection(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropCalls++
	if _, ok := m.dims[name]; !ok {
		return domain.ErrCollectionNotFound
	}
	delete(m.dims, name)
	delete(m.records, name)
	return nil
}

func (m *mockIndex) ListCollections(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.dims))
	for n := range m.dims {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (m *mockIndex) Insert(_ context.Context, name string, records []domain.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	if _, ok := m.dims[name]; !ok {
		return domain.ErrCollectionNotFound
	}
	m.records[name] = append(m.records[name], records...)
	return nil
}

func (m *mockIndex) Search(_ context.Context, name string, query []float32, k int) ([]driven.CollectionHit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.dims[name]; !ok {
		return nil, domain.ErrCollectionNotFound
	}
	hits := make([]driven.CollectionHit, 0, len(m.records[name]))
	for _, r := range m.records[name] {
		hits = append(hits, driven.CollectionHit{ID: r.ID, Text: r.Text, Similarity: vector.Cosine(query, r.Embedding)})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Similarity > hits[j].Similarity })
	return hits[:min(k, len(hits))], nil
}

func (m *mockIndex) Count(_ context.Context, name string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.dims[name]; !ok {
		return 0, domain.ErrCollectionNotFound
	}
	return len(m.records[name]), nil
}

func (m *mockIndex) Close() error { return nil }

func (m *mockIndex) texts(name string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.records[name]))
	for i, r := range m.records[name] {
		out[i] = r.Text
	}
	return out
}

// mockValidator implements driven.AIConfigValidator for testing.
type mockValidator struct {
	err  error
	seen *domain.EmbeddingSettings
}

func (m *mockValidator) ValidateEmbedding(s *domain.EmbeddingSettings) error {
	m.seen = s
	return m.err
}

// --- Fixtures ---

const (
	utahDoc  = "Salt Lake City is the capital of Utah. The Utah state capitol overlooks the valley."
	parisDoc = "Paris is the capital of France. The Eiffel Tower stands in Paris on the Seine."
)

func capitalsEmbedder() *keywordEmbedder {
	return newKeywordEmbedder("utah", "salt lake", "paris", "france", "eiffel", "capital")
}

func simplePipeline(t *testing.T) *postprocessors.Pipeline {
	t.Helper()
	p, err := chunker.New(
		chunker.WithMode(domain.ChunkModeSimple),
		chunker.WithChunkSize(domain.DefaultSimpleChunkSize),
		chunker.WithOverlap(domain.DefaultSimpleOverlap),
	)
	require.NoError(t, err)
	return postprocessors.NewPipeline(p)
}

func capitalsDocs() []domain.Document {
	return []domain.Document{
		{ID: "utah", URI: "file:///utah.md", Content: utahDoc},
		{ID: "paris", URI: "file:///paris.md", Content: parisDoc},
	}
}
