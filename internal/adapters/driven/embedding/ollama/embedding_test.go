package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weave-lab/weave-chatbot-reference/internal/core/domain"
)

type recordingServer struct {
	mu      sync.Mutex
	prompts []string
	vector  []float64
	status  int
}

func (r *recordingServer) start(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		switch req.URL.Path {
		case "/api/tags":
			w.WriteHeader(r.statusOr(http.StatusOK))
		case "/api/embeddings":
			var body embedRequest
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			r.mu.Lock()
			r.prompts = append(r.prompts, body.Prompt)
			r.mu.Unlock()

			status := r.statusOr(http.StatusOK)
			if status != http.StatusOK {
				w.WriteHeader(status)
				_, _ = w.Write([]byte("model not found"))
				return
			}
			_ = json.NewEncoder(w).Encode(embedResponse{Embedding: r.vector})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func (r *recordingServer) statusOr(def int) int {
	if r.status != 0 {
		return r.status
	}
	return def
}

func TestNewEmbeddingService_Defaults(t *testing.T) {
	svc := NewEmbeddingService(Config{})
	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.Equal(t, DefaultDimensions, svc.Dimensions())
	assert.Equal(t, DefaultBaseURL, svc.baseURL)
	assert.NoError(t, svc.Close())
}

func TestEmbed_NomicPrefixesFollowHint(t *testing.T) {
	rec := &recordingServer{vector: []float64{0.1, 0.2, 0.3}}
	srv := rec.start(t)
	svc := NewEmbeddingService(Config{BaseURL: srv.URL, Dimensions: 3})

	vec, err := svc.Embed(context.Background(), "Paris is in France.", domain.TaskHintDocument)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)

	_, err = svc.Embed(context.Background(), "capital of France?", domain.TaskHintQuery)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"search_document: Paris is in France.",
		"search_query: capital of France?",
	}, rec.prompts)
}

func TestEmbed_OtherModelsUnprefixed(t *testing.T) {
	rec := &recordingServer{vector: []float64{1, 0}}
	srv := rec.start(t)
	svc := NewEmbeddingService(Config{BaseURL: srv.URL, Model: "all-minilm", Dimensions: 2})

	_, err := svc.Embed(context.Background(), "plain", domain.TaskHintQuery)
	require.NoError(t, err)
	assert.Equal(t, []string{"plain"}, rec.prompts)
}

func TestEmbed_EmptyVector(t *testing.T) {
	rec := &recordingServer{}
	srv := rec.start(t)
	svc := NewEmbeddingService(Config{BaseURL: srv.URL})

	_, err := svc.Embed(context.Background(), "x", domain.TaskHintDocument)
	assert.ErrorIs(t, err, domain.ErrEmptyEmbedding)
}

func TestEmbed_DimensionMismatch(t *testing.T) {
	rec := &recordingServer{vector: []float64{1, 2}}
	srv := rec.start(t)
	svc := NewEmbeddingService(Config{BaseURL: srv.URL, Dimensions: 3})

	_, err := svc.Embed(context.Background(), "x", domain.TaskHintDocument)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestEmbed_HTTPError(t *testing.T) {
	rec := &recordingServer{status: http.StatusInternalServerError}
	srv := rec.start(t)
	svc := NewEmbeddingService(Config{BaseURL: srv.URL})

	_, err := svc.Embed(context.Background(), "x", domain.TaskHintDocument)
	assert.ErrorIs(t, err, domain.ErrEmbeddingFailed)
	assert.Contains(t, err.Error(), "status 500")
	assert.Contains(t, err.Error(), "model not found")
}

func TestEmbed_RateLimitedStatus(t *testing.T) {
	rec := &recordingServer{status: http.StatusTooManyRequests}
	srv := rec.start(t)
	svc := NewEmbeddingService(Config{BaseURL: srv.URL})

	_, err := svc.Embed(context.Background(), "x", domain.TaskHintDocument)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
}

func TestEmbedBatch(t *testing.T) {
	rec := &recordingServer{vector: []float64{1, 0}}
	srv := rec.start(t)
	svc := NewEmbeddingService(Config{BaseURL: srv.URL, Dimensions: 2})

	got, err := svc.EmbedBatch(context.Background(), []string{"a", "b", "c"}, domain.TaskHintDocument)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Len(t, rec.prompts, 3)
}

func TestEmbedBatch_StopsAtFirstFailure(t *testing.T) {
	rec := &recordingServer{status: http.StatusBadGateway}
	srv := rec.start(t)
	svc := NewEmbeddingService(Config{BaseURL: srv.URL})

	_, err := svc.EmbedBatch(context.Background(), []string{"a", "b"}, domain.TaskHintDocument)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "embed text 0")
	assert.Len(t, rec.prompts, 1)
}

func TestPing(t *testing.T) {
	rec := &recordingServer{}
	srv := rec.start(t)
	svc := NewEmbeddingService(Config{BaseURL: srv.URL})
	assert.NoError(t, svc.Ping(context.Background()))

	rec.status = http.StatusServiceUnavailable
	err := svc.Ping(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
}

func TestPing_Unreachable(t *testing.T) {
	svc := NewEmbeddingService(Config{BaseURL: "http://127.0.0.1:1"})
	assert.Error(t, svc.Ping(context.Background()))
}
