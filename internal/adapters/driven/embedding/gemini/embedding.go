// Package gemini provides an embedding service adapter using the Google Gen AI SDK.
package gemini

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/weave-lab/weave-chatbot-reference/internal/adapters/driven/embedding"
	"github.com/weave-lab/weave-chatbot-reference/internal/core/domain"
	"github.com/weave-lab/weave-chatbot-reference/internal/core/ports/driven"
	"github.com/weave-lab/weave-chatbot-reference/internal/logger"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultModel      = "gemini-embedding-001"
	DefaultDimensions = domain.DefaultEmbeddingDimension

	// maxBatch is the largest number of contents sent in one EmbedContent call.
	maxBatch = 100
)

// Gemini task types for asymmetric retrieval embeddings.
const (
	taskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	taskRetrievalQuery    = "RETRIEVAL_QUERY"
)

// Config holds configuration for the Gemini embedding service.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// Model is the embedding model to use (default: gemini-embedding-001).
	Model string

	// Dimensions is the requested output dimensionality (default: 768).
	Dimensions int

	// RequestsPerSecond throttles API calls. Zero disables throttling.
	RequestsPerSecond float64
}

// embedder is the slice of the genai client this adapter uses.
type embedder interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content,
		config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
	Get(ctx context.Context, model string, config *genai.GetModelConfig) (*genai.Model, error)
}

// EmbeddingService generates embeddings using Gemini.
type EmbeddingService struct {
	models     embedder
	model      string
	dimensions int
	limiter    *rate.Limiter
}

// NewEmbeddingService creates a new Gemini embedding service.
func NewEmbeddingService(ctx context.Context, cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: initialise client: %w", err)
	}

	return newEmbeddingService(client.Models, cfg), nil
}

func newEmbeddingService(models embedder, cfg Config) *EmbeddingService {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
	}

	return &EmbeddingService{
		models:     models,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		limiter:    embedding.NewLimiter(cfg.RequestsPerSecond),
	}
}

// taskType maps a hint onto the Gemini task type.
func taskType(hint domain.TaskHint) string {
	if hint == domain.TaskHintQuery {
		return taskRetrievalQuery
	}
	return taskRetrievalDocument
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string, hint domain.TaskHint) ([]float32, error) {
	embeddings, err := s.EmbedBatch(ctx, []string{text}, hint)
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// EmbedBatch generates embeddings for multiple texts, up to 100 per request.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string, hint domain.TaskHint) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	outputDim := int32(s.dimensions)
	cfg := &genai.EmbedContentConfig{
		TaskType:             taskType(hint),
		OutputDimensionality: &outputDim,
	}

	embeddings := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxBatch {
		end := min(start+maxBatch, len(texts))

		contents := make([]*genai.Content, 0, end-start)
		for _, text := range texts[start:end] {
			contents = append(contents, genai.NewContentFromText(text, genai.RoleUser))
		}

		if err := embedding.Wait(ctx, s.limiter); err != nil {
			return nil, err
		}

		logger.Debug("gemini: embedding %d texts (%s, %s)", len(contents), s.model, cfg.TaskType)
		result, err := s.models.EmbedContent(ctx, s.model, contents, cfg)
		if err != nil {
			return nil, fmt.Errorf("%w: gemini: %w", domain.ErrEmbeddingFailed, err)
		}
		if result == nil || len(result.Embeddings) != len(contents) {
			return nil, fmt.Errorf("%w: gemini returned %d embeddings for %d texts",
				domain.ErrEmptyEmbedding, countEmbeddings(result), len(contents))
		}

		for i, e := range result.Embeddings {
			if e == nil {
				return nil, fmt.Errorf("embed text %d: %w", start+i, domain.ErrEmptyEmbedding)
			}
			if err := embedding.CheckVector(e.Values, s.dimensions); err != nil {
				return nil, fmt.Errorf("embed text %d: %w", start+i, err)
			}
			embeddings = append(embeddings, e.Values)
		}
	}

	return embeddings, nil
}

func countEmbeddings(result *genai.EmbedContentResponse) int {
	if result == nil {
		return 0
	}
	return len(result.Embeddings)
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping validates the API key by fetching the model metadata.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	if _, err := s.models.Get(ctx, s.model, nil); err != nil {
		return fmt.Errorf("gemini: ping failed: %w", err)
	}
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	// genai.Client holds no connections that need explicit cleanup
	return nil
}
