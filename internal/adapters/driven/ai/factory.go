// Package ai provides factory functions for creating embedding services and
// vector index engines from settings.
package ai

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/weave-lab/weave-chatbot-reference/internal/adapters/driven/embedding/gemini"
	ollamaembed "github.com/weave-lab/weave-chatbot-reference/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/weave-lab/weave-chatbot-reference/internal/adapters/driven/embedding/openai"
	"github.com/weave-lab/weave-chatbot-reference/internal/adapters/driven/storage/sqlite"
	"github.com/weave-lab/weave-chatbot-reference/internal/adapters/driven/vector/chromem"
	"github.com/weave-lab/weave-chatbot-reference/internal/adapters/driven/vector/hnsw"
	"github.com/weave-lab/weave-chatbot-reference/internal/core/domain"
	"github.com/weave-lab/weave-chatbot-reference/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// InitResult contains the services built for one command run.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	CollectionIndex  driven.CollectionIndex
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
	if r.CollectionIndex != nil {
		r.CollectionIndex.Close()
	}
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateEmbeddingService(ctx context.Context, settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: provider %q is not configured. Run 'weave-rag config set embedding.provider' to fix",
			domain.ErrEmbeddingUnavailable, providerOf(settings))
	}

	svc, err := CreateEmbeddingService(ctx, settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(pingCtx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w)", domain.ErrEmbeddingUnavailable, err)
	}

	return svc, nil
}

func providerOf(settings *domain.EmbeddingSettings) string {
	if settings == nil {
		return ""
	}
	return string(settings.Provider)
}

// ValidateEmbeddingConfig validates an embedding configuration by creating a service and pinging it.
func ValidateEmbeddingConfig(settings *domain.EmbeddingSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	svc, err := CreateEmbeddingService(ctx, settings)
	if err != nil {
		return err
	}
	defer svc.Close()

	return svc.Ping(ctx)
}

// CreateEmbeddingService creates the embedding service for the configured provider.
func CreateEmbeddingService(ctx context.Context, settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: embedding provider not configured", domain.ErrEmbeddingUnavailable)
	}

	switch settings.Provider {
	case domain.AIProviderGemini:
		return gemini.NewEmbeddingService(ctx, gemini.Config{
			APIKey:            settings.APIKey,
			Model:             settings.Model,
			Dimensions:        settings.Dimensions,
			RequestsPerSecond: settings.RequestsPerSecond,
		})

	case domain.AIProviderOllama:
		return createOllamaEmbedding(settings), nil

	case domain.AIProviderOpenAI:
		return createOpenAIEmbedding(settings)

	default:
		return nil, fmt.Errorf("%w: embedding provider %s", domain.ErrUnsupportedType, settings.Provider)
	}
}

// createOllamaEmbedding creates an Ollama embedding service.
// A declared dimension wins over the model's known native size.
func createOllamaEmbedding(settings *domain.EmbeddingSettings) driven.EmbeddingService {
	dimensions := settings.Dimensions
	if dimensions == 0 {
		dimensions = domain.EmbeddingDimensions()[settings.Model]
	}
	if dimensions == 0 {
		dimensions = ollamaembed.DefaultDimensions
	}

	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:           settings.BaseURL,
		Model:             settings.Model,
		Dimensions:        dimensions,
		RequestsPerSecond: settings.RequestsPerSecond,
	})
}

// createOpenAIEmbedding creates an OpenAI embedding service.
func createOpenAIEmbedding(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	dimensions := settings.Dimensions
	if dimensions == 0 {
		dimensions = domain.EmbeddingDimensions()[settings.Model]
	}

	return openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:            settings.APIKey,
		BaseURL:           settings.BaseURL,
		Model:             settings.Model,
		Dimensions:        dimensions,
		RequestsPerSecond: settings.RequestsPerSecond,
	})
}

// DefaultIndexFile returns the file name an engine persists to when no path is configured.
func DefaultIndexFile(backend domain.VectorBackend) string {
	switch backend {
	case domain.VectorBackendHNSW:
		return "collections.bolt"
	case domain.VectorBackendSQLite:
		return "collections.db"
	default:
		return "collections.gob.gz"
	}
}

// IndexPath resolves the engine file: the configured path, or the default file under dataDir.
func IndexPath(settings domain.VectorStoreSettings, dataDir string) string {
	if settings.Path != "" {
		return settings.Path
	}
	return filepath.Join(dataDir, DefaultIndexFile(settings.Backend))
}

// CreateCollectionIndex opens the configured index engine.
func CreateCollectionIndex(settings domain.VectorStoreSettings, dataDir string) (driven.CollectionIndex, error) {
	path := IndexPath(settings, dataDir)

	var (
		idx driven.CollectionIndex
		err error
	)
	switch settings.Backend {
	case domain.VectorBackendChromem, "":
		idx, err = chromem.New(path)
	case domain.VectorBackendHNSW:
		idx, err = hnsw.New(path)
	case domain.VectorBackendSQLite:
		idx, err = sqlite.NewStore(path)
	default:
		return nil, fmt.Errorf("%w: vector backend %s", domain.ErrUnsupportedType, settings.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrVectorIndexUnavailable, err)
	}
	return idx, nil
}
