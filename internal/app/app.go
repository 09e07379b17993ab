// Package app wires the driven adapters into the core services for the CLI.
// Provider clients and index files are opened on first use, so commands that
// only read settings never touch the network or the index file.
package app

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/weave-lab/weave-chatbot-reference/internal/adapters/driven/ai"
	"github.com/weave-lab/weave-chatbot-reference/internal/adapters/driven/config/file"
	"github.com/weave-lab/weave-chatbot-reference/internal/adapters/driven/loader"
	"github.com/weave-lab/weave-chatbot-reference/internal/adapters/driven/storage/memory"
	"github.com/weave-lab/weave-chatbot-reference/internal/adapters/driven/watcher"
	"github.com/weave-lab/weave-chatbot-reference/internal/core/domain"
	"github.com/weave-lab/weave-chatbot-reference/internal/core/ports/driven"
	"github.com/weave-lab/weave-chatbot-reference/internal/core/ports/driving"
	"github.com/weave-lab/weave-chatbot-reference/internal/core/services"
	"github.com/weave-lab/weave-chatbot-reference/internal/logger"
	"github.com/weave-lab/weave-chatbot-reference/internal/postprocessors"
)

// App owns the adapters for one CLI invocation.
type App struct {
	dataDir  string
	settings *services.SettingsService
	registry *postprocessors.Registry
	loader   *loader.FileLoader

	mu          sync.Mutex
	resources   ai.InitResult
	collections *services.CollectionService
}

// New opens the config store in configDir, or ~/.weave-rag when empty.
func New(configDir string) (*App, error) {
	store, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	logger.Debug("Config file: %s", store.Path())

	registry := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(registry)

	return &App{
		dataDir:  filepath.Dir(store.Path()),
		settings: services.NewSettingsService(store, ai.NewConfigValidator()),
		registry: registry,
		loader:   loader.NewFileLoader(),
	}, nil
}

// Settings returns the settings service.
func (a *App) Settings() driving.SettingsService {
	return a.settings
}

// CheckEmbedding pings the configured embedding provider.
func (a *App) CheckEmbedding() error {
	return a.settings.ValidateEmbeddingConfig()
}

// IndexPath returns the file the configured engine persists to.
func (a *App) IndexPath() (string, error) {
	settings, err := a.settings.Get()
	if err != nil {
		return "", err
	}
	return ai.IndexPath(settings.VectorStore, a.dataDir), nil
}

// ExpandPaths resolves files and directories into supported document files.
func (a *App) ExpandPaths(paths []string) ([]string, error) {
	return a.loader.ExpandPaths(paths)
}

// LoadDocuments expands paths and loads every document.
func (a *App) LoadDocuments(ctx context.Context, paths []string) ([]domain.Document, error) {
	files, err := a.ExpandPaths(paths)
	if err != nil {
		return nil, err
	}

	docs := make([]domain.Document, 0, len(files))
	for _, f := range files {
		doc, err := a.loader.Load(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
		docs = append(docs, *doc)
	}
	return docs, nil
}

// Pipeline builds a chunking pipeline for cfg.
func (a *App) Pipeline(cfg domain.ChunkerSettings) (driven.PostProcessorPipeline, error) {
	return postprocessors.BuildPipeline(a.registry, domain.PipelineConfigFor(cfg))
}

// Retrieval returns a retrieval service over a fresh in-memory store.
// Verbose retrievals list their candidates on diag.
func (a *App) Retrieval(ctx context.Context, cfg domain.ChunkerSettings, diag io.Writer) (driving.RetrievalService, error) {
	pipeline, err := a.Pipeline(cfg)
	if err != nil {
		return nil, err
	}
	embedder, err := a.embedder(ctx)
	if err != nil {
		return nil, err
	}

	store := memory.NewVectorStore(embedder.Dimensions(), memory.WithDiagnostics(diag))
	return services.NewRetrievalService(store, embedder, pipeline), nil
}

// Collections returns the collection service over the configured index engine.
func (a *App) Collections(ctx context.Context) (driving.CollectionService, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.collections != nil {
		return a.collections, nil
	}

	settings, err := a.settings.Get()
	if err != nil {
		return nil, err
	}
	pipeline, err := a.Pipeline(settings.Chunker)
	if err != nil {
		return nil, err
	}
	embedder, err := a.embedderLocked(ctx, settings)
	if err != nil {
		return nil, err
	}

	index, err := ai.CreateCollectionIndex(settings.VectorStore, a.dataDir)
	if err != nil {
		return nil, err
	}
	a.resources.CollectionIndex = index
	logger.Debug("Vector backend: %s (%s)", settings.VectorStore.Backend, ai.IndexPath(settings.VectorStore, a.dataDir))

	a.collections = services.NewCollectionService(index, embedder, a.loader, pipeline)
	return a.collections, nil
}

// WatchDocuments reports batches of changes to supported documents under paths.
// A batch is emitted once no change has arrived for quiet. The channel closes when ctx is done.
func (a *App) WatchDocuments(ctx context.Context, paths []string, quiet time.Duration) (<-chan []domain.FileChange, error) {
	w := watcher.New(paths, a.loader.Supported)
	changes, err := w.Watch(ctx)
	if err != nil {
		return nil, err
	}
	logger.Debug("Watching %d paths", len(paths))
	return watcher.Batch(ctx, changes, quiet), nil
}

func (a *App) embedder(ctx context.Context) (driven.EmbeddingService, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	settings, err := a.settings.Get()
	if err != nil {
		return nil, err
	}
	return a.embedderLocked(ctx, settings)
}

func (a *App) embedderLocked(ctx context.Context, settings *domain.AppSettings) (driven.EmbeddingService, error) {
	if a.resources.EmbeddingService != nil {
		return a.resources.EmbeddingService, nil
	}

	svc, err := ai.CreateAndValidateEmbeddingService(ctx, &settings.Embedding)
	if err != nil {
		return nil, err
	}
	logger.Debug("Embedding: %s (%s, %d dimensions)", settings.Embedding.Provider, svc.ModelName(), svc.Dimensions())

	a.resources.EmbeddingService = svc
	return svc, nil
}

// Close releases the provider client and the index file.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.resources.Close()
	a.resources = ai.InitResult{}
	a.collections = nil
	return nil
}
