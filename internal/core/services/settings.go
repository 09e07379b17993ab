package services

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/weave-lab/weave-chatbot-reference/internal/core/domain"
	"github.com/weave-lab/weave-chatbot-reference/internal/core/ports/driven"
	"github.com/weave-lab/weave-chatbot-reference/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider   = "embedding.provider"
	keyEmbedModel      = "embedding.model"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedAPIKey     = "embedding.api_key"
	keyEmbedDims       = "embedding.dimensions"
	keyEmbedRPS        = "embedding.requests_per_second"
	keyVectorBackend   = "vector_store.backend"
	keyVectorPath      = "vector_store.path"
	keyVectorColl      = "vector_store.collection"
	keyChunkMode       = "chunker.mode"
	keyChunkSize       = "chunker.chunk_size"
	keyChunkOverlap    = "chunker.overlap"
	keyRetrievalTopK   = "retrieval.top_k"
	keyRetrievalThresh = "retrieval.threshold"
)

// DefaultOllamaURL is used when no base URL is configured for Ollama.
const DefaultOllamaURL = "http://localhost:11434"

// SettingsKeys returns every settable key in lexical order.
func SettingsKeys() []string {
	keys := []string{
		keyEmbedProvider, keyEmbedModel, keyEmbedBaseURL, keyEmbedAPIKey,
		keyEmbedDims, keyEmbedRPS,
		keyVectorBackend, keyVectorPath, keyVectorColl,
		keyChunkMode, keyChunkSize, keyChunkOverlap,
		keyRetrievalTopK, keyRetrievalThresh,
	}
	sort.Strings(keys)
	return keys
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings.
// Unset keys take defaults; unset provider credentials fall back to the environment.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	provider := s.getProvider(defaults.Embedding.Provider)
	model := s.configStore.GetString(keyEmbedModel)
	if model == "" {
		model = domain.DefaultEmbeddingModels()[provider]
	}
	mode := s.getChunkMode(defaults.Chunker.Mode)
	chunkSize, overlap := domain.DefaultMarkdownChunkSize, domain.DefaultMarkdownOverlap
	if mode == domain.ChunkModeSimple {
		chunkSize, overlap = domain.DefaultSimpleChunkSize, domain.DefaultSimpleOverlap
	}

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:          provider,
			Model:             model,
			BaseURL:           s.getBaseURL(provider),
			APIKey:            s.getAPIKey(provider),
			Dimensions:        s.getInt(keyEmbedDims, defaultDimensions(provider, model)),
			RequestsPerSecond: s.configStore.GetFloat(keyEmbedRPS),
		},
		VectorStore: domain.VectorStoreSettings{
			Backend:    s.getBackend(defaults.VectorStore.Backend),
			Path:       s.configStore.GetString(keyVectorPath), // Empty means the config directory
			Collection: s.getString(keyVectorColl, defaults.VectorStore.Collection),
		},
		Chunker: domain.ChunkerSettings{
			Mode:      mode,
			ChunkSize: s.getInt(keyChunkSize, chunkSize),
			Overlap:   s.getIntOrZero(keyChunkOverlap, overlap),
		},
		Retrieval: domain.RetrievalSettings{
			TopK:      s.getInt(keyRetrievalTopK, defaults.Retrieval.TopK),
			Threshold: s.getFloat(keyRetrievalThresh, defaults.Retrieval.Threshold),
		},
	}

	return settings, nil
}

// defaultDimensions picks the vector length when none is configured.
// Gemini truncates to the default dimension; other providers use the model's native length.
func defaultDimensions(provider domain.AIProvider, model string) int {
	if provider == domain.AIProviderGemini {
		return domain.DefaultEmbeddingDimension
	}
	if d, ok := domain.EmbeddingDimensions()[model]; ok {
		return d
	}
	return domain.DefaultEmbeddingDimension
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedDims, settings.Embedding.Dimensions},
		{keyEmbedRPS, settings.Embedding.RequestsPerSecond},
		{keyVectorBackend, settings.VectorStore.Backend.String()},
		{keyVectorPath, settings.VectorStore.Path},
		{keyVectorColl, settings.VectorStore.Collection},
		{keyChunkMode, settings.Chunker.Mode.String()},
		{keyChunkSize, settings.Chunker.ChunkSize},
		{keyChunkOverlap, settings.Chunker.Overlap},
		{keyRetrievalTopK, settings.Retrieval.TopK},
		{keyRetrievalThresh, settings.Retrieval.Threshold},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// Keys picked up from the environment are never written back.
	if settings.Embedding.APIKey != "" && settings.Embedding.APIKey != envAPIKey(settings.Embedding.Provider) {
		if err := s.configStore.Set(keyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save %s: %w", keyEmbedAPIKey, err)
		}
	}

	return nil
}

// Set parses and validates value for a single key, then stores it.
func (s *SettingsService) Set(key, value string) error {
	value = strings.TrimSpace(value)

	var parsed any
	switch key {
	case keyEmbedProvider:
		if !domain.AIProvider(value).IsValid() {
			return fmt.Errorf("%w: invalid embedding provider %q", domain.ErrInvalidConfig, value)
		}
		parsed = value
	case keyVectorBackend:
		if !domain.VectorBackend(value).IsValid() {
			return fmt.Errorf("%w: invalid vector backend %q", domain.ErrInvalidConfig, value)
		}
		parsed = value
	case keyChunkMode:
		if !domain.ChunkMode(value).IsValid() {
			return fmt.Errorf("%w: invalid chunk mode %q", domain.ErrInvalidConfig, value)
		}
		parsed = value
	case keyEmbedModel, keyEmbedBaseURL, keyEmbedAPIKey, keyVectorPath, keyVectorColl:
		parsed = value
	case keyEmbedDims, keyChunkSize, keyRetrievalTopK:
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("%w: %s must be a positive integer, got %q", domain.ErrInvalidConfig, key, value)
		}
		parsed = n
	case keyChunkOverlap:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: %s must be a non-negative integer, got %q", domain.ErrInvalidConfig, key, value)
		}
		parsed = n
	case keyEmbedRPS:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number, got %q", domain.ErrInvalidConfig, key, value)
		}
		parsed = f
	case keyRetrievalThresh:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < -1 || f > 1 {
			return fmt.Errorf("%w: %s must be a number in [-1, 1], got %q", domain.ErrInvalidConfig, key, value)
		}
		parsed = f
	default:
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	return s.configStore.Set(key, parsed)
}

// Validate checks the current settings for configuration errors.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return ValidateSettings(settings)
}

// ValidateSettings checks settings without contacting any provider.
func ValidateSettings(settings *domain.AppSettings) error {
	e := settings.Embedding
	if !e.Provider.IsValid() {
		return fmt.Errorf("%w: invalid embedding provider %q", domain.ErrInvalidConfig, e.Provider)
	}
	if !e.IsConfigured() {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidConfig, e.Provider.Description())
	}
	if e.Dimensions <= 0 {
		return fmt.Errorf("%w: embedding dimensions must be positive", domain.ErrInvalidConfig)
	}
	if !settings.VectorStore.Backend.IsValid() {
		return fmt.Errorf("%w: invalid vector backend %q", domain.ErrInvalidConfig, settings.VectorStore.Backend)
	}

	c := settings.Chunker
	if !c.Mode.IsValid() {
		return fmt.Errorf("%w: invalid chunk mode %q", domain.ErrInvalidConfig, c.Mode)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive", domain.ErrInvalidConfig)
	}
	if c.Overlap < 0 || c.Overlap >= c.ChunkSize {
		return fmt.Errorf("%w: overlap %d must be in [0, %d)", domain.ErrInvalidConfig, c.Overlap, c.ChunkSize)
	}

	if settings.Retrieval.TopK <= 0 {
		return fmt.Errorf("%w: top_k must be positive", domain.ErrInvalidConfig)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// GetPipelineConfig returns the chunking pipeline configuration for the current settings.
func (s *SettingsService) GetPipelineConfig() domain.PipelineConfig {
	settings, err := s.Get()
	if err != nil {
		return domain.DefaultPipelineConfig()
	}
	return domain.PipelineConfigFor(settings.Chunker)
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

// getIntOrZero treats an explicit zero as a value rather than as unset.
func (s *SettingsService) getIntOrZero(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getProvider(defaultVal domain.AIProvider) domain.AIProvider {
	provider := domain.AIProvider(s.configStore.GetString(keyEmbedProvider))
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getBackend(defaultVal domain.VectorBackend) domain.VectorBackend {
	backend := domain.VectorBackend(s.configStore.GetString(keyVectorBackend))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}

func (s *SettingsService) getChunkMode(defaultVal domain.ChunkMode) domain.ChunkMode {
	mode := domain.ChunkMode(s.configStore.GetString(keyChunkMode))
	if !mode.IsValid() {
		return defaultVal
	}
	return mode
}

func (s *SettingsService) getAPIKey(provider domain.AIProvider) string {
	if key := s.configStore.GetString(keyEmbedAPIKey); key != "" {
		return key
	}
	return envAPIKey(provider)
}

func (s *SettingsService) getBaseURL(provider domain.AIProvider) string {
	if url := s.configStore.GetString(keyEmbedBaseURL); url != "" {
		return url
	}
	if provider.IsLocal() {
		if host := os.Getenv("OLLAMA_HOST"); host != "" {
			if !strings.Contains(host, "://") {
				host = "http://" + host
			}
			return host
		}
		return DefaultOllamaURL
	}
	return ""
}

// envAPIKey returns the provider's API key from the environment, if any.
func envAPIKey(provider domain.AIProvider) string {
	var names []string
	switch provider {
	case domain.AIProviderGemini:
		names = []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}
	case domain.AIProviderOpenAI:
		names = []string{"OPENAI_API_KEY"}
	}
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}
