package domain

const unknownDescription = "Unknown"

// AIProvider identifies an embedding service provider.
type AIProvider string

// Available AI providers.
const (
	// AIProviderGemini is the Google Gemini API.
	AIProviderGemini AIProvider = "gemini"

	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderGemini, AIProviderOllama, AIProviderOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderGemini || p == AIProviderOpenAI
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderGemini:
		return "Gemini (cloud)"
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	default:
		return unknownDescription
	}
}

// VectorBackend identifies the embedded engine behind an index-backed store.
type VectorBackend string

// Available vector backends.
const (
	// VectorBackendChromem stores collections in chromem-go, exported to a single gob file.
	VectorBackendChromem VectorBackend = "chromem"

	// VectorBackendHNSW keeps an in-memory HNSW graph over records persisted in bbolt.
	VectorBackendHNSW VectorBackend = "hnsw"

	// VectorBackendSQLite scans float32 blobs stored in a SQLite database.
	VectorBackendSQLite VectorBackend = "sqlite"
)

// IsValid returns true if the backend is recognised.
func (b VectorBackend) IsValid() bool {
	switch b {
	case VectorBackendChromem, VectorBackendHNSW, VectorBackendSQLite:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b VectorBackend) String() string {
	return string(b)
}

// Description returns a human-readable description of the backend.
func (b VectorBackend) Description() string {
	switch b {
	case VectorBackendChromem:
		return "chromem-go (exhaustive, gob file)"
	case VectorBackendHNSW:
		return "HNSW (approximate, bbolt file)"
	case VectorBackendSQLite:
		return "SQLite (exhaustive, database file)"
	default:
		return unknownDescription
	}
}

// ChunkMode selects the chunking algorithm.
type ChunkMode string

// Available chunk modes.
const (
	// ChunkModeMarkdown splits at headings, then paragraphs, then sentence-aware windows.
	ChunkModeMarkdown ChunkMode = "markdown"

	// ChunkModeSimple slides a fixed character window with overlap.
	ChunkModeSimple ChunkMode = "simple"
)

// IsValid returns true if the mode is recognised.
func (m ChunkMode) IsValid() bool {
	return m == ChunkModeMarkdown || m == ChunkModeSimple
}

// String returns the string representation.
func (m ChunkMode) String() string {
	return string(m)
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama and OpenAI-compatible servers).
	BaseURL string

	// APIKey is the API key (for Gemini and OpenAI).
	APIKey string

	// Dimensions is the declared embedding length.
	Dimensions int

	// RequestsPerSecond throttles provider calls. Zero disables throttling.
	RequestsPerSecond float64
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// VectorStoreSettings holds index-backed store configuration.
type VectorStoreSettings struct {
	// Backend selects the embedded engine.
	Backend VectorBackend

	// Path is the single file the engine persists to.
	Path string

	// Collection is the default collection name.
	Collection string
}

// ChunkerSettings holds chunking configuration.
type ChunkerSettings struct {
	// Mode selects header-aware or fixed-window chunking.
	Mode ChunkMode

	// ChunkSize is the maximum chunk length in characters.
	ChunkSize int

	// Overlap is the number of characters repeated between windows.
	Overlap int
}

// RetrievalSettings holds query defaults.
type RetrievalSettings struct {
	// TopK is the default number of results.
	TopK int

	// Threshold is the default similarity cut-off for in-memory queries.
	Threshold float64
}

// AppSettings holds all application settings.
type AppSettings struct {
	// Embedding holds embedding provider settings.
	Embedding EmbeddingSettings

	// VectorStore holds index-backed store settings.
	VectorStore VectorStoreSettings

	// Chunker holds chunking settings.
	Chunker ChunkerSettings

	// Retrieval holds query defaults.
	Retrieval RetrievalSettings
}

// Defaults shared by the settings service and the CLI.
const (
	DefaultCollectionName     = "rag_collection"
	DefaultEmbeddingDimension = 768
	DefaultMarkdownChunkSize  = 6000
	DefaultMarkdownOverlap    = 200
	DefaultSimpleChunkSize    = 512
	DefaultSimpleOverlap      = 50
	DefaultThreshold          = 0.75
)

// DefaultAppSettings returns settings with sensible defaults.
// The API key is left empty; it comes from the config file or the environment.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider:   AIProviderGemini,
			Model:      "gemini-embedding-001",
			Dimensions: DefaultEmbeddingDimension,
		},
		VectorStore: VectorStoreSettings{
			Backend:    VectorBackendChromem,
			Collection: DefaultCollectionName,
		},
		Chunker: ChunkerSettings{
			Mode:      ChunkModeMarkdown,
			ChunkSize: DefaultMarkdownChunkSize,
			Overlap:   DefaultMarkdownOverlap,
		},
		Retrieval: RetrievalSettings{
			TopK:      DefaultTopK,
			Threshold: DefaultThreshold,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderGemini,
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllVectorBackends returns every index-backed engine.
func AllVectorBackends() []VectorBackend {
	return []VectorBackend{
		VectorBackendChromem,
		VectorBackendHNSW,
		VectorBackendSQLite,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderGemini: "gemini-embedding-001",
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// EmbeddingDimensions returns the native vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Gemini models
		"gemini-embedding-001": 3072,
		"text-embedding-004":   768,
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}

// PipelineConfig holds post-processor pipeline configuration.
// Uses generic map-based config so new processors can be added
// without modifying this struct.
type PipelineConfig struct {
	// Processors is the ordered list of processor names to run.
	Processors []string

	// ProcessorConfigs holds per-processor configuration as generic maps.
	// Key is processor name, value is processor-specific config.
	ProcessorConfigs map[string]map[string]any
}

// GetProcessorConfig returns config for a specific processor, or nil if not set.
func (c *PipelineConfig) GetProcessorConfig(name string) map[string]any {
	if c.ProcessorConfigs == nil {
		return nil
	}
	return c.ProcessorConfigs[name]
}

// PipelineConfigFor builds a single-processor pipeline configuration for the chunker settings.
func PipelineConfigFor(s ChunkerSettings) PipelineConfig {
	name := "chunker"
	if s.Mode == ChunkModeMarkdown {
		name = "markdown"
	}
	return PipelineConfig{
		Processors: []string{name},
		ProcessorConfigs: map[string]map[string]any{
			name: {
				"chunk_size": s.ChunkSize,
				"overlap":    s.Overlap,
			},
		},
	}
}

// DefaultPipelineConfig returns the default pipeline configuration.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfigFor(DefaultAppSettings().Chunker)
}
