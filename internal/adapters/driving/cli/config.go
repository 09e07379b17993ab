package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/weave-lab/weave-chatbot-reference/internal/core/domain"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage application settings",
	Long: `View and change embedding, vector store, chunking and retrieval settings.

Settings live in config.toml in the config directory. API keys not set there
are read from GEMINI_API_KEY, GOOGLE_API_KEY or OPENAI_API_KEY.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a single setting",
	Long: `Set a single setting using dot notation.

Available keys:
  embedding.provider             gemini, ollama or openai
  embedding.model                model name (default depends on provider)
  embedding.base_url             API endpoint for Ollama or OpenAI-compatible servers
  embedding.api_key              API key for Gemini or OpenAI
  embedding.dimensions           embedding length
  embedding.requests_per_second  provider throttle, 0 disables
  vector_store.backend           chromem, hnsw or sqlite
  vector_store.path              index file (default under the config directory)
  vector_store.collection        default collection name
  chunker.mode                   markdown or simple
  chunker.chunk_size             maximum chunk length in characters
  chunker.overlap                characters repeated between chunks
  retrieval.top_k                default number of results
  retrieval.threshold            default similarity cut-off for 'query'

Omit the value for embedding.api_key to type it without echo.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runConfigSet,
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate settings and contact the embedding provider",
	Args:  cobra.NoArgs,
	RunE:  runConfigCheck,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configCheckCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	b, settings, err := loadSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	// Embedding settings
	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.Embedding.Model)
	cmd.Printf("  Dimensions: %d\n", settings.Embedding.Dimensions)
	if settings.Embedding.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.Embedding.BaseURL)
	}
	if settings.Embedding.Provider.RequiresAPIKey() {
		if settings.Embedding.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(settings.Embedding.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	if settings.Embedding.RequestsPerSecond > 0 {
		cmd.Printf("  Requests/s: %g\n", settings.Embedding.RequestsPerSecond)
	}
	status := "configured"
	if !settings.Embedding.IsConfigured() {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()

	// Vector store settings
	cmd.Println("[Vector Store]")
	cmd.Printf("  Backend: %s\n", settings.VectorStore.Backend.Description())
	if path, err := b.IndexPath(); err == nil {
		cmd.Printf("  Path: %s\n", path)
	}
	cmd.Printf("  Collection: %s\n", settings.VectorStore.Collection)
	cmd.Println()

	// Chunker settings
	cmd.Println("[Chunker]")
	cmd.Printf("  Mode: %s\n", settings.Chunker.Mode)
	cmd.Printf("  Chunk size: %d\n", settings.Chunker.ChunkSize)
	cmd.Printf("  Overlap: %d\n", settings.Chunker.Overlap)
	cmd.Println()

	// Retrieval settings
	cmd.Println("[Retrieval]")
	cmd.Printf("  Top k: %d\n", settings.Retrieval.TopK)
	cmd.Printf("  Threshold: %g\n", settings.Retrieval.Threshold)
	cmd.Println()

	// Validation
	if err := b.Settings().Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'weave-rag config set <key> <value>' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	b, err := getBackend()
	if err != nil {
		return err
	}

	key := args[0]
	var value string
	switch {
	case len(args) == 2:
		value = args[1]
	case key == "embedding.api_key":
		cmd.Print("Enter API key: ")
		value = readPassword(cmd.InOrStdin())
		cmd.Println()
		if value == "" {
			return errors.New("API key is required")
		}
	default:
		return fmt.Errorf("%w: a value is required for %s", domain.ErrInvalidInput, key)
	}

	if err := b.Settings().Set(key, value); err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return fmt.Errorf("%w (see 'weave-rag config set --help' for keys)", err)
		}
		return err
	}

	if key == "embedding.api_key" {
		value = maskAPIKey(value)
	}
	cmd.Printf("%s = %s\n", key, value)
	return nil
}

// readPassword reads a line from in without echo when in is a terminal.
func readPassword(in io.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	input, _ := bufio.NewReader(in).ReadString('\n')
	return strings.TrimSpace(input)
}

func runConfigCheck(cmd *cobra.Command, _ []string) error {
	b, err := getBackend()
	if err != nil {
		return err
	}

	if err := b.Settings().Validate(); err != nil {
		return err
	}
	cmd.Println("Settings are valid.")

	if err := b.CheckEmbedding(); err != nil {
		return fmt.Errorf("embedding provider check failed: %w", err)
	}
	cmd.Println("Embedding provider is reachable.")
	return nil
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
