// Package cli provides the weave-rag command line interface.
package cli

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/weave-lab/weave-chatbot-reference/internal/core/domain"
	"github.com/weave-lab/weave-chatbot-reference/internal/core/ports/driven"
	"github.com/weave-lab/weave-chatbot-reference/internal/core/ports/driving"
	"github.com/weave-lab/weave-chatbot-reference/internal/logger"
)

// version is set at build time with -ldflags "-X .../cli.version=...".
var version = "dev"

// Backend gives commands access to the core services.
// Implementations open provider clients and index files on first use.
type Backend interface {
	Settings() driving.SettingsService
	CheckEmbedding() error
	IndexPath() (string, error)
	ExpandPaths(paths []string) ([]string, error)
	LoadDocuments(ctx context.Context, paths []string) ([]domain.Document, error)
	Pipeline(cfg domain.ChunkerSettings) (driven.PostProcessorPipeline, error)
	Retrieval(ctx context.Context, cfg domain.ChunkerSettings, diag io.Writer) (driving.RetrievalService, error)
	Collections(ctx context.Context) (driving.CollectionService, error)
	WatchDocuments(ctx context.Context, paths []string, quiet time.Duration) (<-chan []domain.FileChange, error)
	Close() error
}

// OpenFunc opens a Backend for the given config directory.
type OpenFunc func(configDir string) (Backend, error)

var (
	verbose   bool
	configDir string

	openBackend OpenFunc
	backend     Backend
)

var rootCmd = &cobra.Command{
	Use:   "weave-rag",
	Short: "Retrieval over local documents",
	Long: `weave-rag chunks local Markdown, text, HTML, DOCX, PDF, XLSX and email
files, embeds them with a configured provider and answers similarity queries
against them.

Use 'query' for a one-shot in-memory search, or 'collection create' and
'retrieve' to persist a collection in the configured vector backend.
'tui' browses stored collections interactively.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print pipeline diagnostics to stderr")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.weave-rag)")
}

// Execute runs the root command. open is called the first time a command
// needs the backend, after flags are parsed.
func Execute(open OpenFunc) error {
	openBackend = open
	defer closeBackend()
	return rootCmd.Execute()
}

func getBackend() (Backend, error) {
	if backend != nil {
		return backend, nil
	}
	if openBackend == nil {
		return nil, errors.New("backend not configured")
	}
	b, err := openBackend(configDir)
	if err != nil {
		return nil, err
	}
	backend = b
	return backend, nil
}

func closeBackend() {
	if backend == nil {
		return
	}
	if err := backend.Close(); err != nil {
		logger.Warn("close: %v", err)
	}
	backend = nil
}

// loadSettings returns the current settings through the backend.
func loadSettings() (Backend, *domain.AppSettings, error) {
	b, err := getBackend()
	if err != nil {
		return nil, nil, err
	}
	settings, err := b.Settings().Get()
	if err != nil {
		return nil, nil, err
	}
	return b, settings, nil
}
