package cli

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/weave-lab/weave-chatbot-reference/internal/core/domain"
	"github.com/weave-lab/weave-chatbot-reference/internal/core/ports/driven"
	"github.com/weave-lab/weave-chatbot-reference/internal/core/ports/driving"
)

// --- Mock implementations ---

type mockSettingsService struct {
	settings    domain.AppSettings
	validateErr error
	setErr      error
	sets        map[string]string
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(s *domain.AppSettings) error {
	m.settings = *s
	return nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	if m.sets == nil {
		m.sets = map[string]string{}
	}
	m.sets[key] = value
	return nil
}

func (m *mockSettingsService) Validate() error                 { return m.validateErr }
func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }

type mockRetrievalService struct {
	ingested []domain.Document
	hits     []domain.ScoredText
	err      error
	lastOpts domain.RetrieveOptions
}

func (m *mockRetrievalService) Ingest(_ context.Context, docs []domain.Document) error {
	m.ingested = append(m.ingested, docs...)
	return m.err
}

func (m *mockRetrievalService) Query(ctx context.Context, text string, opts domain.RetrieveOptions) ([]string, error) {
	hits, err := m.QueryScored(ctx, text, opts)
	return domain.Texts(hits), err
}

func (m *mockRetrievalService) QueryScored(
	_ context.Context, _ string, opts domain.RetrieveOptions,
) ([]domain.ScoredText, error) {
	m.lastOpts = opts
	return m.hits, m.err
}

type mockCollectionService struct {
	hits  []domain.ScoredText
	infos []driving.CollectionInfo
	err   error

	created        []string
	createdName    string
	createCalls    int
	dropped        string
	lastCollection string
	lastOpts       domain.RetrieveOptions
}

func (m *mockCollectionService) CreateCollection(_ context.Context, paths []string, name string) error {
	m.created, m.createdName = paths, name
	m.createCalls++
	if m.err == nil {
		m.infos = append(m.infos, driving.CollectionInfo{Name: name, Count: len(paths) * 2})
	}
	return m.err
}

func (m *mockCollectionService) Retrieve(
	ctx context.Context, query, name string, opts domain.RetrieveOptions,
) ([]string, error) {
	hits, err := m.RetrieveScored(ctx, query, name, opts)
	return domain.Texts(hits), err
}

func (m *mockCollectionService) RetrieveScored(
	_ context.Context, _ string, name string, opts domain.RetrieveOptions,
) ([]domain.ScoredText, error) {
	m.lastCollection, m.lastOpts = name, opts
	return m.hits, m.err
}

func (m *mockCollectionService) DropCollection(_ context.Context, name string) error {
	m.dropped = name
	return m.err
}

func (m *mockCollectionService) ListCollections(_ context.Context) ([]driving.CollectionInfo, error) {
	return m.infos, m.err
}

// mockPipeline emits one chunk per document.
type mockPipeline struct {
	cfg domain.ChunkerSettings
}

func (m *mockPipeline) Process(_ context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc.Content == "" {
		return nil, nil
	}
	return []domain.Chunk{{DocumentID: doc.ID, Content: doc.Content, SourceHeader: "# " + doc.Title}}, nil
}

type mockBackend struct {
	settings    *mockSettingsService
	retrieval   *mockRetrievalService
	collections *mockCollectionService
	docs        []domain.Document
	files       []string
	expand      func(paths []string) ([]string, error)
	embedErr    error
	openErr     error
	watchErr    error
	batches     [][]domain.FileChange

	pipelineCfg  domain.ChunkerSettings
	retrievalCfg domain.ChunkerSettings
	loadedPaths  []string
	watchedPaths []string
	watchQuiet   time.Duration
	closed       bool
}

var _ Backend = (*mockBackend)(nil)

func newMockBackend() *mockBackend {
	return &mockBackend{
		settings:    &mockSettingsService{settings: domain.DefaultAppSettings()},
		retrieval:   &mockRetrievalService{},
		collections: &mockCollectionService{},
	}
}

func (m *mockBackend) Settings() driving.SettingsService { return m.settings }
func (m *mockBackend) CheckEmbedding() error             { return m.embedErr }
func (m *mockBackend) IndexPath() (string, error)        { return "/tmp/weave/collections.gob.gz", nil }
func (m *mockBackend) Close() error                      { m.closed = true; return nil }

func (m *mockBackend) ExpandPaths(paths []string) ([]string, error) {
	if m.expand != nil {
		return m.expand(paths)
	}
	if m.files != nil {
		return m.files, nil
	}
	return paths, nil
}

func (m *mockBackend) LoadDocuments(_ context.Context, paths []string) ([]domain.Document, error) {
	m.loadedPaths = paths
	return m.docs, nil
}

func (m *mockBackend) Pipeline(cfg domain.ChunkerSettings) (driven.PostProcessorPipeline, error) {
	m.pipelineCfg = cfg
	return &mockPipeline{cfg: cfg}, nil
}

func (m *mockBackend) Retrieval(
	_ context.Context, cfg domain.ChunkerSettings, _ io.Writer,
) (driving.RetrievalService, error) {
	m.retrievalCfg = cfg
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.retrieval, nil
}

func (m *mockBackend) Collections(_ context.Context) (driving.CollectionService, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.collections, nil
}

// WatchDocuments replays the configured batches and then closes the channel.
func (m *mockBackend) WatchDocuments(
	_ context.Context, paths []string, quiet time.Duration,
) (<-chan []domain.FileChange, error) {
	if m.watchErr != nil {
		return nil, m.watchErr
	}
	m.watchedPaths, m.watchQuiet = paths, quiet
	ch := make(chan []domain.FileChange, len(m.batches))
	for _, b := range m.batches {
		ch <- b
	}
	close(ch)
	return ch, nil
}

// --- Helpers ---

// resetFlags restores every flag in the command tree to its default value.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// runCLI executes the root command against b and returns its output.
func runCLI(t *testing.T, b *mockBackend, args ...string) (string, error) {
	t.Helper()

	resetFlags(rootCmd)
	backend = nil
	openBackend = func(string) (Backend, error) {
		if b.openErr != nil {
			return nil, b.openErr
		}
		return b, nil
	}
	t.Cleanup(func() {
		backend = nil
		openBackend = nil
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return buf.String(), err
}
