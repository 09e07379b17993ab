package mcp

import (
	"context"

	"github.com/weave-lab/weave-chatbot-reference/internal/core/domain"
	"github.com/weave-lab/weave-chatbot-reference/internal/core/ports/driving"
)

// mockCollectionService is a mock implementation of driving.CollectionService.
type mockCollectionService struct {
	hits  []domain.ScoredText
	infos []driving.CollectionInfo
	err   error

	lastQuery      string
	lastCollection string
	lastOpts       domain.RetrieveOptions
}

func (m *mockCollectionService) CreateCollection(_ context.Context, _ []string, _ string) error {
	return m.err
}

func (m *mockCollectionService) Retrieve(
	ctx context.Context, query, name string, opts domain.RetrieveOptions,
) ([]string, error) {
	hits, err := m.RetrieveScored(ctx, query, name, opts)
	return domain.Texts(hits), err
}

func (m *mockCollectionService) RetrieveScored(
	_ context.Context, query, name string, opts domain.RetrieveOptions,
) ([]domain.ScoredText, error) {
	m.lastQuery, m.lastCollection, m.lastOpts = query, name, opts
	return m.hits, m.err
}

func (m *mockCollectionService) DropCollection(_ context.Context, _ string) error {
	return m.err
}

func (m *mockCollectionService) ListCollections(_ context.Context) ([]driving.CollectionInfo, error) {
	return m.infos, m.err
}

// mockSettingsService is a mock implementation of driving.SettingsService.
type mockSettingsService struct {
	settings domain.AppSettings
	err      error
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	if m.err != nil {
		return nil, m.err
	}
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(_ *domain.AppSettings) error { return m.err }
func (m *mockSettingsService) Set(_, _ string) error            { return m.err }
func (m *mockSettingsService) Validate() error                  { return m.err }
func (m *mockSettingsService) GetDefaults() domain.AppSettings  { return domain.DefaultAppSettings() }
