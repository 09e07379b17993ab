package tui

import (
	"context"

	"github.com/weave-lab/weave-chatbot-reference/internal/core/domain"
	"github.com/weave-lab/weave-chatbot-reference/internal/core/ports/driving"
)

type mockCollectionService struct {
	infos   []driving.CollectionInfo
	results []domain.ScoredText
	err     error

	lastName string
	lastOpts domain.RetrieveOptions
}

func (m *mockCollectionService) CreateCollection(_ context.Context, _ []string, _ string) error {
	return m.err
}

func (m *mockCollectionService) Retrieve(ctx context.Context, query, name string, opts domain.RetrieveOptions) ([]string, error) {
	scored, err := m.RetrieveScored(ctx, query, name, opts)
	if err != nil {
		return nil, err
	}
	texts := make([]string, len(scored))
	for i, s := range scored {
		texts[i] = s.Text
	}
	return texts, nil
}

func (m *mockCollectionService) RetrieveScored(_ context.Context, _, name string, opts domain.RetrieveOptions) ([]domain.ScoredText, error) {
	m.lastName = name
	m.lastOpts = opts
	return m.results, m.err
}

func (m *mockCollectionService) DropCollection(_ context.Context, _ string) error {
	return m.err
}

func (m *mockCollectionService) ListCollections(_ context.Context) ([]driving.CollectionInfo, error) {
	return m.infos, m.err
}

type mockSettingsService struct {
	settings *domain.AppSettings
	err      error
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	return m.settings, m.err
}

func (m *mockSettingsService) Save(_ *domain.AppSettings) error { return nil }

func (m *mockSettingsService) Set(_, _ string) error { return nil }

func (m *mockSettingsService) Validate() error { return nil }

func (m *mockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}
