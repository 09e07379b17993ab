package driving

import "github.com/weave-lab/weave-chatbot-reference/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings, with defaults and
	// environment fallbacks applied.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// Set validates and stores a single dot-notation key.
	Set(key, value string) error

	// Validate checks the current settings for configuration errors.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings
}
