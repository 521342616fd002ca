package driving

import "github.com/custodia-labs/reqtrace/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// Set writes one configuration key after validating it.
	Set(key, value string) error

	// Keys lists the recognised configuration keys.
	Keys() []string

	// Lookup returns the display value of one key. Secrets are masked.
	Lookup(key string) (string, error)

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings
}
