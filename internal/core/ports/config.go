package ports

import "github.com/TechupBusiness/browser-extension-notion-status/internal/core/domain"

// ConfigStore defines the interface for reading and persisting the user configuration.
//
//go:generate mockgen -source=config.go -destination=mocks/mock_config.go -package=mocks
type ConfigStore interface {
	// Load returns the current configuration. Callers receive their own copy.
	Load() (*domain.Config, error)

	// Save validates and persists cfg.
	Save(cfg *domain.Config) error

	// Update loads the configuration, applies fn and saves the result.
	Update(fn func(cfg *domain.Config)) error

	// Path returns the location of the configuration file.
	Path() string
}
