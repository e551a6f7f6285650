package config

import (
	"sync"

	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/domain"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/ports"
	"github.com/go-playground/validator/v10"
)

var _ ports.ConfigStore = (*Memory)(nil)

// Memory is a ConfigStore that keeps the configuration in process.
type Memory struct {
	mu       sync.Mutex
	cfg      *domain.Config
	validate *validator.Validate
}

// NewMemory creates a Memory store holding a copy of cfg. A nil cfg starts from the defaults.
func NewMemory(cfg *domain.Config) *Memory {
	if cfg == nil {
		cfg = domain.DefaultConfig()
	}
	return &Memory{
		cfg:      cfg.Clone(),
		validate: newValidator(),
	}
}

// Load returns a copy of the held configuration.
func (m *Memory) Load() (*domain.Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg.Clone(), nil
}

// Save validates and stores a copy of cfg.
func (m *Memory) Save(cfg *domain.Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store(cfg.Clone())
}

// Update applies fn to a copy of the held configuration and stores it.
func (m *Memory) Update(fn func(cfg *domain.Config)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg := m.cfg.Clone()
	fn(cfg)
	return m.store(cfg)
}

// Path returns an empty string.
func (m *Memory) Path() string {
	return ""
}

func (m *Memory) store(cfg *domain.Config) error {
	if err := Validate(m.validate, cfg); err != nil {
		return err
	}
	m.cfg = cfg
	return nil
}
