// Package config loads, validates and persists the notionstatus configuration.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/domain"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/ports"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var _ ports.ConfigStore = (*FileStore)(nil)

// envBindings maps config keys to the environment variables that override them.
var envBindings = map[string]string{
	"integrationToken":       "INTEGRATION_TOKEN",
	"accessToken":            "ACCESS_TOKEN",
	"databaseId":             "DATABASE_ID",
	"propertyName":           "PROPERTY_NAME",
	"lastEditedPropertyName": "LAST_EDITED_PROPERTY_NAME",
	"logLevel":               "LOG_LEVEL",
	"store.backend":          "STORE_BACKEND",
	"store.path":             "STORE_PATH",
	"store.addr":             "STORE_ADDR",
	"store.dsn":              "STORE_DSN",
	"server.listen":          "LISTEN",
	"notion.baseUrl":         "NOTION_BASE_URL",
}

// FileStore implements ports.ConfigStore on a YAML file.
// Reads apply NOTIONSTATUS_* environment overrides; writes only persist what the file holds.
type FileStore struct {
	mu       sync.Mutex
	path     string
	validate *validator.Validate
}

// NewFileStore creates a FileStore for the file at path. The file does not need to exist.
func NewFileStore(path string) *FileStore {
	return &FileStore{
		path:     path,
		validate: newValidator(),
	}
}

// Path returns the location of the configuration file.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the file, applies environment overrides and validates the result.
// A missing file yields the defaults.
func (s *FileStore) Load() (*domain.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.read(true)
	if err != nil {
		return nil, err
	}
	if err := Validate(s.validate, cfg); err != nil {
		return nil, zerr.With(err, "path", s.path)
	}
	return cfg, nil
}

// Save validates cfg and writes it to the file.
func (s *FileStore) Save(cfg *domain.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.write(cfg.Clone())
}

// Update applies fn to the file contents and writes them back.
// Environment overrides are not persisted.
func (s *FileStore) Update(fn func(cfg *domain.Config)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.read(false)
	if err != nil {
		return err
	}
	fn(cfg)
	return s.write(cfg)
}

func (s *FileStore) read(withEnv bool) (*domain.Config, error) {
	v := viper.New()
	v.SetConfigFile(s.path)
	v.SetConfigType("yaml")

	if withEnv {
		for key, env := range envBindings {
			_ = v.BindEnv(key, domain.EnvPrefix+"_"+env)
		}
	}

	if _, err := os.Stat(s.path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigParseFailed.Error()), "path", s.path)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", s.path)
	}

	cfg := domain.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigParseFailed.Error()), "path", s.path)
	}
	cfg.LogLevel = domain.LogLevel(strings.ToUpper(string(cfg.LogLevel)))
	return cfg, nil
}

func (s *FileStore) write(cfg *domain.Config) error {
	if err := Validate(s.validate, cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return zerr.Wrap(err, domain.ErrConfigWriteFailed.Error())
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrConfigWriteFailed.Error()), "dir", dir)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return zerr.Wrap(err, domain.ErrConfigWriteFailed.Error())
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return zerr.Wrap(err, domain.ErrConfigWriteFailed.Error())
	}
	if err := tmp.Close(); err != nil {
		return zerr.Wrap(err, domain.ErrConfigWriteFailed.Error())
	}
	// The file holds the integration token.
	if err := os.Chmod(tmp.Name(), domain.PrivateFilePerm); err != nil {
		return zerr.Wrap(err, domain.ErrConfigWriteFailed.Error())
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrConfigWriteFailed.Error()), "path", s.path)
	}
	return nil
}
