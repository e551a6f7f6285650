package kv

import (
	"context"

	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/domain"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/ports"
	"go.trai.ch/zerr"
)

// Open creates the store selected by cfg. Empty paths fall back to the state directory layout.
func Open(ctx context.Context, cfg domain.StoreConfig) (ports.KVStore, error) {
	switch cfg.Backend {
	case domain.BackendMemory:
		return NewMemoryStore(), nil
	case domain.BackendFile, "":
		path := cfg.Path
		if path == "" {
			path = domain.DefaultStorePath()
		}
		return NewFileStore(path)
	case domain.BackendSQLite:
		path := cfg.Path
		if path == "" {
			path = domain.DefaultSQLitePath()
		}
		return OpenSQLite(path)
	case domain.BackendRedis:
		return OpenRedis(ctx, cfg.Addr)
	case domain.BackendPostgres:
		return OpenPostgres(ctx, cfg.DSN)
	default:
		return nil, zerr.With(zerr.Wrap(domain.ErrUnknownStoreBackend, "open store"), "backend", cfg.Backend)
	}
}
