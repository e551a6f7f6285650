// Package ports defines the core interfaces for the application.
package ports

import "context"

// KVStore defines the interface for the persistent key/value store backing the classification cache.
// There are no transactions; concurrent writers race with last-write-wins semantics.
//
//go:generate mockgen -source=kv.go -destination=mocks/mock_kv.go -package=mocks
type KVStore interface {
	// Get returns the values stored under keys. Missing keys are absent from the result.
	Get(ctx context.Context, keys []string) (map[string][]byte, error)

	// Set stores every entry of values in a single call.
	Set(ctx context.Context, values map[string][]byte) error

	// Remove deletes keys. Removing a missing key is not an error.
	Remove(ctx context.Context, keys []string) error

	// Keys lists every stored key starting with prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Close releases the store's resources.
	Close() error
}
