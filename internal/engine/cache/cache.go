// Package cache implements the tri-state classification cache on top of a key/value store.
//
// GREEN entries expire after the configured cache duration. RED and ORANGE entries
// never expire; they are replaced by a later write or removed explicitly.
package cache

import (
	"context"
	"encoding/json"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/domain"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/ports"
	"go.trai.ch/zerr"
)

// Cache operations reported to metrics.
const (
	OpGet     = "get"
	OpBulkGet = "bulk_get"
)

// Cache is the classification cache. It is safe for concurrent use as long as the
// underlying store is; concurrent writers race with last-write-wins semantics.
type Cache struct {
	store   ports.KVStore
	config  ports.ConfigStore
	metrics ports.Metrics
	now     func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces the wall clock used to stamp and expire entries.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// WithMetrics reports cache hits and misses.
func WithMetrics(m ports.Metrics) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}

// New creates a Cache storing entries in store. The GREEN lifetime is read from config on every call.
func New(store ports.KVStore, config ports.ConfigStore, opts ...Option) *Cache {
	c := &Cache{
		store:  store,
		config: config,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the live entry for url, or nil when there is none or it expired.
func (c *Cache) Get(ctx context.Context, url string) (*domain.CacheEntry, error) {
	entries, err := c.lookup(ctx, []string{url})
	if err != nil {
		return nil, err
	}
	entry := entries[url]
	c.observe(OpGet, entry != nil)
	return entry, nil
}

// BulkGet returns the live entries for urls in a single store round-trip. Misses are absent from the map.
func (c *Cache) BulkGet(ctx context.Context, urls []string) (map[string]*domain.CacheEntry, error) {
	entries, err := c.lookup(ctx, urls)
	if err != nil {
		return nil, err
	}
	for _, u := range urls {
		c.observe(OpBulkGet, entries[u] != nil)
	}
	return entries, nil
}

// Put overwrites the entry for url, stamping it with the current time.
func (c *Cache) Put(ctx context.Context, url string, status domain.State, details domain.EntryDetails) error {
	return c.PutMany(ctx, map[string]domain.EntryDetails{url: details}, status)
}

// PutMany writes one entry per key of entries, all with the same status, in a single store call.
func (c *Cache) PutMany(ctx context.Context, entries map[string]domain.EntryDetails, status domain.State) error {
	if len(entries) == 0 {
		return nil
	}

	now := c.now()
	values := make(map[string][]byte, len(entries))
	for url, details := range entries {
		data, err := encode(domain.NewCacheEntry(url, status, details, now))
		if err != nil {
			return err
		}
		values[domain.CacheKey(url)] = data
	}

	if err := c.store.Set(ctx, values); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "entries", len(values))
	}
	return nil
}

// PutRedIfChanged marks every url RED, skipping those already stored as RED.
// It returns the number of entries written.
func (c *Cache) PutRedIfChanged(ctx context.Context, urls []string) (int, error) {
	existing, err := c.raw(ctx, urls)
	if err != nil {
		return 0, err
	}

	pending := make(map[string]domain.EntryDetails, len(urls))
	for _, u := range urls {
		if entry, ok := existing[u]; ok && entry.Status == domain.StateRed {
			continue
		}
		pending[u] = domain.EntryDetails{}
	}

	if err := c.PutMany(ctx, pending, domain.StateRed); err != nil {
		return 0, err
	}
	return len(pending), nil
}

// Remove deletes the entry for url. It reports whether an entry existed.
func (c *Cache) Remove(ctx context.Context, url string) (bool, error) {
	key := domain.CacheKey(url)
	values, err := c.store.Get(ctx, []string{key})
	if err != nil {
		return false, zerr.Wrap(err, domain.ErrStoreReadFailed.Error())
	}
	if _, ok := values[key]; !ok {
		return false, nil
	}

	if err := c.store.Remove(ctx, []string{key}); err != nil {
		return false, zerr.With(zerr.Wrap(err, domain.ErrStoreDeleteFailed.Error()), "url", url)
	}
	return true, nil
}

// All returns every stored entry, expired ones included, ordered by URL.
func (c *Cache) All(ctx context.Context) ([]domain.CacheEntry, error) {
	keys, err := c.store.Keys(ctx, domain.CacheKeyPrefix)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrStoreReadFailed.Error())
	}

	urls := make([]string, 0, len(keys))
	for _, k := range keys {
		urls = append(urls, strings.TrimPrefix(k, domain.CacheKeyPrefix))
	}

	entries, err := c.raw(ctx, urls)
	if err != nil {
		return nil, err
	}

	out := make([]domain.CacheEntry, 0, len(entries))
	for _, u := range slices.Sorted(maps.Keys(entries)) {
		out = append(out, *entries[u])
	}
	return out, nil
}

// ScanGreen returns every unexpired GREEN entry.
func (c *Cache) ScanGreen(ctx context.Context) ([]domain.CacheEntry, error) {
	all, err := c.All(ctx)
	if err != nil {
		return nil, err
	}

	ttl := c.ttl()
	now := c.now()
	return slices.DeleteFunc(all, func(e domain.CacheEntry) bool {
		return e.Status != domain.StateGreen || e.Expired(now, ttl)
	}), nil
}

// Clear removes every cache entry and returns how many were removed.
func (c *Cache) Clear(ctx context.Context) (int, error) {
	keys, err := c.store.Keys(ctx, domain.CacheKeyPrefix)
	if err != nil {
		return 0, zerr.Wrap(err, domain.ErrStoreReadFailed.Error())
	}
	if len(keys) == 0 {
		return 0, nil
	}
	if err := c.store.Remove(ctx, keys); err != nil {
		return 0, zerr.Wrap(err, domain.ErrStoreDeleteFailed.Error())
	}
	return len(keys), nil
}

// LastSync returns the time of the last successful sync, or the zero time when none was recorded.
func (c *Cache) LastSync(ctx context.Context) (time.Time, error) {
	values, err := c.store.Get(ctx, []string{domain.LastSyncKey})
	if err != nil {
		return time.Time{}, zerr.Wrap(err, domain.ErrStoreReadFailed.Error())
	}
	data, ok := values[domain.LastSyncKey]
	if !ok {
		return time.Time{}, nil
	}

	var ms int64
	if err := json.Unmarshal(data, &ms); err != nil {
		return time.Time{}, zerr.Wrap(err, domain.ErrStoreUnmarshalFailed.Error())
	}
	if ms <= 0 {
		return time.Time{}, nil
	}
	return time.UnixMilli(ms), nil
}

// SetLastSync records t as the time of the last successful sync.
func (c *Cache) SetLastSync(ctx context.Context, t time.Time) error {
	data, err := json.Marshal(t.UnixMilli())
	if err != nil {
		return zerr.Wrap(err, domain.ErrStoreMarshalFailed.Error())
	}
	if err := c.store.Set(ctx, map[string][]byte{domain.LastSyncKey: data}); err != nil {
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}
	return nil
}

// Now returns the cache clock's current time.
func (c *Cache) Now() time.Time {
	return c.now()
}

// lookup returns the live entries for urls.
func (c *Cache) lookup(ctx context.Context, urls []string) (map[string]*domain.CacheEntry, error) {
	entries, err := c.raw(ctx, urls)
	if err != nil {
		return nil, err
	}

	ttl := c.ttl()
	now := c.now()
	for u, e := range entries {
		if !e.Status.Cacheable() || e.Expired(now, ttl) {
			delete(entries, u)
		}
	}
	return entries, nil
}

// raw returns the stored entries for urls without applying expiry.
func (c *Cache) raw(ctx context.Context, urls []string) (map[string]*domain.CacheEntry, error) {
	if len(urls) == 0 {
		return map[string]*domain.CacheEntry{}, nil
	}

	keys := make([]string, 0, len(urls))
	for _, u := range urls {
		keys = append(keys, domain.CacheKey(u))
	}

	values, err := c.store.Get(ctx, keys)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrStoreReadFailed.Error())
	}

	entries := make(map[string]*domain.CacheEntry, len(values))
	for key, data := range values {
		url := strings.TrimPrefix(key, domain.CacheKeyPrefix)
		entry, err := decode(data)
		if err != nil {
			return nil, zerr.With(err, "url", url)
		}
		entry.URL = url
		entries[url] = entry
	}
	return entries, nil
}

func (c *Cache) ttl() time.Duration {
	cfg, err := c.config.Load()
	if err != nil {
		return domain.DefaultConfig().CacheTTL()
	}
	return cfg.CacheTTL()
}

func (c *Cache) observe(op string, hit bool) {
	if c.metrics != nil {
		c.metrics.ObserveCache(op, hit)
	}
}

func encode(entry domain.CacheEntry) ([]byte, error) {
	data, err := json.Marshal(entry)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrStoreMarshalFailed.Error())
	}
	return data, nil
}

func decode(data []byte) (*domain.CacheEntry, error) {
	var entry domain.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, zerr.Wrap(err, domain.ErrStoreUnmarshalFailed.Error())
	}
	return &entry, nil
}
