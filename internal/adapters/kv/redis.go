package kv

import (
	"context"
	"slices"
	"strings"

	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/domain"
	"github.com/redis/go-redis/v9"
	"go.trai.ch/zerr"
)

// redisHashKey is the hash holding every key of the store.
const redisHashKey = "notionstatus:kv"

// RedisStore keeps keys as fields of a single redis hash.
type RedisStore struct {
	client *redis.Client
	hash   string
}

// OpenRedis connects to addr and verifies the connection.
func OpenRedis(ctx context.Context, addr string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreCreateFailed.Error()), "addr", addr)
	}
	return NewRedisStore(client, redisHashKey), nil
}

// NewRedisStore wraps an existing client. hash names the redis hash used for storage.
func NewRedisStore(client *redis.Client, hash string) *RedisStore {
	return &RedisStore{client: client, hash: hash}
}

// Get fetches keys with HMGET.
func (s *RedisStore) Get(ctx context.Context, keys []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	values, err := s.client.HMGet(ctx, s.hash, keys...).Result()
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrStoreReadFailed.Error())
	}
	for i, v := range values {
		if str, ok := v.(string); ok {
			out[keys[i]] = []byte(str)
		}
	}
	return out, nil
}

// Set writes values with a single HSET.
func (s *RedisStore) Set(ctx context.Context, values map[string][]byte) error {
	if len(values) == 0 {
		return nil
	}
	fields := make(map[string]any, len(values))
	for k, v := range values {
		fields[k] = v
	}
	if err := s.client.HSet(ctx, s.hash, fields).Err(); err != nil {
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}
	return nil
}

// Remove deletes keys with HDEL.
func (s *RedisStore) Remove(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.HDel(ctx, s.hash, keys...).Err(); err != nil {
		return zerr.Wrap(err, domain.ErrStoreDeleteFailed.Error())
	}
	return nil
}

// Keys lists the hash fields and returns the sorted ones starting with prefix.
func (s *RedisStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	all, err := s.client.HKeys(ctx, s.hash).Result()
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrStoreReadFailed.Error())
	}
	keys := slices.DeleteFunc(all, func(k string) bool { return !strings.HasPrefix(k, prefix) })
	slices.Sort(keys)
	return keys, nil
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
