package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces the keys written by [RedisStore].
const DefaultRedisPrefix = "logchan:"

// RedisStore is a [Store] that keeps each entry in a Redis string key, so
// several hosts can share one set of channel settings.
//
// Create instances with [NewRedisStore].
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// RedisOption configures a [RedisStore].
type RedisOption func(*RedisStore)

// WithRedisPrefix sets the key prefix. The default is [DefaultRedisPrefix].
func WithRedisPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// NewRedisStore creates a [RedisStore] using client.
func NewRedisStore(client redis.UniversalClient, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client: client,
		prefix: DefaultRedisPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Key returns the Redis key that holds the entry for key.
func (s *RedisStore) Key(key string) string {
	return s.prefix + key
}

// Get returns the value stored under key.
func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, s.Key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}

	if err != nil {
		return "", fmt.Errorf("%w: redis get %s: %w", ErrStore, s.Key(key), err)
	}

	return v, nil
}

// Set stores value under key. An empty value deletes the key.
func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	var err error
	if value == "" {
		err = s.client.Del(ctx, s.Key(key)).Err()
	} else {
		err = s.client.Set(ctx, s.Key(key), value, 0).Err()
	}

	if err != nil {
		return fmt.Errorf("%w: redis set %s: %w", ErrStore, s.Key(key), err)
	}

	return nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
