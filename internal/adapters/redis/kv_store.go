// Package redis provides the Redis-backed key/value store that lets several console
// replicas share one login.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces console keys inside a shared Redis.
const DefaultPrefix = "adify:"

// KVStore stores values under a key prefix. Values never expire unless a TTL is configured.
type KVStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewKVStore creates a store using DefaultPrefix.
func NewKVStore(client redis.UniversalClient) *KVStore {
	return &KVStore{client: client, prefix: DefaultPrefix}
}

// NewKVStoreWithPrefix creates a store with a custom key prefix and optional TTL (0 = none).
func NewKVStoreWithPrefix(client redis.UniversalClient, prefix string, ttl time.Duration) *KVStore {
	return &KVStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *KVStore) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, nil
	}
	v, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return v, true, nil
}

func (s *KVStore) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}
	if err := s.client.Set(ctx, s.prefix+key, value, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *KVStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
