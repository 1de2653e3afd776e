// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix is prepended to keys written by a RedisStore.
const DefaultKeyPrefix = "bankid:"

// RedisStore is a Store backed by Redis, suitable for sharing discovery data
// across replicas.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore creates a RedisStore for the given address, pinging it once.
// Supported options:
//   - WithKeyPrefix
func NewRedisStore(ctx context.Context, addr, password string, db int, opt ...Option) (*RedisStore, error) {
	const op = "cache.NewRedisStore"
	if addr == "" {
		return nil, fmt.Errorf("%s: missing address: %w", op, ErrInvalidParameter)
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%s: unable to reach redis: %w", op, err)
	}
	return NewRedisStoreWithClient(client, opt...), nil
}

// NewRedisStoreWithClient wraps an existing client.
// Supported options:
//   - WithKeyPrefix
func NewRedisStoreWithClient(client redis.UniversalClient, opt ...Option) *RedisStore {
	opts := getStoreOpts(opt...)
	prefix := DefaultKeyPrefix
	if opts.withKeyPrefix != "" {
		prefix = opts.withKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

// Get reads key. redis.Nil is reported as a miss.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	const op = "RedisStore.Get"
	if err := validate(op, key, 0); err != nil {
		return nil, false, err
	}
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	return data, true, nil
}

// Set writes key with the given ttl.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	const op = "RedisStore.Set"
	if err := validate(op, key, ttl); err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
