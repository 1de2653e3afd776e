// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package cache provides the external store used to share provider discovery
// documents and key sets between processes.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidParameter is returned for empty keys and negative ttls.
var ErrInvalidParameter = errors.New("invalid parameter")

// Store is a key/value store with per entry expiration. Implementations must be
// safe for concurrent use.
type Store interface {
	// Get returns the value for key. The bool reports whether the key was
	// present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value for key. A zero ttl means the entry does not expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// NoopStore never stores anything; every Get is a miss.
type NoopStore struct{}

// NewNoopStore returns a Store that never holds entries.
func NewNoopStore() NoopStore { return NoopStore{} }

// Get always misses.
func (NoopStore) Get(_ context.Context, _ string) ([]byte, bool, error) { return nil, false, nil }

// Set discards the value.
func (NoopStore) Set(_ context.Context, _ string, _ []byte, _ time.Duration) error { return nil }

func validate(op, key string, ttl time.Duration) error {
	if key == "" {
		return fmt.Errorf("%s: missing key: %w", op, ErrInvalidParameter)
	}
	if ttl < 0 {
		return fmt.Errorf("%s: negative ttl: %w", op, ErrInvalidParameter)
	}
	return nil
}

var (
	_ Store = NoopStore{}
	_ Store = (*MemoryStore)(nil)
	_ Store = (*RedisStore)(nil)
)
