// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore is an in-process Store. Expired entries are dropped lazily on
// Get.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]entry
	clock   clockwork.Clock
}

// NewMemoryStore creates an empty MemoryStore.
// Supported options:
//   - WithClock
func NewMemoryStore(opt ...Option) *MemoryStore {
	opts := getStoreOpts(opt...)
	return &MemoryStore{
		entries: make(map[string]entry),
		clock:   opts.withClock,
	}
}

// Get returns a copy of the stored value.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	const op = "MemoryStore.Get"
	if err := validate(op, key, 0); err != nil {
		return nil, false, err
	}
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && !s.clock.Now().Before(e.expiresAt) {
		s.mu.Lock()
		if cur, ok := s.entries[key]; ok && cur.expiresAt.Equal(e.expiresAt) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return nil, false, nil
	}
	return append([]byte(nil), e.value...), true, nil
}

// Set stores a copy of value.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	const op = "MemoryStore.Set"
	if err := validate(op, key, ttl); err != nil {
		return err
	}
	e := entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = s.clock.Now().Add(ttl)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = e
	return nil
}

// Len returns the number of held entries, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
