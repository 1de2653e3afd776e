// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bankid-cz/bankid-go/cache"
)

// countingStore wraps a store and counts calls.
type countingStore struct {
	cache.Store

	mu     sync.Mutex
	gets   int
	sets   int
	getErr error
	setErr error
}

func newCountingStore() *countingStore {
	return &countingStore{Store: cache.NewMemoryStore()}
}

func (s *countingStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	s.gets++
	err := s.getErr
	s.mu.Unlock()
	if err != nil {
		return nil, false, err
	}
	return s.Store.Get(ctx, key)
}

func (s *countingStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	s.sets++
	err := s.setErr
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.Store.Set(ctx, key, value, ttl)
}

func (s *countingStore) counts() (gets, sets int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets, s.sets
}

var errStoreDown = errors.New("store down")
