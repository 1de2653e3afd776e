// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/singleflight"

	"github.com/bankid-cz/bankid-go/cache"
)

// DocumentTTL is how long discovery documents and key sets live in the
// external cache.
const DocumentTTL = 3600 * time.Second

// maxDocumentSize bounds discovery and JWKS response bodies.
const maxDocumentSize = 1 << 20

// document loads a provider JSON document once per instance: first from the
// external cache, then from the network. Once loaded the in-memory copy is
// authoritative for the instance's lifetime. Concurrent first loads are
// collapsed into one.
type document[T any] struct {
	url      string
	cacheKey string
	parse    func([]byte) (T, error)

	client *http.Client
	store  cache.Store
	logger hclog.Logger

	group  singleflight.Group
	mu     sync.RWMutex
	loaded bool
	value  T
}

func newDocument[T any](url, cacheKey string, parse func([]byte) (T, error), opts dependencyOptions) *document[T] {
	client := opts.withHTTPClient
	if client == nil {
		client = cleanhttp.DefaultPooledClient()
	}
	return &document[T]{
		url:      url,
		cacheKey: cacheKey,
		parse:    parse,
		client:   client,
		store:    opts.withCache,
		logger:   opts.withLogger,
	}
}

func (d *document[T]) get(ctx context.Context) (T, error) {
	d.mu.RLock()
	if d.loaded {
		defer d.mu.RUnlock()
		return d.value, nil
	}
	d.mu.RUnlock()

	v, err, _ := d.group.Do(d.cacheKey, func() (any, error) {
		d.mu.RLock()
		if d.loaded {
			defer d.mu.RUnlock()
			return d.value, nil
		}
		d.mu.RUnlock()

		value, err := d.load(ctx)
		if err != nil {
			return nil, err
		}
		d.mu.Lock()
		d.value, d.loaded = value, true
		d.mu.Unlock()
		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

func (d *document[T]) load(ctx context.Context) (T, error) {
	const op = "document.load"
	var zero T

	cached, ok, err := d.store.Get(ctx, d.cacheKey)
	if err != nil {
		return zero, fmt.Errorf("%s: cache get %q: %w", op, d.cacheKey, err)
	}
	if ok {
		value, err := d.parse(cached)
		if err == nil {
			d.logger.Debug("cache hit", "key", d.cacheKey)
			return value, nil
		}
		d.logger.Warn("ignoring unparsable cache entry", "key", d.cacheKey, "error", err)
	}

	d.logger.Debug("cache miss, fetching", "key", d.cacheKey, "url", d.url)
	body, err := d.fetch(ctx)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", op, err)
	}
	value, err := d.parse(body)
	if err != nil {
		return zero, fmt.Errorf("%s: %s: %w", op, d.url, err)
	}
	if err := d.store.Set(ctx, d.cacheKey, body, DocumentTTL); err != nil {
		return zero, fmt.Errorf("%s: cache set %q: %w", op, d.cacheKey, err)
	}
	return value, nil
}

func (d *document[T]) fetch(ctx context.Context) ([]byte, error) {
	const op = "document.fetch"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, fmt.Errorf("%s: reading body: %w", op, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: %s: %w", op, d.url, newNetworkError(resp.StatusCode, body))
	}
	return body, nil
}
