// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package callback

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/bankid-cz/bankid-go/oidc"
)

// DefaultRequestTTL is how long a login request waits for its callback.
const DefaultRequestTTL = 10 * time.Minute

// Request is a pending login: the state sent to the provider and the PKCE
// verifier, if any, needed to exchange the code it returns.
type Request struct {
	State        string
	CodeVerifier *oidc.CodeVerifier
	ExpiresAt    time.Time
}

// NewRequest creates a Request for an authorization URI builder.
func NewRequest(b oidc.AuthorizationURIBuilder, v *oidc.CodeVerifier, expiresAt time.Time) *Request {
	return &Request{State: b.State(), CodeVerifier: v, ExpiresAt: expiresAt}
}

// IsExpired reports whether the request expired at now. A zero ExpiresAt
// never expires.
func (r *Request) IsExpired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && now.After(r.ExpiresAt)
}

// RequestReader defines an interface for finding and reading a Request.
//
// Implementations must be concurrently safe, since the reader will likely be
// used within a concurrent http.Handler
type RequestReader interface {
	// Read an existing Request entry. The returned request's State must
	// match the state used to look it up.
	Read(ctx context.Context, state string) (*Request, error)
}

// SingleRequestReader implements the RequestReader interface for a single
// request. It is concurrently safe.
type SingleRequestReader struct {
	Request *Request
}

// Read returns its request if the state matches, otherwise ErrNotFound.
func (sr *SingleRequestReader) Read(_ context.Context, state string) (*Request, error) {
	const op = "SingleRequestReader.Read"
	if sr.Request == nil || sr.Request.State != state {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return sr.Request, nil
}

// RequestCache is an in-memory RequestReader. Read removes the request, so
// every state can complete a single login.
type RequestCache struct {
	mu    sync.Mutex
	c     map[string]*Request
	clock clockwork.Clock
}

// NewRequestCache creates an empty cache. A nil clock uses the real clock.
func NewRequestCache(clock clockwork.Clock) *RequestCache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &RequestCache{c: map[string]*Request{}, clock: clock}
}

// Add stores r under its state, dropping expired entries.
func (rc *RequestCache) Add(r *Request) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	now := rc.clock.Now()
	for k, v := range rc.c {
		if v.IsExpired(now) {
			delete(rc.c, k)
		}
	}
	rc.c[r.State] = r
}

// Read implements RequestReader.
func (rc *RequestCache) Read(_ context.Context, state string) (*Request, error) {
	const op = "RequestCache.Read"
	rc.mu.Lock()
	defer rc.mu.Unlock()
	r, ok := rc.c[state]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	delete(rc.c, state)
	if r.IsExpired(rc.clock.Now()) {
		return nil, fmt.Errorf("%s: %w", op, ErrExpiredRequest)
	}
	return r, nil
}

// Len returns the number of pending requests.
func (rc *RequestCache) Len() int {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return len(rc.c)
}
