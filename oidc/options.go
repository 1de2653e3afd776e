// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"net/http"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/hashicorp/go-hclog"
	"github.com/jonboulle/clockwork"

	"github.com/bankid-cz/bankid-go/cache"
)

// Option defines a common functional options type
type Option func(interface{})

// ApplyOpts takes a pointer to the options struct as a set of default options
// and applies the slice of opts as overrides.
func ApplyOpts(opts interface{}, opt ...Option) {
	for _, o := range opt {
		if o == nil {
			continue
		}
		o(opts)
	}
}

// dependencyOptions are the runtime collaborators shared by the provider and
// its discovery, assertion and client components.
type dependencyOptions struct {
	withHTTPClient *http.Client
	withCache      cache.Store
	withClock      clockwork.Clock
	withGenerator  RandomStringGenerator
	withLogger     hclog.Logger
}

func dependencyDefaults() dependencyOptions {
	return dependencyOptions{
		withCache:     cache.NewNoopStore(),
		withClock:     clockwork.NewRealClock(),
		withGenerator: DefaultRandomStringGenerator(),
		withLogger:    hclog.NewNullLogger(),
	}
}

func getDependencyOpts(opt ...Option) dependencyOptions {
	opts := dependencyDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithHTTPClient provides the client for every request to the provider.
// Timeouts and cancellation belong to this client and the request context.
func WithHTTPClient(c *http.Client) Option {
	return func(o interface{}) {
		if v, ok := o.(*dependencyOptions); ok && c != nil {
			v.withHTTPClient = c
		}
	}
}

// WithCache provides the external store for discovery documents and keys.
func WithCache(s cache.Store) Option {
	return func(o interface{}) {
		if v, ok := o.(*dependencyOptions); ok && s != nil {
			v.withCache = s
		}
	}
}

// WithLogger provides an optional logger
func WithLogger(l hclog.Logger) Option {
	return func(o interface{}) {
		if v, ok := o.(*dependencyOptions); ok && l != nil {
			v.withLogger = l
		}
	}
}

// WithClock provides an optional TimeProvider for: Provider, TokenPair expiry
// checks.
func WithClock(c clockwork.Clock) Option {
	return func(o interface{}) {
		if c == nil {
			return
		}
		switch v := o.(type) {
		case *dependencyOptions:
			v.withClock = c
		case *tokenOptions:
			v.withClock = c
		}
	}
}

// WithRandomStringGenerator provides the generator for state, session state
// and assertion ids.
func WithRandomStringGenerator(g RandomStringGenerator) Option {
	return func(o interface{}) {
		if g == nil {
			return
		}
		switch v := o.(type) {
		case *dependencyOptions:
			v.withGenerator = g
		case *builderOptions:
			v.withGenerator = g
		}
	}
}

// WithState provides a state, or session state for the logout builder,
// instead of generating one.
func WithState(s string) Option {
	return func(o interface{}) {
		if v, ok := o.(*builderOptions); ok {
			v.withState = s
		}
	}
}

// WithEndpoint overrides the endpoint a builder points at, e.g. the
// discovered authorization or end session endpoint.
func WithEndpoint(u string) Option {
	return func(o interface{}) {
		if v, ok := o.(*builderOptions); ok {
			v.withEndpoint = u
		}
	}
}

// WithExpirySkew provides an optional expiry skew duration for: TokenPair
func WithExpirySkew(d time.Duration) Option {
	return func(o interface{}) {
		if v, ok := o.(*tokenOptions); ok {
			v.withExpirySkew = d
		}
	}
}

// WithAuthStrategy sets how the client authenticates at the token endpoint.
func WithAuthStrategy(s AuthStrategy) Option {
	return func(o interface{}) {
		if v, ok := o.(*settingsOptions); ok {
			v.withAuthStrategy = s
		}
	}
}

// WithSigningKey provides the relying party's own private JWK, required by
// SignedWithOwnKey.
func WithSigningKey(k *jose.JSONWebKey) Option {
	return func(o interface{}) {
		if v, ok := o.(*settingsOptions); ok {
			v.withSigningKey = k
		}
	}
}

// WithProviderCA provides an optional CA cert for requests to the provider.
func WithProviderCA(cert string) Option {
	return func(o interface{}) {
		if v, ok := o.(*settingsOptions); ok {
			v.withProviderCA = cert
		}
	}
}
