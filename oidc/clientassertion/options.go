// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package clientassertion

import (
	"fmt"

	"github.com/go-jose/go-jose/v4"
	"github.com/jonboulle/clockwork"
)

// Option configures the Factory
type Option func(*Factory) error

// WithSigningKey sets the private JWK used by SignedWithOwnKey. The key's
// "alg" selects the signing algorithm and its "kid" is sent as a header.
func WithSigningKey(key *jose.JSONWebKey) Option {
	return func(f *Factory) error {
		const op = "WithSigningKey"
		if _, _, err := ValidateSigningKey(key); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		f.key = key
		return nil
	}
}

// WithIDGenerator overrides the jti generator.
func WithIDGenerator(gen func() (string, error)) Option {
	return func(f *Factory) error {
		f.genID = gen
		return nil
	}
}

// WithClock overrides the clock used for iat and exp.
func WithClock(c clockwork.Clock) Option {
	return func(f *Factory) error {
		f.clock = c
		return nil
	}
}
