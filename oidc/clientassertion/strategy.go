// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package clientassertion

import "fmt"

// AuthStrategy selects how the relying party authenticates at the token
// endpoint.
type AuthStrategy int

const (
	// PlainSecret sends client_id and client_secret.
	PlainSecret AuthStrategy = iota
	// SignedWithProviderSecret sends an assertion HMAC signed with the client
	// secret issued by the provider.
	SignedWithProviderSecret
	// SignedWithOwnKey sends an assertion signed with the relying party's
	// own private JWK.
	SignedWithOwnKey
)

var strategyNames = map[AuthStrategy]string{
	PlainSecret:              "plain_secret",
	SignedWithProviderSecret: "signed_with_provider_secret",
	SignedWithOwnKey:         "signed_with_own_key",
}

// String returns the configuration name of the strategy.
func (s AuthStrategy) String() string {
	if n, ok := strategyNames[s]; ok {
		return n
	}
	return fmt.Sprintf("AuthStrategy(%d)", int(s))
}

// Signed reports whether the strategy needs a client assertion.
func (s AuthStrategy) Signed() bool {
	return s == SignedWithProviderSecret || s == SignedWithOwnKey
}

// ParseAuthStrategy parses a configuration name as returned by String.
func ParseAuthStrategy(name string) (AuthStrategy, error) {
	const op = "clientassertion.ParseAuthStrategy"
	for s, n := range strategyNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%s: %q: %w", op, name, ErrUnknownStrategy)
}
