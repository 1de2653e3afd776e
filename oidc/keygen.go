// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"fmt"

	"github.com/go-jose/go-jose/v4"

	"github.com/bankid-cz/bankid-go/oidc/clientassertion"
)

// Defaults for GenerateSigningKey.
const (
	DefaultKeySize = 4096
	DefaultKeyAlg  = "PS512"
	minKeySize     = 2048
)

// GenerateSigningKey creates a private RSA JWK for the SignedWithOwnKey
// strategy. Zero bits and an empty alg select DefaultKeySize and
// DefaultKeyAlg. An empty kid is replaced by the key's SHA-256 thumbprint.
func GenerateSigningKey(bits int, alg string, kid string) (*jose.JSONWebKey, error) {
	const op = "oidc.GenerateSigningKey"
	if bits == 0 {
		bits = DefaultKeySize
	}
	if alg == "" {
		alg = DefaultKeyAlg
	}
	if bits < minKeySize {
		return nil, fmt.Errorf("%s: key size %d is below %d: %w", op, bits, minKeySize, ErrInvalidParameter)
	}
	priv, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	k := &jose.JSONWebKey{Key: priv, Algorithm: alg, Use: "sig"}
	if _, _, err := clientassertion.ValidateSigningKey(k); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrUnsupportedKey, err)
	}
	if kid == "" {
		pub := k.Public()
		tp, err := pub.Thumbprint(crypto.SHA256)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		kid = base64.RawURLEncoding.EncodeToString(tp)
	}
	k.KeyID = kid
	return k, nil
}

// PublicJWKS returns the key set to publish for the provider, holding the
// public half of every key.
func PublicJWKS(keys ...*jose.JSONWebKey) (*jose.JSONWebKeySet, error) {
	const op = "oidc.PublicJWKS"
	set := &jose.JSONWebKeySet{}
	for i, k := range keys {
		if k == nil {
			return nil, fmt.Errorf("%s: key %d is nil: %w", op, i, ErrNilParameter)
		}
		pub := k.Public()
		if !pub.Valid() {
			return nil, fmt.Errorf("%s: key %q has no public half: %w", op, k.KeyID, ErrUnsupportedKey)
		}
		set.Keys = append(set.Keys, pub)
	}
	return set, nil
}
