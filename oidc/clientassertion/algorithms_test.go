// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package clientassertion

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"github.com/go-jose/go-jose/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSigningKey(t *testing.T) {
	t.Parallel()
	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	p256, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	_, edKey, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	tests := []struct {
		name       string
		key        *jose.JSONWebKey
		wantMethod string
		wantIsErr  error
	}{
		{name: "rsa-ps512", key: &jose.JSONWebKey{Key: rsaKey, Algorithm: PS512}, wantMethod: PS512},
		{name: "rsa-rs256", key: &jose.JSONWebKey{Key: rsaKey, Algorithm: RS256}, wantMethod: RS256},
		{name: "ec-es256", key: &jose.JSONWebKey{Key: p256, Algorithm: ES256}, wantMethod: ES256},
		{name: "ed25519", key: &jose.JSONWebKey{Key: edKey, Algorithm: EdDSA}, wantMethod: EdDSA},
		{name: "nil", wantIsErr: ErrNilPrivateKey},
		{name: "nil-inner-key", key: &jose.JSONWebKey{Algorithm: RS256}, wantIsErr: ErrNilPrivateKey},
		{name: "public-key", key: &jose.JSONWebKey{Key: &rsaKey.PublicKey, Algorithm: RS256}, wantIsErr: ErrNotPrivateKey},
		{name: "rsa-with-ec-alg", key: &jose.JSONWebKey{Key: rsaKey, Algorithm: ES256}, wantIsErr: ErrUnsupportedAlgorithm},
		{name: "rsa-without-alg", key: &jose.JSONWebKey{Key: rsaKey}, wantIsErr: ErrUnsupportedAlgorithm},
		{name: "ec-wrong-curve", key: &jose.JSONWebKey{Key: p256, Algorithm: ES384}, wantIsErr: ErrUnsupportedAlgorithm},
		{name: "ed25519-wrong-alg", key: &jose.JSONWebKey{Key: edKey, Algorithm: RS256}, wantIsErr: ErrUnsupportedAlgorithm},
		{name: "symmetric", key: &jose.JSONWebKey{Key: []byte("secret"), Algorithm: "HS512"}, wantIsErr: ErrUnsupportedAlgorithm},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert, require := assert.New(t), require.New(t)
			method, key, err := ValidateSigningKey(tt.key)
			if tt.wantIsErr != nil {
				require.Error(err)
				assert.ErrorIs(err, tt.wantIsErr)
				return
			}
			require.NoError(err)
			assert.Equal(tt.wantMethod, method.Alg())
			assert.Equal(tt.key.Key, key)
		})
	}
}
