// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package jwt

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"sync/atomic"
	"testing"

	"github.com/go-jose/go-jose/v4"
	"github.com/stretchr/testify/require"
)

const testIssuer = "https://oidc.sandbox.bankid.cz/"

type testKeySource struct {
	keys  []map[string]any
	err   error
	calls atomic.Int32
}

func (s *testKeySource) Keys(context.Context) ([]map[string]any, error) {
	s.calls.Add(1)
	return s.keys, s.err
}

type testIssuerSource string

func (s testIssuerSource) Issuer(context.Context) (string, error) { return string(s), nil }

// testKey generates a private signing JWK and its public JWKS record.
func testKey(t *testing.T, alg Alg, kid string) (jose.JSONWebKey, map[string]any) {
	t.Helper()
	require := require.New(t)
	var key any
	switch alg {
	case ES256:
		k, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		require.NoError(err)
		key = k
	default:
		k, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(err)
		key = k
	}
	priv := jose.JSONWebKey{Key: key, KeyID: kid, Algorithm: string(alg), Use: "sig"}
	b, err := priv.Public().MarshalJSON()
	require.NoError(err)
	rec := map[string]any{}
	require.NoError(json.Unmarshal(b, &rec))
	return priv, rec
}

func testSign(t *testing.T, priv jose.JSONWebKey, claims map[string]any) string {
	t.Helper()
	require := require.New(t)
	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.SignatureAlgorithm(priv.Algorithm), Key: priv},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	require.NoError(err)
	payload, err := json.Marshal(claims)
	require.NoError(err)
	jws, err := signer.Sign(payload)
	require.NoError(err)
	raw, err := jws.CompactSerialize()
	require.NoError(err)
	return raw
}
