// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package jwt

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/go-jose/go-jose/v4"
)

// KeySource supplies raw JWK records, e.g. a cached provider JWKS.
type KeySource interface {
	Keys(ctx context.Context) ([]map[string]any, error)
}

// Header is the subset of the JOSE header used for key selection.
type Header struct {
	Algorithm Alg    `json:"alg"`
	KeyID     string `json:"kid,omitempty"`
	Type      string `json:"typ,omitempty"`
}

// JSONWebKeySet verifies JWT signatures using keys obtained from a KeySource.
type JSONWebKeySet struct {
	source KeySource
}

// ensure JSONWebKeySet can back a go-oidc verifier
var _ oidc.KeySet = (*JSONWebKeySet)(nil)

// NewJSONWebKeySet returns a key set reading its keys from source on every
// verification. Caching is the responsibility of the source.
func NewJSONWebKeySet(source KeySource) (*JSONWebKeySet, error) {
	const op = "jwt.NewJSONWebKeySet"
	if source == nil {
		return nil, fmt.Errorf("%s: missing key source: %w", op, ErrNilParameter)
	}
	return &JSONWebKeySet{source: source}, nil
}

// KeySet converts the raw records into a jose key set. Records go-jose cannot
// parse (unknown kty, malformed values) are skipped.
func (ks *JSONWebKeySet) KeySet(ctx context.Context) (*jose.JSONWebKeySet, error) {
	const op = "JSONWebKeySet.KeySet"
	raw, err := ks.source.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to load keys: %w", op, err)
	}
	set := &jose.JSONWebKeySet{Keys: make([]jose.JSONWebKey, 0, len(raw))}
	for _, r := range raw {
		b, err := json.Marshal(r)
		if err != nil {
			continue
		}
		var k jose.JSONWebKey
		if err := k.UnmarshalJSON(b); err != nil {
			continue
		}
		set.Keys = append(set.Keys, k)
	}
	return set, nil
}

// VerifySignature parses the given JWT, verifies its signature and returns
// the payload. Any supported algorithm is accepted; use a Validator to
// restrict algorithms.
func (ks *JSONWebKeySet) VerifySignature(ctx context.Context, token string) ([]byte, error) {
	payload, _, err := ks.verify(ctx, token, nil)
	return payload, err
}

// verify checks the token against allowed (nil allows every supported alg)
// and then against the keys matching its kid.
func (ks *JSONWebKeySet) verify(ctx context.Context, token string, allowed []Alg) ([]byte, Header, error) {
	const op = "JSONWebKeySet.verify"
	hdr, err := parseHeader(token)
	if err != nil {
		return nil, Header{}, fmt.Errorf("%s: %w", op, err)
	}
	if !hdr.Algorithm.Supported() || (allowed != nil && !containsAlg(allowed, hdr.Algorithm)) {
		return nil, hdr, fmt.Errorf("%s: %q: %w", op, hdr.Algorithm, ErrUnsupportedAlgorithm)
	}
	jws, err := jose.ParseSignedCompact(token, []jose.SignatureAlgorithm{jose.SignatureAlgorithm(hdr.Algorithm)})
	if err != nil {
		return nil, hdr, fmt.Errorf("%s: %w: %w", op, ErrMalformedToken, err)
	}

	set, err := ks.KeySet(ctx)
	if err != nil {
		return nil, hdr, fmt.Errorf("%s: %w", op, err)
	}
	candidates := set.Keys
	if hdr.KeyID != "" {
		candidates = set.Key(hdr.KeyID)
	}
	tried := 0
	for i := range candidates {
		k := candidates[i]
		if k.Use == "enc" {
			continue
		}
		tried++
		if payload, err := jws.Verify(&k); err == nil {
			return payload, hdr, nil
		}
	}
	if tried == 0 {
		return nil, hdr, fmt.Errorf("%s: kid %q: %w: %w", op, hdr.KeyID, ErrInvalidSignature, ErrKeyNotFound)
	}
	return nil, hdr, fmt.Errorf("%s: %w", op, ErrInvalidSignature)
}

// parseHeader decodes the protected header of a compact JWS without
// verifying it, so the algorithm can be checked before parsing.
func parseHeader(token string) (Header, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return Header{}, fmt.Errorf("expected 3 segments, got %d: %w", len(parts), ErrMalformedToken)
	}
	b, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return Header{}, fmt.Errorf("header encoding: %w: %w", ErrMalformedToken, err)
	}
	var hdr Header
	if err := json.Unmarshal(b, &hdr); err != nil {
		return Header{}, fmt.Errorf("header json: %w: %w", ErrMalformedToken, err)
	}
	return hdr, nil
}
