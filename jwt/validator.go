// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package jwt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
)

// IssuerSource supplies the issuer every validated token must carry.
type IssuerSource interface {
	Issuer(ctx context.Context) (string, error)
}

// Token is a verified JWT.
type Token struct {
	Raw    string
	Header Header
	Claims map[string]any

	payload []byte
}

// Issuer returns the "iss" claim.
func (t *Token) Issuer() string { return t.stringClaim("iss") }

// Subject returns the "sub" claim.
func (t *Token) Subject() string { return t.stringClaim("sub") }

// Claim returns a single claim.
func (t *Token) Claim(name string) (any, bool) {
	v, ok := t.Claims[name]
	return v, ok
}

// DecodeClaims unmarshals the verified payload into v.
func (t *Token) DecodeClaims(v any) error {
	return json.Unmarshal(t.payload, v)
}

func (t *Token) stringClaim(name string) string {
	s, _ := t.Claims[name].(string)
	return s
}

// Validator verifies signature, algorithm and issuer of provider tokens. It
// is the single gate every provider token passes before it is trusted.
type Validator struct {
	keys   *JSONWebKeySet
	issuer IssuerSource

	clock       clockwork.Clock
	checkExpiry bool
	leeway      time.Duration
}

// NewValidator creates a Validator.
// Supported options:
//   - WithExpiryCheck
//   - WithClock
func NewValidator(keys KeySource, issuer IssuerSource, opt ...Option) (*Validator, error) {
	const op = "jwt.NewValidator"
	ks, err := NewJSONWebKeySet(keys)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if issuer == nil {
		return nil, fmt.Errorf("%s: missing issuer source: %w", op, ErrNilParameter)
	}
	opts := getValidatorOpts(opt...)
	return &Validator{
		keys:        ks,
		issuer:      issuer,
		clock:       opts.withClock,
		checkExpiry: opts.withExpiryCheck,
		leeway:      opts.withLeeway,
	}, nil
}

// Validate verifies token against the current key set and returns it
// decoded. It fails with ErrUnsupportedAlgorithm when the "alg" header is not
// in expected, ErrInvalidSignature when no matching key verifies the
// signature, and ErrInvalidIssuer when "iss" differs from the provider issuer.
func (v *Validator) Validate(ctx context.Context, token string, expected []Alg) (*Token, error) {
	const op = "Validator.Validate"
	if token == "" {
		return nil, fmt.Errorf("%s: missing token: %w", op, ErrInvalidParameter)
	}
	if len(expected) == 0 {
		return nil, fmt.Errorf("%s: missing expected algorithms: %w", op, ErrInvalidParameter)
	}
	payload, hdr, err := v.keys.verify(ctx, token, expected)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	claims := map[string]any{}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("%s: claims are not a json object: %w: %w", op, ErrMalformedToken, err)
	}
	tk := &Token{Raw: token, Header: hdr, Claims: claims, payload: payload}

	want, err := v.issuer.Issuer(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to load issuer: %w", op, err)
	}
	if got := tk.Issuer(); got != want {
		return nil, fmt.Errorf("%s: got %q, expected %q: %w", op, got, want, ErrInvalidIssuer)
	}

	if v.checkExpiry {
		if exp, ok := claims["exp"].(float64); ok {
			expiresAt := time.Unix(int64(exp), 0)
			if v.clock.Now().After(expiresAt.Add(v.leeway)) {
				return nil, fmt.Errorf("%s: expired at %s: %w", op, expiresAt.UTC().Format(time.RFC3339), ErrExpiredToken)
			}
		}
	}
	return tk, nil
}
