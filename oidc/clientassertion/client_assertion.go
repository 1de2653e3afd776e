// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package clientassertion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"

	"github.com/bankid-cz/bankid-go/sdk/id"
)

const (
	// JWTTypeParam is the proper value for client_assertion_type.
	// https://www.rfc-editor.org/rfc/rfc7523.html#section-2.2
	JWTTypeParam = "urn:ietf:params:oauth:client-assertion-type:jwt-bearer"

	// Lifetime is the validity window of a single assertion.
	Lifetime = time.Hour
)

// AudienceFunc returns the assertion audience, the token endpoint.
type AudienceFunc func(ctx context.Context) (string, error)

// ClientAssertion is a signed assertion ready for the token endpoint form.
type ClientAssertion struct {
	Type  string
	Value string
}

// Factory creates client assertions for one relying party.
type Factory struct {
	strategy AuthStrategy
	clientID string
	secret   string
	audience AudienceFunc
	key      *jose.JSONWebKey

	// these are overwritten for testing
	genID func() (string, error)
	clock clockwork.Clock
}

// NewFactory creates a Factory.
//
// Supported Options:
// * WithSigningKey
// * WithIDGenerator
// * WithClock
//
// The strategy is not checked against the configured key here; Create
// reports a missing key so misconfiguration surfaces on first use.
func NewFactory(strategy AuthStrategy, clientID, clientSecret string, audience AudienceFunc, opts ...Option) (*Factory, error) {
	const op = "NewFactory"
	f := &Factory{
		strategy: strategy,
		clientID: clientID,
		secret:   clientSecret,
		audience: audience,
		genID:    id.New,
		clock:    clockwork.NewRealClock(),
	}

	var errs []error
	for _, opt := range opts {
		if err := opt(f); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%s: %w", op, errors.Join(errs...))
	}

	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return f, nil
}

func (f *Factory) validate() error {
	const op = "Factory.validate"
	var errs []error
	if f.genID == nil {
		errs = append(errs, ErrMissingFuncIDGenerator)
	}
	if f.clock == nil {
		errs = append(errs, ErrMissingClock)
	}
	if f.clientID == "" {
		errs = append(errs, ErrMissingClientID)
	}
	if f.audience == nil {
		errs = append(errs, ErrMissingAudience)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s: %w", op, errors.Join(errs...))
	}
	return nil
}

// Strategy returns the configured strategy.
func (f *Factory) Strategy() AuthStrategy { return f.strategy }

// Create signs a new assertion. PlainSecret fails with ErrAssertionNotNeeded
// and SignedWithOwnKey without a key fails with ErrMissingSigningKey.
func (f *Factory) Create(ctx context.Context) (*ClientAssertion, error) {
	const op = "Factory.Create"
	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var (
		method jwt.SigningMethod
		key    any
		kid    string
	)
	switch f.strategy {
	case SignedWithProviderSecret:
		if f.secret == "" {
			return nil, fmt.Errorf("%s: %w", op, ErrMissingSecret)
		}
		method, key = jwt.SigningMethodHS512, []byte(f.secret)
	case SignedWithOwnKey:
		if f.key == nil {
			return nil, fmt.Errorf("%s: %w", op, ErrMissingSigningKey)
		}
		var err error
		if method, key, err = ValidateSigningKey(f.key); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		kid = f.key.KeyID
	default:
		return nil, fmt.Errorf("%s: %s: %w", op, f.strategy, ErrAssertionNotNeeded)
	}

	aud, err := f.audience(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to resolve audience: %w", op, err)
	}
	if aud == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrMissingAudience)
	}
	jti, err := f.genID()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to generate token id: %w", op, err)
	}

	token := jwt.NewWithClaims(method, f.claims(jti, aud))
	if kid != "" {
		token.Header["kid"] = kid
	}
	signed, err := token.SignedString(key)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrCreatingAssertion, err)
	}
	return &ClientAssertion{Type: JWTTypeParam, Value: signed}, nil
}

// claims uses MapClaims so "aud" serializes as a single string.
func (f *Factory) claims(jti, aud string) jwt.MapClaims {
	now := f.clock.Now()
	return jwt.MapClaims{
		"jti": jti,
		"sub": f.clientID,
		"iss": f.clientID,
		"aud": aud,
		"iat": now.Unix(),
		"exp": now.Add(Lifetime).Unix(),
	}
}
