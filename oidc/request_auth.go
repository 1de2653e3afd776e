// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"context"
	"fmt"
	"net/url"

	"github.com/bankid-cz/bankid-go/oidc/clientassertion"
)

// Token endpoint client authentication parameters.
const (
	ParamClientSecret        = "client_secret"
	ParamClientAssertionType = "client_assertion_type"
	ParamClientAssertion     = "client_assertion"
)

// RequestAuthorizationFactory produces the client authentication parameters
// merged into every token endpoint and introspection request.
type RequestAuthorizationFactory struct {
	settings   *Settings
	assertions *clientassertion.Factory
}

// NewRequestAuthorizationFactory creates a factory whose assertions use the
// token endpoint from cfg as audience.
// Supported options:
//   - WithClock
//   - WithRandomStringGenerator
func NewRequestAuthorizationFactory(s *Settings, cfg *ConfigurationProvider, opt ...Option) (*RequestAuthorizationFactory, error) {
	const op = "oidc.NewRequestAuthorizationFactory"
	if s == nil {
		return nil, fmt.Errorf("%s: settings are nil: %w", op, ErrNilParameter)
	}
	if cfg == nil {
		return nil, fmt.Errorf("%s: configuration provider is nil: %w", op, ErrNilParameter)
	}
	opts := getDependencyOpts(opt...)
	caOpts := []clientassertion.Option{
		clientassertion.WithClock(opts.withClock),
		clientassertion.WithIDGenerator(opts.withGenerator.Generate),
	}
	if s.SigningKey != nil {
		caOpts = append(caOpts, clientassertion.WithSigningKey(s.SigningKey))
	}
	assertions, err := clientassertion.NewFactory(s.AuthStrategy, s.ClientID, string(s.ClientSecret), cfg.TokenEndpoint, caOpts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &RequestAuthorizationFactory{settings: s, assertions: assertions}, nil
}

// Create returns client_id and client_secret for PlainSecret, or a freshly
// signed client_assertion and its type for the signed strategies.
func (f *RequestAuthorizationFactory) Create(ctx context.Context) (url.Values, error) {
	const op = "RequestAuthorizationFactory.Create"
	if !f.settings.AuthStrategy.Signed() {
		return url.Values{
			ParamClientID:     {f.settings.ClientID},
			ParamClientSecret: {string(f.settings.ClientSecret)},
		}, nil
	}
	ca, err := f.assertions.Create(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return url.Values{
		ParamClientAssertionType: {ca.Type},
		ParamClientAssertion:     {ca.Value},
	}, nil
}

// ClientAssertion creates an assertion directly. It fails with
// ErrAssertionNotNeeded for PlainSecret.
func (f *RequestAuthorizationFactory) ClientAssertion(ctx context.Context) (*clientassertion.ClientAssertion, error) {
	return f.assertions.Create(ctx)
}
