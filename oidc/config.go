// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-jose/go-jose/v4"
	"github.com/hashicorp/go-multierror"

	"github.com/bankid-cz/bankid-go/oidc/clientassertion"
	sdkHttp "github.com/bankid-cz/bankid-go/sdk/http"
)

// AuthStrategy selects how the relying party authenticates at the token
// endpoint.
type AuthStrategy = clientassertion.AuthStrategy

const (
	PlainSecret              = clientassertion.PlainSecret
	SignedWithProviderSecret = clientassertion.SignedWithProviderSecret
	SignedWithOwnKey         = clientassertion.SignedWithOwnKey
)

// ParseAuthStrategy parses plain_secret, signed_with_provider_secret or
// signed_with_own_key.
func ParseAuthStrategy(s string) (AuthStrategy, error) {
	return clientassertion.ParseAuthStrategy(s)
}

// Settings is the relying party configuration. It is created once at startup
// and never mutated.
type Settings struct {
	// BaseURI is the provider base URI without a trailing slash, e.g.
	// https://oidc.sandbox.bankid.cz
	BaseURI string

	// PostLoginRedirectURI is where the provider sends the authorization code.
	PostLoginRedirectURI string

	// PostLogoutRedirectURI is where the provider sends the browser after
	// logout.
	PostLogoutRedirectURI string

	// ClientID is the relying party id
	ClientID string

	// ClientSecret is the relying party secret
	ClientSecret ClientSecret

	// AuthStrategy defaults to PlainSecret.
	AuthStrategy AuthStrategy

	// SigningKey is the private JWK used by SignedWithOwnKey.
	SigningKey *jose.JSONWebKey

	// ProviderCA is an optional CA cert to use when sending requests to the
	// provider.
	ProviderCA string
}

// settingsOptions is the set of available options for NewSettings
type settingsOptions struct {
	withAuthStrategy AuthStrategy
	withSigningKey   *jose.JSONWebKey
	withProviderCA   string
}

func settingsDefaults() settingsOptions {
	return settingsOptions{withAuthStrategy: PlainSecret}
}

func getSettingsOpts(opt ...Option) settingsOptions {
	opts := settingsDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// NewSettings composes validated settings. The base URI is normalized by
// removing trailing slashes.
// Supported options:
//   - WithAuthStrategy
//   - WithSigningKey
//   - WithProviderCA
func NewSettings(baseURI, clientID string, clientSecret ClientSecret, postLoginRedirectURI, postLogoutRedirectURI string, opt ...Option) (*Settings, error) {
	const op = "oidc.NewSettings"
	opts := getSettingsOpts(opt...)
	s := &Settings{
		BaseURI:               strings.TrimRight(baseURI, "/"),
		PostLoginRedirectURI:  postLoginRedirectURI,
		PostLogoutRedirectURI: postLogoutRedirectURI,
		ClientID:              clientID,
		ClientSecret:          clientSecret,
		AuthStrategy:          opts.withAuthStrategy,
		SigningKey:            opts.withSigningKey,
		ProviderCA:            opts.withProviderCA,
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%s: invalid settings: %w", op, err)
	}
	return s, nil
}

// Validate the settings. All problems are reported together. A
// SignedWithOwnKey strategy without a key is not rejected here; it fails when
// the first assertion is built.
func (s *Settings) Validate() error {
	const op = "Settings.Validate"
	if s == nil {
		return fmt.Errorf("%s: settings are nil: %w", op, ErrNilParameter)
	}
	var result *multierror.Error
	if err := validateURL("base URI", s.BaseURI); err != nil {
		result = multierror.Append(result, err)
	} else if strings.HasSuffix(s.BaseURI, "/") {
		result = multierror.Append(result, fmt.Errorf("base URI %q has a trailing slash: %w", s.BaseURI, ErrInvalidParameter))
	}
	if s.ClientID == "" {
		result = multierror.Append(result, fmt.Errorf("client id is empty: %w", ErrInvalidParameter))
	}
	if s.ClientSecret == "" && s.AuthStrategy != SignedWithOwnKey {
		result = multierror.Append(result, fmt.Errorf("client secret is empty: %w", ErrInvalidParameter))
	}
	if err := validateURL("post login redirect URI", s.PostLoginRedirectURI); err != nil {
		result = multierror.Append(result, err)
	}
	if err := validateURL("post logout redirect URI", s.PostLogoutRedirectURI); err != nil {
		result = multierror.Append(result, err)
	}
	if _, err := clientassertion.ParseAuthStrategy(s.AuthStrategy.String()); err != nil {
		result = multierror.Append(result, fmt.Errorf("%w: %w", ErrInvalidParameter, err))
	}
	if s.SigningKey != nil {
		if _, _, err := clientassertion.ValidateSigningKey(s.SigningKey); err != nil {
			result = multierror.Append(result, fmt.Errorf("signing key: %w: %w", ErrUnsupportedKey, err))
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func validateURL(name, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is empty: %w", name, ErrInvalidParameter)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s %q is invalid: %w: %w", name, raw, ErrInvalidParameter, err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("%s %q scheme is not http or https: %w", name, raw, ErrInvalidParameter)
	}
	return nil
}

// HTTPClient is a helper function that creates a new http client for the
// provider configured
func (s *Settings) HTTPClient() (*http.Client, error) {
	const op = "Settings.HTTPClient"
	client, err := sdkHttp.NewClient(s.ProviderCA)
	if err != nil {
		if errors.Is(err, sdkHttp.ErrInvalidCertificatePem) {
			return nil, fmt.Errorf("%s: could not parse CA PEM value: %w", op, ErrInvalidCACert)
		}
		return nil, fmt.Errorf("%s: could not get an http client: %w", op, err)
	}
	return client, nil
}
