// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Discovery document keys.
const (
	KeyIssuer                   = "issuer"
	KeyAuthorizationEndpoint    = "authorization_endpoint"
	KeyAuthorizeEndpoint        = "authorize_endpoint"
	KeyTokenEndpoint            = "token_endpoint"
	KeyTokenEndpointSigningAlgs = "token_endpoint_auth_signing_alg_values_supported"
	KeyUserinfoEndpoint         = "userinfo_endpoint"
	KeyIntrospectionEndpoint    = "introspection_endpoint"
	KeyEndSessionEndpoint       = "end_session_endpoint"
	KeyJWKSURI                  = "jwks_uri"
	KeyProfileEndpoint          = "profile_endpoint"
	KeyROSEndpoint              = "ros_endpoint"
)

// Configuration is the provider's discovery document. Keys without a typed
// field are kept in Extensions.
type Configuration struct {
	Issuer                                     string   `json:"issuer,omitempty"`
	AuthorizationEndpoint                      string   `json:"authorization_endpoint,omitempty"`
	TokenEndpoint                              string   `json:"token_endpoint,omitempty"`
	TokenEndpointAuthSigningAlgValuesSupported []string `json:"token_endpoint_auth_signing_alg_values_supported,omitempty"`
	UserinfoEndpoint                           string   `json:"userinfo_endpoint,omitempty"`
	IntrospectionEndpoint                      string   `json:"introspection_endpoint,omitempty"`
	EndSessionEndpoint                         string   `json:"end_session_endpoint,omitempty"`
	JWKSURI                                    string   `json:"jwks_uri,omitempty"`
	ScopesSupported                            []string `json:"scopes_supported,omitempty"`
	IDTokenSigningAlgValuesSupported           []string `json:"id_token_signing_alg_values_supported,omitempty"`

	// Extensions holds vendor keys such as profile_endpoint and ros_endpoint.
	Extensions map[string]any `json:"-"`

	present map[string]bool
}

// UnmarshalJSON records which keys are present so missing keys can be told
// apart from empty ones.
func (c *Configuration) UnmarshalJSON(data []byte) error {
	type plain Configuration
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	*c = Configuration(p)
	c.present = make(map[string]bool, len(all))
	c.Extensions = map[string]any{}
	for k, v := range all {
		c.present[k] = true
		if !typedConfigurationKeys[k] {
			c.Extensions[k] = v
		}
	}
	if c.AuthorizationEndpoint == "" {
		if v, ok := all[KeyAuthorizeEndpoint].(string); ok {
			c.AuthorizationEndpoint = v
			c.present[KeyAuthorizationEndpoint] = true
		}
	}
	return nil
}

var typedConfigurationKeys = map[string]bool{
	KeyIssuer:                               true,
	KeyAuthorizationEndpoint:                true,
	KeyTokenEndpoint:                        true,
	KeyTokenEndpointSigningAlgs:             true,
	KeyUserinfoEndpoint:                     true,
	KeyIntrospectionEndpoint:                true,
	KeyEndSessionEndpoint:                   true,
	KeyJWKSURI:                              true,
	"scopes_supported":                      true,
	"id_token_signing_alg_values_supported": true,
}

// Has reports whether key was present in the document.
func (c *Configuration) Has(key string) bool { return c.present[key] }

// Extension returns a vendor key as a string.
func (c *Configuration) Extension(key string) (string, bool) {
	s, ok := c.Extensions[key].(string)
	return s, ok
}

func (c *Configuration) require(key string) error {
	if !c.present[key] {
		return fmt.Errorf("%q: %w", key, ErrMissingDiscoveryKey)
	}
	return nil
}

func parseConfiguration(b []byte) (*Configuration, error) {
	var c Configuration
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return &c, nil
}

// ConfigurationProvider loads the provider's discovery document from
// {baseURI}/.well-known/openid-configuration. See document for the caching
// rules.
type ConfigurationProvider struct {
	baseURI string
	doc     *document[*Configuration]
}

// NewConfigurationProvider creates a ConfigurationProvider. No request is
// made until the first accessor call.
// Supported options:
//   - WithHTTPClient
//   - WithCache
//   - WithLogger
func NewConfigurationProvider(baseURI string, opt ...Option) (*ConfigurationProvider, error) {
	const op = "oidc.NewConfigurationProvider"
	baseURI = strings.TrimRight(baseURI, "/")
	if baseURI == "" {
		return nil, fmt.Errorf("%s: missing base URI: %w", op, ErrInvalidParameter)
	}
	opts := getDependencyOpts(opt...)
	opts.withLogger = opts.withLogger.Named("discovery")
	return &ConfigurationProvider{
		baseURI: baseURI,
		doc: newDocument(
			baseURI+"/.well-known/openid-configuration",
			baseURI+"_config",
			parseConfiguration,
			opts,
		),
	}, nil
}

// Configuration returns the whole discovery document.
func (p *ConfigurationProvider) Configuration(ctx context.Context) (*Configuration, error) {
	const op = "ConfigurationProvider.Configuration"
	c, err := p.doc.get(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

func (p *ConfigurationProvider) required(ctx context.Context, op, key string) (*Configuration, error) {
	c, err := p.doc.get(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := c.require(key); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// AuthorizationEndpoint returns authorization_endpoint, or authorize_endpoint
// when only that is present.
func (p *ConfigurationProvider) AuthorizationEndpoint(ctx context.Context) (string, error) {
	c, err := p.required(ctx, "ConfigurationProvider.AuthorizationEndpoint", KeyAuthorizationEndpoint)
	if err != nil {
		return "", err
	}
	return c.AuthorizationEndpoint, nil
}

// TokenEndpoint returns the token exchange endpoint.
func (p *ConfigurationProvider) TokenEndpoint(ctx context.Context) (string, error) {
	c, err := p.required(ctx, "ConfigurationProvider.TokenEndpoint", KeyTokenEndpoint)
	if err != nil {
		return "", err
	}
	return c.TokenEndpoint, nil
}

// TokenEndpointSigningAlgs returns the algorithms the provider signs tokens
// with, as advertised in token_endpoint_auth_signing_alg_values_supported.
func (p *ConfigurationProvider) TokenEndpointSigningAlgs(ctx context.Context) ([]string, error) {
	c, err := p.required(ctx, "ConfigurationProvider.TokenEndpointSigningAlgs", KeyTokenEndpointSigningAlgs)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), c.TokenEndpointAuthSigningAlgValuesSupported...), nil
}

// Issuer returns the issuer every provider token must carry.
func (p *ConfigurationProvider) Issuer(ctx context.Context) (string, error) {
	c, err := p.required(ctx, "ConfigurationProvider.Issuer", KeyIssuer)
	if err != nil {
		return "", err
	}
	return c.Issuer, nil
}

// optional returns value, or baseURI+path when the document lacks it.
func (p *ConfigurationProvider) optional(ctx context.Context, op string, value func(*Configuration) string, path string) (string, error) {
	c, err := p.doc.get(ctx)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if v := value(c); v != "" {
		return v, nil
	}
	return p.baseURI + path, nil
}

// UserinfoEndpoint returns userinfo_endpoint, defaulting to {baseURI}/userinfo.
func (p *ConfigurationProvider) UserinfoEndpoint(ctx context.Context) (string, error) {
	return p.optional(ctx, "ConfigurationProvider.UserinfoEndpoint",
		func(c *Configuration) string { return c.UserinfoEndpoint }, "/userinfo")
}

// ProfileEndpoint returns profile_endpoint, defaulting to {baseURI}/profile.
func (p *ConfigurationProvider) ProfileEndpoint(ctx context.Context) (string, error) {
	return p.optional(ctx, "ConfigurationProvider.ProfileEndpoint",
		func(c *Configuration) string { s, _ := c.Extension(KeyProfileEndpoint); return s }, "/profile")
}

// IntrospectionEndpoint returns introspection_endpoint, defaulting to
// {baseURI}/token-info.
func (p *ConfigurationProvider) IntrospectionEndpoint(ctx context.Context) (string, error) {
	return p.optional(ctx, "ConfigurationProvider.IntrospectionEndpoint",
		func(c *Configuration) string { return c.IntrospectionEndpoint }, "/token-info")
}

// EndSessionEndpoint returns end_session_endpoint, defaulting to
// {baseURI}/logout.
func (p *ConfigurationProvider) EndSessionEndpoint(ctx context.Context) (string, error) {
	return p.optional(ctx, "ConfigurationProvider.EndSessionEndpoint",
		func(c *Configuration) string { return c.EndSessionEndpoint }, "/logout")
}
