// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/jonboulle/clockwork"

	"github.com/bankid-cz/bankid-go/jwt"
)

// Token endpoint request parameters.
const (
	ParamGrantType    = "grant_type"
	ParamCode         = "code"
	ParamCodeVerifier = "code_verifier"
	ParamRefreshToken = "refresh_token"
	ParamToken        = "token"

	GrantTypeAuthorizationCode = "authorization_code"
	GrantTypeRefreshToken      = "refresh_token"
)

// maxResponseSize bounds token endpoint and resource response bodies.
const maxResponseSize = 1 << 20

// Provider is the relying party entry point: it builds the authorization and
// logout requests, exchanges codes, refreshes tokens and verifies
// notifications. Every token obtained from the provider is verified before it
// is handed out.
type Provider struct {
	settings    *Settings
	config      *ConfigurationProvider
	keys        *KeysProvider
	validator   *jwt.Validator
	keySet      *jwt.JSONWebKeySet
	requestAuth *RequestAuthorizationFactory

	client    *http.Client
	clock     clockwork.Clock
	generator RandomStringGenerator
	logger    hclog.Logger
}

// NewProvider creates a Provider. No request is made until an operation
// needs the discovery document or the keys.
// Supported options:
//   - WithHTTPClient
//   - WithCache
//   - WithClock
//   - WithRandomStringGenerator
//   - WithLogger
func NewProvider(s *Settings, opt ...Option) (*Provider, error) {
	const op = "oidc.NewProvider"
	if s == nil {
		return nil, fmt.Errorf("%s: settings are nil: %w", op, ErrNilParameter)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	opts := getDependencyOpts(opt...)
	if opts.withHTTPClient == nil {
		client, err := s.HTTPClient()
		if err != nil {
			return nil, fmt.Errorf("%s: unable to create http client: %w", op, err)
		}
		opts.withHTTPClient = client
	}
	shared := []Option{
		WithHTTPClient(opts.withHTTPClient),
		WithCache(opts.withCache),
		WithLogger(opts.withLogger),
		WithClock(opts.withClock),
		WithRandomStringGenerator(opts.withGenerator),
	}

	config, err := NewConfigurationProvider(s.BaseURI, shared...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	keys, err := NewKeysProvider(s.BaseURI, shared...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	validator, err := jwt.NewValidator(keys, config)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	keySet, err := jwt.NewJSONWebKeySet(keys)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	requestAuth, err := NewRequestAuthorizationFactory(s, config, shared...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Provider{
		settings:    s,
		config:      config,
		keys:        keys,
		validator:   validator,
		keySet:      keySet,
		requestAuth: requestAuth,
		client:      opts.withHTTPClient,
		clock:       opts.withClock,
		generator:   opts.withGenerator,
		logger:      opts.withLogger.Named("provider"),
	}, nil
}

// Settings returns the provider settings.
func (p *Provider) Settings() *Settings { return p.settings }

// ConfigurationProvider returns the discovery document loader.
func (p *Provider) ConfigurationProvider() *ConfigurationProvider { return p.config }

// AuthURIBuilder returns a builder for the authorization redirect with a
// freshly generated state. The builder points at the discovered
// authorization endpoint.
// Supported options:
//   - WithState
//   - WithEndpoint
func (p *Provider) AuthURIBuilder(ctx context.Context, opt ...Option) (AuthorizationURIBuilder, error) {
	const op = "Provider.AuthURIBuilder"
	endpoint, err := p.config.AuthorizationEndpoint(ctx)
	if err != nil {
		return AuthorizationURIBuilder{}, fmt.Errorf("%s: %w", op, err)
	}
	opt = append([]Option{WithRandomStringGenerator(p.generator), WithEndpoint(endpoint)}, opt...)
	return NewAuthorizationURIBuilder(p.settings.BaseURI, p.settings.ClientID, p.settings.PostLoginRedirectURI, opt...)
}

// LogoutURIBuilder returns a builder for ending the session of idToken. The
// request targets the discovered end_session_endpoint, or {baseURI}/logout
// when the provider does not advertise one.
// Supported options:
//   - WithState
//   - WithEndpoint
func (p *Provider) LogoutURIBuilder(ctx context.Context, idToken IdToken, opt ...Option) (LogoutURIBuilder, error) {
	const op = "Provider.LogoutURIBuilder"
	endpoint, err := p.config.EndSessionEndpoint(ctx)
	if err != nil {
		return LogoutURIBuilder{}, fmt.Errorf("%s: %w", op, err)
	}
	opt = append([]Option{WithRandomStringGenerator(p.generator), WithEndpoint(endpoint)}, opt...)
	return NewLogoutURIBuilder(p.settings.BaseURI, string(idToken), p.settings.PostLogoutRedirectURI, opt...)
}

// exchangeOptions is the set of available options for Provider.Exchange
type exchangeOptions struct {
	withCodeVerifier *CodeVerifier
}

func getExchangeOpts(opt ...Option) exchangeOptions {
	var opts exchangeOptions
	ApplyOpts(&opts, opt...)
	return opts
}

// WithCodeVerifier sends the PKCE verifier with the code exchange.
func WithCodeVerifier(v *CodeVerifier) Option {
	return func(o interface{}) {
		if o, ok := o.(*exchangeOptions); ok {
			o.withCodeVerifier = v
		}
	}
}

// Exchange trades an authorization code for a verified token pair.
// Supported options:
//   - WithCodeVerifier
func (p *Provider) Exchange(ctx context.Context, code string, opt ...Option) (*Client, error) {
	const op = "Provider.Exchange"
	if code == "" {
		return nil, fmt.Errorf("%s: missing authorization code: %w", op, ErrInvalidParameter)
	}
	opts := getExchangeOpts(opt...)
	form := url.Values{
		ParamGrantType:   {GrantTypeAuthorizationCode},
		ParamRedirectURI: {p.settings.PostLoginRedirectURI},
		ParamCode:        {code},
	}
	if opts.withCodeVerifier != nil {
		form.Set(ParamCodeVerifier, opts.withCodeVerifier.Verifier())
	}
	tp, err := p.requestTokens(ctx, form)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	p.logger.Debug("code exchanged", "scope", tp.ScopeString(), "expires_at", tp.ExpiresAt())
	return p.ClientFromTokenPair(tp), nil
}

// Refresh uses old's refresh token to obtain a new verified token pair for
// the same scope.
func (p *Provider) Refresh(ctx context.Context, old *Client) (*Client, error) {
	const op = "Provider.Refresh"
	if old == nil || old.tokens == nil {
		return nil, fmt.Errorf("%s: client is nil: %w", op, ErrNilParameter)
	}
	if !old.tokens.HasRefreshToken() {
		return nil, fmt.Errorf("%s: %w", op, ErrMissingRefreshToken)
	}
	form := url.Values{
		ParamGrantType:    {GrantTypeRefreshToken},
		ParamScope:        {old.tokens.ScopeString()},
		ParamRefreshToken: {string(old.tokens.RefreshToken())},
		ParamRedirectURI:  {p.settings.PostLoginRedirectURI},
	}
	tp, err := p.requestTokens(ctx, form)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	p.logger.Debug("tokens refreshed", "scope", tp.ScopeString(), "expires_at", tp.ExpiresAt())
	return p.ClientFromTokenPair(tp), nil
}

// ClientFromTokenPair rehydrates a client from a previously verified pair,
// typically loaded from a session store. The pair is not re-verified.
func (p *Provider) ClientFromTokenPair(tp *TokenPair) *Client {
	return &Client{
		tokens:      tp,
		config:      p.config,
		requestAuth: p.requestAuth,
		client:      p.client,
		logger:      p.logger.Named("client"),
	}
}

// Notifications verifies a pushed notification token and returns its events.
// A verified token without an events array fails with
// ErrMalformedNotification.
func (p *Provider) Notifications(ctx context.Context, token string) ([]Event, error) {
	const op = "Provider.Notifications"
	tok, err := p.Verify(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	events, err := eventsFromToken(tok)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	p.logger.Debug("notification received", "events", len(events))
	return events, nil
}

// Verify checks a provider token's signature, algorithm and issuer against
// the discovery document and key set.
func (p *Provider) Verify(ctx context.Context, token string) (*jwt.Token, error) {
	const op = "Provider.Verify"
	algs, err := p.config.TokenEndpointSigningAlgs(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	// a key set that cannot be loaded is not the token's fault
	if _, err := p.keys.Keys(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	tok, err := p.validator.Validate(ctx, token, jwt.AlgsFromStrings(algs))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrTokenInvalid, err)
	}
	return tok, nil
}

// tokenResponse is the token endpoint JSON body.
type tokenResponse struct {
	AccessToken  string      `json:"access_token"`
	IdToken      string      `json:"id_token"`
	RefreshToken string      `json:"refresh_token"`
	Scope        string      `json:"scope"`
	ExpiresIn    json.Number `json:"expires_in"`
}

func (r *tokenResponse) expiresIn() (time.Duration, error) {
	if r.ExpiresIn == "" {
		return 0, nil
	}
	secs, err := strconv.ParseFloat(r.ExpiresIn.String(), 64)
	if err != nil {
		return 0, fmt.Errorf("expires_in %q: %w", r.ExpiresIn, ErrMalformedResponse)
	}
	return time.Duration(secs) * time.Second, nil
}

// requestTokens posts form plus fresh client authentication to the token
// endpoint and verifies every returned token.
func (p *Provider) requestTokens(ctx context.Context, form url.Values) (*TokenPair, error) {
	endpoint, err := p.config.TokenEndpoint(ctx)
	if err != nil {
		return nil, err
	}
	auth, err := p.requestAuth.Create(ctx)
	if err != nil {
		return nil, err
	}
	for k, v := range auth {
		form[k] = v
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	body, status, err := do(p.client, req)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, newNetworkError(status, body)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	switch {
	case tr.AccessToken == "":
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, ErrMissingAccessToken)
	case tr.IdToken == "":
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, ErrMissingIdToken)
	}
	expiresIn, err := tr.expiresIn()
	if err != nil {
		return nil, err
	}

	if _, err := p.Verify(ctx, tr.AccessToken); err != nil {
		return nil, fmt.Errorf("access token: %w", err)
	}
	if _, err := p.Verify(ctx, tr.IdToken); err != nil {
		return nil, fmt.Errorf("id token: %w", err)
	}
	if tr.RefreshToken != "" {
		if _, err := p.Verify(ctx, tr.RefreshToken); err != nil {
			return nil, fmt.Errorf("refresh token: %w", err)
		}
	}
	return NewTokenPair(tr.AccessToken, tr.IdToken, tr.Scope, p.clock.Now().Add(expiresIn), tr.RefreshToken)
}

// do sends req and returns the bounded response body.
func do(client *http.Client, req *http.Request) ([]byte, int, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, 0, fmt.Errorf("reading response body: %w", err)
	}
	return body, resp.StatusCode, nil
}
