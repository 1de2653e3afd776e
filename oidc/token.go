// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/oauth2"
)

// DefaultTokenExpirySkew is subtracted from expiresAt when checking expiry.
const DefaultTokenExpirySkew = 10 * time.Second

// TokenPair holds the verified tokens of one login. It is immutable; use
// WithExpiresAt to derive a replacement.
type TokenPair struct {
	accessToken  AccessToken
	idToken      IdToken
	scope        []Scope
	expiresAt    time.Time
	refreshToken RefreshToken
}

// NewTokenPair creates a TokenPair. The scope string is space separated and
// every value must be a known Scope. refreshToken is optional.
func NewTokenPair(accessToken, idToken, scope string, expiresAt time.Time, refreshToken string) (*TokenPair, error) {
	const op = "oidc.NewTokenPair"
	if accessToken == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrMissingAccessToken)
	}
	if idToken == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrMissingIdToken)
	}
	scopes, err := ParseScopes(scope)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &TokenPair{
		accessToken:  AccessToken(accessToken),
		idToken:      IdToken(idToken),
		scope:        scopes,
		expiresAt:    expiresAt,
		refreshToken: RefreshToken(refreshToken),
	}, nil
}

func (tp *TokenPair) AccessToken() AccessToken   { return tp.accessToken }
func (tp *TokenPair) IdToken() IdToken           { return tp.idToken }
func (tp *TokenPair) RefreshToken() RefreshToken { return tp.refreshToken }
func (tp *TokenPair) ExpiresAt() time.Time       { return tp.expiresAt }

// HasRefreshToken reports whether a refresh_token was issued.
func (tp *TokenPair) HasRefreshToken() bool { return tp.refreshToken != "" }

// Scope returns a copy of the granted scopes in their original order.
func (tp *TokenPair) Scope() []Scope {
	return append([]Scope(nil), tp.scope...)
}

// ScopeString returns the granted scopes space separated.
func (tp *TokenPair) ScopeString() string { return JoinScopes(tp.scope) }

// WithExpiresAt returns a copy with a new expiry.
func (tp *TokenPair) WithExpiresAt(t time.Time) *TokenPair {
	cp := *tp
	cp.scope = tp.Scope()
	cp.expiresAt = t
	return &cp
}

// tokenOptions is the set of available options for TokenPair functions
type tokenOptions struct {
	withExpirySkew time.Duration
	withClock      clockwork.Clock
}

func tokenDefaults() tokenOptions {
	return tokenOptions{
		withExpirySkew: DefaultTokenExpirySkew,
		withClock:      clockwork.NewRealClock(),
	}
}

func getTokenOpts(opt ...Option) tokenOptions {
	opts := tokenDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// IsExpired returns true if the access token has expired. Supports the
// WithExpirySkew and WithClock options.
func (tp *TokenPair) IsExpired(opt ...Option) bool {
	if tp.expiresAt.IsZero() {
		return false
	}
	opts := getTokenOpts(opt...)
	return tp.expiresAt.Round(0).Before(opts.withClock.Now().Add(opts.withExpirySkew))
}

// Valid returns true when the pair holds an access token that has not
// expired.
func (tp *TokenPair) Valid(opt ...Option) bool {
	if tp == nil || tp.accessToken == "" {
		return false
	}
	return !tp.IsExpired(opt...)
}

// OAuth2Token converts the pair, carrying the id_token as an extra.
func (tp *TokenPair) OAuth2Token() *oauth2.Token {
	t := &oauth2.Token{
		AccessToken:  string(tp.accessToken),
		TokenType:    "Bearer",
		RefreshToken: string(tp.refreshToken),
		Expiry:       tp.expiresAt,
	}
	return t.WithExtra(map[string]interface{}{
		"id_token": string(tp.idToken),
		"scope":    tp.ScopeString(),
	})
}

// StaticTokenSource returns a token source that always yields this pair's
// access token.
func (tp *TokenPair) StaticTokenSource() oauth2.TokenSource {
	return oauth2.StaticTokenSource(tp.OAuth2Token())
}

// String will redact the tokens
func (tp *TokenPair) String() string {
	return fmt.Sprintf("TokenPair{scope: %q, expiresAt: %s, refresh: %t}",
		tp.ScopeString(), tp.expiresAt.Format(time.RFC3339), tp.HasRefreshToken())
}

// encodedTokenPair is the persisted form of a TokenPair.
type encodedTokenPair struct {
	AccessToken  string `json:"accessTokenString"`
	IdToken      string `json:"idTokenString"`
	Scope        string `json:"scope"`
	ExpiresAt    string `json:"expiresAt"`
	RefreshToken string `json:"refreshTokenString,omitempty"`
}

// Encode serializes the pair, unredacted, for a session store. The output
// contains live credentials.
func (tp *TokenPair) Encode() ([]byte, error) {
	const op = "TokenPair.Encode"
	b, err := json.Marshal(encodedTokenPair{
		AccessToken:  string(tp.accessToken),
		IdToken:      string(tp.idToken),
		Scope:        tp.ScopeString(),
		ExpiresAt:    tp.expiresAt.Format(time.RFC3339),
		RefreshToken: string(tp.refreshToken),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return b, nil
}

// DecodeTokenPair restores a pair produced by Encode. The tokens are not
// re-validated.
func DecodeTokenPair(data []byte) (*TokenPair, error) {
	const op = "oidc.DecodeTokenPair"
	var e encodedTokenPair
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidParameter, err)
	}
	expiresAt, err := time.Parse(time.RFC3339, e.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("%s: expiresAt: %w: %w", op, ErrInvalidParameter, err)
	}
	tp, err := NewTokenPair(e.AccessToken, e.IdToken, e.Scope, expiresAt, e.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return tp, nil
}
