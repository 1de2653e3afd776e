// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenPair(t *testing.T) {
	t.Parallel()
	expiresAt := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	tests := []struct {
		name      string
		access    string
		id        string
		scope     string
		refresh   string
		wantScope []Scope
		wantIsErr error
	}{
		{
			name:      "round-trip-order",
			access:    "at",
			id:        "it",
			scope:     "openid offline_access profile.addresses",
			wantScope: []Scope{ScopeOpenID, ScopeOfflineAccess, ScopeAddress},
		},
		{name: "with-refresh", access: "at", id: "it", scope: "openid", refresh: "rt", wantScope: []Scope{ScopeOpenID}},
		{name: "empty-scope", access: "at", id: "it"},
		{name: "unknown-scope", access: "at", id: "it", scope: "openid profile.shoesize", wantIsErr: ErrUnknownScope},
		{name: "missing-access", id: "it", scope: "openid", wantIsErr: ErrMissingAccessToken},
		{name: "missing-id", access: "at", scope: "openid", wantIsErr: ErrMissingIdToken},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert, require := assert.New(t), require.New(t)
			tp, err := NewTokenPair(tt.access, tt.id, tt.scope, expiresAt, tt.refresh)
			if tt.wantIsErr != nil {
				require.Error(err)
				assert.ErrorIs(err, tt.wantIsErr)
				assert.Nil(tp)
				return
			}
			require.NoError(err)
			assert.Equal(tt.wantScope, tp.Scope())
			assert.Equal(tt.scope, tp.ScopeString())
			assert.Equal(AccessToken(tt.access), tp.AccessToken())
			assert.Equal(IdToken(tt.id), tp.IdToken())
			assert.Equal(RefreshToken(tt.refresh), tp.RefreshToken())
			assert.Equal(tt.refresh != "", tp.HasRefreshToken())
			assert.Equal(expiresAt, tp.ExpiresAt())
		})
	}
	t.Run("unknown-scope-is-logic-error", func(t *testing.T) {
		_, err := NewTokenPair("at", "it", "nope", expiresAt, "")
		assert.True(t, IsLogicError(err))
	})
}

func TestTokenPair_Scope(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	tp, err := NewTokenPair("at", "it", "openid profile.email", time.Now(), "")
	require.NoError(err)
	s := tp.Scope()
	s[0] = ScopeLocale
	assert.Equal([]Scope{ScopeOpenID, ScopeEmail}, tp.Scope())
}

func TestTokenPair_WithExpiresAt(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	orig := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	tp, err := NewTokenPair("at", "it", "openid", orig, "rt")
	require.NoError(err)

	later := orig.Add(time.Hour)
	replaced := tp.WithExpiresAt(later)
	assert.Equal(later, replaced.ExpiresAt())
	assert.Equal(orig, tp.ExpiresAt())
	assert.Equal(tp.AccessToken(), replaced.AccessToken())
	assert.Equal(tp.RefreshToken(), replaced.RefreshToken())
	assert.Equal(tp.Scope(), replaced.Scope())
}

func TestTokenPair_IsExpired(t *testing.T) {
	t.Parallel()
	now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(now)
	tests := []struct {
		name      string
		expiresAt time.Time
		opt       []Option
		want      bool
	}{
		{name: "future", expiresAt: now.Add(time.Hour), opt: []Option{WithClock(clock)}, want: false},
		{name: "past", expiresAt: now.Add(-time.Second), opt: []Option{WithClock(clock)}, want: true},
		{name: "within-default-skew", expiresAt: now.Add(5 * time.Second), opt: []Option{WithClock(clock)}, want: true},
		{name: "custom-skew", expiresAt: now.Add(5 * time.Second), opt: []Option{WithClock(clock), WithExpirySkew(time.Second)}, want: false},
		{name: "zero-never-expires", opt: []Option{WithClock(clock)}, want: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert, require := assert.New(t), require.New(t)
			tp, err := NewTokenPair("at", "it", "openid", tt.expiresAt, "")
			require.NoError(err)
			assert.Equal(tt.want, tp.IsExpired(tt.opt...))
			assert.Equal(!tt.want, tp.Valid(tt.opt...))
		})
	}
}

func TestTokenPair_EncodeDecode(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	expiresAt := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	tp, err := NewTokenPair("at", "it", "openid offline_access", expiresAt, "rt")
	require.NoError(err)

	b, err := tp.Encode()
	require.NoError(err)
	var raw map[string]any
	require.NoError(json.Unmarshal(b, &raw))
	assert.Equal(map[string]any{
		"accessTokenString":  "at",
		"idTokenString":      "it",
		"scope":              "openid offline_access",
		"expiresAt":          "2030-01-02T03:04:05Z",
		"refreshTokenString": "rt",
	}, raw)

	got, err := DecodeTokenPair(b)
	require.NoError(err)
	assert.Equal(tp, got)

	_, err = DecodeTokenPair([]byte(`{"accessTokenString":"at","idTokenString":"it","scope":"openid","expiresAt":"tomorrow"}`))
	assert.ErrorIs(err, ErrInvalidParameter)
	_, err = DecodeTokenPair([]byte(`not json`))
	assert.ErrorIs(err, ErrInvalidParameter)
	_, err = DecodeTokenPair([]byte(`{"accessTokenString":"at","idTokenString":"it","scope":"bogus","expiresAt":"2030-01-02T03:04:05Z"}`))
	assert.ErrorIs(err, ErrUnknownScope)
}

func TestTokenPair_String(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	tp, err := NewTokenPair("secret-access", "secret-id", "openid", time.Now(), "secret-refresh")
	require.NoError(err)
	s := tp.String()
	assert.NotContains(s, "secret-")
	assert.Contains(s, "openid")
}

func TestTokenPair_OAuth2Token(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	expiresAt := time.Now().Add(time.Hour)
	tp, err := NewTokenPair("at", "it", "openid profile.email", expiresAt, "rt")
	require.NoError(err)

	tk := tp.OAuth2Token()
	assert.Equal("at", tk.AccessToken)
	assert.Equal("rt", tk.RefreshToken)
	assert.Equal("Bearer", tk.Type())
	assert.Equal(expiresAt, tk.Expiry)
	assert.Equal("it", tk.Extra("id_token"))
	assert.Equal("openid profile.email", tk.Extra("scope"))

	got, err := tp.StaticTokenSource().Token()
	require.NoError(err)
	assert.Equal("at", got.AccessToken)
}
