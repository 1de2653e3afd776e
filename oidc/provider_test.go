// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankid-cz/bankid-go/jwt"
)

// testNewProvider returns a provider for tp using tp's TLS client.
func testNewProvider(t *testing.T, tp *TestProvider, s *Settings, opt ...Option) *Provider {
	t.Helper()
	opt = append([]Option{WithHTTPClient(tp.HTTPClient()), WithLogger(hclog.NewNullLogger())}, opt...)
	p, err := NewProvider(s, opt...)
	require.NoError(t, err)
	return p
}

// tamper alters one character in the middle of the signature segment.
func tamper(token string) string {
	dot := strings.LastIndex(token, ".")
	pos := dot + (len(token)-dot)/2
	c := byte('A')
	if token[pos] == 'A' {
		c = 'B'
	}
	return token[:pos] + string(c) + token[pos+1:]
}

func TestNewProvider(t *testing.T) {
	t.Parallel()
	tp := StartTestProvider(t)

	t.Run("valid", func(t *testing.T) {
		require := require.New(t)
		p, err := NewProvider(tp.Settings(WithProviderCA(tp.CACert())))
		require.NoError(err)
		require.NotNil(p)
		assert.Equal(t, tp.Addr(), p.Settings().BaseURI)

		// the CA from the settings is used when no client is given
		_, err = p.ConfigurationProvider().Issuer(context.Background())
		require.NoError(err)
	})
	t.Run("nil-settings", func(t *testing.T) {
		_, err := NewProvider(nil)
		assert.ErrorIs(t, err, ErrNilParameter)
	})
	t.Run("invalid-settings", func(t *testing.T) {
		s := tp.Settings()
		s.ClientID = ""
		_, err := NewProvider(s)
		assert.ErrorIs(t, err, ErrInvalidParameter)
	})
	t.Run("invalid-ca", func(t *testing.T) {
		s := tp.Settings()
		s.ProviderCA = "not a cert"
		_, err := NewProvider(s)
		assert.ErrorIs(t, err, ErrInvalidCACert)
	})
	t.Run("no-requests-at-construction", func(t *testing.T) {
		fresh := StartTestProvider(t)
		_ = testNewProvider(t, fresh, fresh.Settings())
		assert.Equal(t, 0, fresh.Requests("/.well-known/openid-configuration"))
		assert.Equal(t, 0, fresh.Requests("/.well-known/jwks"))
	})
}

func TestProvider_URIBuilders(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("default-endpoints", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		tp := StartTestProvider(t)
		p := testNewProvider(t, tp, tp.Settings(), WithRandomStringGenerator(fixedGenerator("some-state")))

		ab, err := p.AuthURIBuilder(ctx)
		require.NoError(err)
		assert.Equal("some-state", ab.State())
		assert.Equal(
			tp.Addr()+"/auth?approval_prompt=auto&scope=openid&code_challenge_method=plain&response_type=code&acr_value=loa2&state=some-state&client_id="+TestClientID+"&redirect_uri=https%3A%2F%2Frp.example.com%2Fcallback",
			ab.AuthorizationURI(),
		)

		ab, err = p.AuthURIBuilder(ctx, WithState("explicit"))
		require.NoError(err)
		assert.Equal("explicit", ab.State())

		lb, err := p.LogoutURIBuilder(ctx, IdToken("the-id-token"))
		require.NoError(err)
		assert.Equal(LogoutRequest{
			URI:                   tp.Addr() + "/logout",
			IDTokenHint:           "the-id-token",
			PostLogoutRedirectURI: TestLogoutRedirectURI,
			SessionState:          "some-state",
		}, lb.LogoutRequest())
	})

	t.Run("discovered-endpoints", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		tp := StartTestProvider(t)
		tp.SetDiscoveryValue(KeyAuthorizationEndpoint, tp.Addr()+"/oauth/authorize")
		tp.SetDiscoveryValue(KeyEndSessionEndpoint, tp.Addr()+"/oauth/end-session")
		p := testNewProvider(t, tp, tp.Settings())

		ab, err := p.AuthURIBuilder(ctx)
		require.NoError(err)
		assert.True(strings.HasPrefix(ab.AuthorizationURI(), tp.Addr()+"/oauth/authorize?"))

		lb, err := p.LogoutURIBuilder(ctx, IdToken("the-id-token"))
		require.NoError(err)
		assert.Equal(tp.Addr()+"/oauth/end-session", lb.LogoutRequest().URI)

		lb, err = p.LogoutURIBuilder(ctx, IdToken("the-id-token"), WithEndpoint("https://rp.example.com/bye"))
		require.NoError(err)
		assert.Equal("https://rp.example.com/bye", lb.LogoutRequest().URI)
	})

	t.Run("end-session-fallback", func(t *testing.T) {
		t.Parallel()
		require := require.New(t)
		tp := StartTestProvider(t)
		tp.OmitDiscoveryKey(KeyEndSessionEndpoint)
		p := testNewProvider(t, tp, tp.Settings())

		lb, err := p.LogoutURIBuilder(ctx, IdToken("the-id-token"))
		require.NoError(err)
		require.Equal(tp.Addr()+"/logout", lb.LogoutRequest().URI)
	})

	t.Run("discovery-unavailable", func(t *testing.T) {
		t.Parallel()
		tp := StartTestProvider(t)
		tp.SetReply("/.well-known/openid-configuration", http.StatusServiceUnavailable, "")
		p := testNewProvider(t, tp, tp.Settings())

		_, err := p.AuthURIBuilder(ctx)
		var netErr *NetworkError
		require.ErrorAs(t, err, &netErr)
	})
}

func TestProvider_Exchange(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		tp := StartTestProvider(t)
		clock := clockwork.NewFakeClockAt(time.Now())
		p := testNewProvider(t, tp, tp.Settings(), WithClock(clock))

		c, err := p.Exchange(ctx, TestAuthCode)
		require.NoError(err)
		pair := c.TokenPair()
		assert.Equal([]Scope{ScopeOpenID}, pair.Scope())
		assert.WithinDuration(clock.Now().Add(3600*time.Second), pair.ExpiresAt(), time.Second)
		assert.True(pair.HasRefreshToken())
		access, refresh := tp.IssuedTokens()
		assert.Equal(AccessToken(access), pair.AccessToken())
		assert.Equal(RefreshToken(refresh), pair.RefreshToken())

		form := tp.LastForm("/token")
		assert.Equal(GrantTypeAuthorizationCode, form.Get(ParamGrantType))
		assert.Equal(TestAuthCode, form.Get(ParamCode))
		assert.Equal(TestRedirectURI, form.Get(ParamRedirectURI))
		assert.Equal(TestClientID, form.Get(ParamClientID))
		assert.Equal(TestClientSecret, form.Get(ParamClientSecret))
		assert.Empty(form.Get(ParamCodeVerifier))
	})

	t.Run("scopes-and-no-refresh", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		tp := StartTestProvider(t)
		tp.SetScope("openid profile.email profile.addresses")
		tp.IssueRefreshTokens(false)
		tp.SetExpiresIn(60)
		clock := clockwork.NewFakeClockAt(time.Now())
		p := testNewProvider(t, tp, tp.Settings(), WithClock(clock))

		c, err := p.Exchange(ctx, TestAuthCode)
		require.NoError(err)
		assert.Equal([]Scope{ScopeOpenID, ScopeEmail, ScopeAddress}, c.TokenPair().Scope())
		assert.False(c.TokenPair().HasRefreshToken())
		assert.Equal(clock.Now().Add(time.Minute), c.TokenPair().ExpiresAt())
	})

	t.Run("pkce", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		tp := StartTestProvider(t)
		p := testNewProvider(t, tp, tp.Settings())
		v, err := NewCodeVerifier()
		require.NoError(err)
		_, err = p.Exchange(ctx, TestAuthCode, WithCodeVerifier(v))
		require.NoError(err)
		assert.Equal(v.Verifier(), tp.LastForm("/token").Get(ParamCodeVerifier))
	})

	t.Run("signed-with-provider-secret", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		tp := StartTestProvider(t)
		p := testNewProvider(t, tp, tp.Settings(WithAuthStrategy(SignedWithProviderSecret)))
		_, err := p.Exchange(ctx, TestAuthCode)
		require.NoError(err)
		form := tp.LastForm("/token")
		assert.NotEmpty(form.Get(ParamClientAssertion))
		assert.Empty(form.Get(ParamClientSecret))
	})

	t.Run("signed-with-own-key", func(t *testing.T) {
		require := require.New(t)
		tp := StartTestProvider(t)
		key := TestGenerateSigningKey(t, "ES256", "rp-key")
		tp.SetClientKey(key)
		p := testNewProvider(t, tp, tp.Settings(WithAuthStrategy(SignedWithOwnKey), WithSigningKey(key)))
		_, err := p.Exchange(ctx, TestAuthCode)
		require.NoError(err)
	})

	t.Run("id-token-bad-issuer", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		tp := StartTestProvider(t)
		body, err := json.Marshal(map[string]any{
			"access_token": tp.SignJWT(map[string]any{"iss": tp.Addr(), "sub": TestSubject}),
			"id_token":     tp.SignJWT(map[string]any{"iss": "https://evil.example.com", "sub": TestSubject}),
			"expires_in":   3600,
			"scope":        "openid",
		})
		require.NoError(err)
		tp.SetReply("/token", http.StatusOK, string(body))
		p := testNewProvider(t, tp, tp.Settings())

		c, err := p.Exchange(ctx, TestAuthCode)
		require.Error(err)
		assert.Nil(c)
		assert.ErrorIs(err, ErrTokenInvalid)
		assert.ErrorIs(err, jwt.ErrInvalidIssuer)
		assert.Contains(err.Error(), "id token")
	})

	t.Run("missing-expires-in", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		tp := StartTestProvider(t)
		body, err := json.Marshal(map[string]any{
			"access_token": tp.SignJWT(map[string]any{"iss": tp.Addr()}),
			"id_token":     tp.SignJWT(map[string]any{"iss": tp.Addr()}),
			"scope":        "openid",
		})
		require.NoError(err)
		tp.SetReply("/token", http.StatusOK, string(body))
		clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
		p := testNewProvider(t, tp, tp.Settings(), WithClock(clock))

		c, err := p.Exchange(ctx, TestAuthCode)
		require.NoError(err)
		assert.Equal(clock.Now(), c.TokenPair().ExpiresAt())
		assert.True(c.TokenPair().IsExpired(WithClock(clock)))
	})

	t.Run("tampered-refresh-token", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		tp := StartTestProvider(t)
		body, err := json.Marshal(map[string]any{
			"access_token":  tp.SignJWT(map[string]any{"iss": tp.Addr()}),
			"id_token":      tp.SignJWT(map[string]any{"iss": tp.Addr()}),
			"refresh_token": tamper(tp.SignJWT(map[string]any{"iss": tp.Addr()})),
			"expires_in":    "3600",
			"scope":         "openid",
		})
		require.NoError(err)
		tp.SetReply("/token", http.StatusOK, string(body))
		p := testNewProvider(t, tp, tp.Settings())

		c, err := p.Exchange(ctx, TestAuthCode)
		require.Error(err)
		assert.Nil(c)
		assert.ErrorIs(err, jwt.ErrInvalidSignature)
	})

	tests := []struct {
		name      string
		setup     func(tp *TestProvider)
		code      string
		wantIsErr error
		wantAs    bool
	}{
		{name: "empty-code", code: "", wantIsErr: ErrInvalidParameter},
		{name: "wrong-code", code: "nope", wantAs: true},
		{name: "issuer-mismatch", code: TestAuthCode, setup: func(tp *TestProvider) { tp.SetIssuer("https://other.example.com") }, wantIsErr: jwt.ErrInvalidIssuer},
		{name: "algorithm-not-allowed", code: TestAuthCode, setup: func(tp *TestProvider) { tp.SetSigningAlgs("RS256") }, wantIsErr: jwt.ErrUnsupportedAlgorithm},
		{name: "unknown-scope", code: TestAuthCode, setup: func(tp *TestProvider) { tp.SetScope("openid profile.shoesize") }, wantIsErr: ErrUnknownScope},
		{name: "missing-token-endpoint", code: TestAuthCode, setup: func(tp *TestProvider) { tp.OmitDiscoveryKey(KeyTokenEndpoint) }, wantIsErr: ErrMissingDiscoveryKey},
		{name: "missing-signing-algs", code: TestAuthCode, setup: func(tp *TestProvider) { tp.OmitDiscoveryKey(KeyTokenEndpointSigningAlgs) }, wantIsErr: ErrMissingDiscoveryKey},
		{name: "missing-access-token", code: TestAuthCode, setup: func(tp *TestProvider) { tp.SetReply("/token", http.StatusOK, `{"id_token":"x"}`) }, wantIsErr: ErrMalformedResponse},
		{name: "missing-id-token", code: TestAuthCode, setup: func(tp *TestProvider) { tp.SetReply("/token", http.StatusOK, `{"access_token":"x"}`) }, wantIsErr: ErrMissingIdToken},
		{name: "not-json", code: TestAuthCode, setup: func(tp *TestProvider) { tp.SetReply("/token", http.StatusOK, `<html>`) }, wantIsErr: ErrMalformedResponse},
		{name: "bad-expires-in", code: TestAuthCode, setup: func(tp *TestProvider) {
			tp.SetReply("/token", http.StatusOK, `{"access_token":"a","id_token":"i","expires_in":"soon"}`)
		}, wantIsErr: ErrMalformedResponse},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert, require := assert.New(t), require.New(t)
			tp := StartTestProvider(t)
			if tt.setup != nil {
				tt.setup(tp)
			}
			p := testNewProvider(t, tp, tp.Settings())
			c, err := p.Exchange(ctx, tt.code)
			require.Error(err)
			assert.Nil(c)
			if tt.wantIsErr != nil {
				assert.ErrorIs(err, tt.wantIsErr)
			}
			if tt.wantAs {
				var netErr *NetworkError
				require.ErrorAs(err, &netErr)
				assert.Equal(http.StatusBadRequest, netErr.StatusCode)
				assert.Contains(netErr.Body, "invalid_grant")
			}
		})
	}
}

func TestProvider_Refresh(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		tp := StartTestProvider(t)
		tp.SetScope("openid offline_access")
		p := testNewProvider(t, tp, tp.Settings())

		old, err := p.Exchange(ctx, TestAuthCode)
		require.NoError(err)
		refreshed, err := p.Refresh(ctx, old)
		require.NoError(err)

		assert.NotEqual(old.TokenPair().AccessToken(), refreshed.TokenPair().AccessToken())
		assert.Equal(old.TokenPair().Scope(), refreshed.TokenPair().Scope())
		form := tp.LastForm("/token")
		assert.Equal(GrantTypeRefreshToken, form.Get(ParamGrantType))
		assert.Equal("openid offline_access", form.Get(ParamScope))
		assert.Equal(string(old.TokenPair().RefreshToken()), form.Get(ParamRefreshToken))
		assert.Equal(TestRedirectURI, form.Get(ParamRedirectURI))
		assert.Equal(TestClientSecret, form.Get(ParamClientSecret))
		assert.Equal(2, tp.Requests("/token"))
	})

	t.Run("without-refresh-token", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		tp := StartTestProvider(t)
		tp.IssueRefreshTokens(false)
		p := testNewProvider(t, tp, tp.Settings())
		old, err := p.Exchange(ctx, TestAuthCode)
		require.NoError(err)

		_, err = p.Refresh(ctx, old)
		assert.ErrorIs(err, ErrMissingRefreshToken)
		assert.Equal(1, tp.Requests("/token"))
	})

	t.Run("rejected", func(t *testing.T) {
		require := require.New(t)
		tp := StartTestProvider(t)
		p := testNewProvider(t, tp, tp.Settings())
		pair, err := NewTokenPair("a", "i", "openid", time.Now(), "stale-refresh-token")
		require.NoError(err)

		_, err = p.Refresh(ctx, p.ClientFromTokenPair(pair))
		var netErr *NetworkError
		require.ErrorAs(err, &netErr)
		require.Equal(http.StatusBadRequest, netErr.StatusCode)
	})

	t.Run("nil-client", func(t *testing.T) {
		tp := StartTestProvider(t)
		p := testNewProvider(t, tp, tp.Settings())
		_, err := p.Refresh(ctx, nil)
		assert.ErrorIs(t, err, ErrNilParameter)
	})
}

func TestProvider_Notifications(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tp := StartTestProvider(t)
	other := TestGenerateSigningKey(t, TestSigningAlg, TestSigningKeyID)

	t.Run("events", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		p := testNewProvider(t, tp, tp.Settings())
		token := tp.SignNotification([]any{
			map[string]any{
				"sub":                 TestSubject,
				"original_event_at":   1690000000,
				"affected_claims":     []string{"given_name", "family_name"},
				"type":                "claims_updated",
				"affected_client_ids": []string{TestClientID},
			},
			map[string]any{
				"sub":                 "another",
				"original_event_at":   "2023-07-22T04:26:40Z",
				"affected_claims":     []string{},
				"type":                "deleted_account",
				"affected_client_ids": []string{},
			},
		})
		events, err := p.Notifications(ctx, token)
		require.NoError(err)
		require.Len(events, 2)
		assert.Equal(Event{
			Sub:               TestSubject,
			OriginalEventAt:   "1690000000",
			AffectedClaims:    []string{"given_name", "family_name"},
			Type:              "claims_updated",
			AffectedClientIDs: []string{TestClientID},
		}, events[0])
		assert.Equal("2023-07-22T04:26:40Z", events[1].OriginalEventAt)
		assert.Equal("deleted_account", events[1].Type)
	})

	tests := []struct {
		name       string
		token      func() string
		wantIsErr  error
		wantLogic  bool
		wantLength int
	}{
		{name: "empty-array", token: func() string { return tp.SignNotification([]any{}) }},
		{name: "missing-events", token: func() string { return tp.SignJWT(map[string]any{"iss": tp.Addr()}) }, wantIsErr: ErrMalformedNotification, wantLogic: true},
		{name: "events-not-array", token: func() string { return tp.SignNotification(map[string]any{"sub": "x"}) }, wantIsErr: ErrMalformedNotification, wantLogic: true},
		{name: "events-null", token: func() string { return tp.SignNotification(nil) }, wantIsErr: ErrMalformedNotification, wantLogic: true},
		{name: "event-not-object", token: func() string { return tp.SignNotification([]any{"x"}) }, wantIsErr: ErrMalformedNotification, wantLogic: true},
		{name: "tampered", token: func() string { return tamper(tp.SignNotification([]any{})) }, wantIsErr: jwt.ErrInvalidSignature},
		{
			name: "foreign-key",
			token: func() string {
				return TestSignJWT(t, other, map[string]any{"iss": tp.Addr(), "events": []any{}})
			},
			wantIsErr: ErrTokenInvalid,
		},
		{
			name: "wrong-issuer",
			token: func() string {
				return tp.SignJWT(map[string]any{"iss": "https://evil.example.com", "events": []any{}})
			},
			wantIsErr: jwt.ErrInvalidIssuer,
		},
		{name: "garbage", token: func() string { return "not.a.jwt" }, wantIsErr: ErrTokenInvalid},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert, require := assert.New(t), require.New(t)
			p := testNewProvider(t, tp, tp.Settings())
			events, err := p.Notifications(ctx, tt.token())
			if tt.wantIsErr != nil {
				require.Error(err)
				assert.ErrorIs(err, tt.wantIsErr)
				assert.Equal(tt.wantLogic, IsLogicError(err))
				assert.Nil(events)
				return
			}
			require.NoError(err)
			assert.Len(events, tt.wantLength)
		})
	}
}

func TestProvider_Verify(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	ctx := context.Background()
	tp := StartTestProvider(t)
	p := testNewProvider(t, tp, tp.Settings())

	tok, err := p.Verify(ctx, tp.SignJWT(map[string]any{"iss": tp.Addr(), "sub": TestSubject}))
	require.NoError(err)
	assert.Equal(TestSubject, tok.Subject())
	assert.Equal(jwt.Alg(TestSigningAlg), tok.Header.Algorithm)
	assert.Equal(TestSigningKeyID, tok.Header.KeyID)

	_, err = p.Verify(ctx, "")
	assert.ErrorIs(err, jwt.ErrInvalidParameter)
}
