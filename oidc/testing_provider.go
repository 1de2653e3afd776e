// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"bytes"
	"encoding/json"
	"encoding/pem"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-jose/go-jose/v4"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/bankid-cz/bankid-go/oidc/clientassertion"
)

// Defaults used by TestProvider.
const (
	TestClientID          = "test-client-id"
	TestClientSecret      = "test-client-secret"
	TestRedirectURI       = "https://rp.example.com/callback"
	TestLogoutRedirectURI = "https://rp.example.com/logged-out"
	TestAuthCode          = "test-auth-code"
	TestSubject           = "25f2fd0c-4acb-4b02-9e2b-8ff5c4b6e12c"
	TestSigningKeyID      = "test-signing-key"
	TestSigningAlg        = "PS512"
)

type testReply struct {
	status int
	body   string
}

// TestProvider is a local TLS server imitating the BankID endpoints: discovery,
// jwks, token, userinfo, profile and token-info. Tokens it issues are signed
// with its own key and verify against its key set.
type TestProvider struct {
	httpServer *httptest.Server
	caCert     string
	signingKey *jose.JSONWebKey

	mu               sync.Mutex
	issuer           string
	algs             []string
	omitted          map[string]bool
	overrides        map[string]any
	clientID         string
	clientSecret     string
	clientKey        *jose.JSONWebKey
	expectedAuthCode string
	scope            string
	expiresIn        int
	issueRefresh     bool
	accessToken      string
	refreshToken     string
	issuedAt         time.Time
	userinfo         map[string]any
	profile          map[string]any
	replies          map[string]testReply
	requests         map[string]int
	forms            map[string]url.Values

	t *testing.T
}

// StartTestProvider creates a disposable TestProvider. It is stopped when the
// test completes.
func StartTestProvider(t *testing.T) *TestProvider {
	t.Helper()
	require := require.New(t)

	p := &TestProvider{
		signingKey:       TestGenerateSigningKey(t, TestSigningAlg, TestSigningKeyID),
		algs:             []string{TestSigningAlg},
		omitted:          map[string]bool{},
		overrides:        map[string]any{},
		clientID:         TestClientID,
		clientSecret:     TestClientSecret,
		expectedAuthCode: TestAuthCode,
		scope:            string(ScopeOpenID),
		expiresIn:        3600,
		issueRefresh:     true,
		userinfo: map[string]any{
			"sub":         TestSubject,
			"txn":         "6941683f-c6ee-410c-add0-d52d63091069",
			"name":        "Jan Novák",
			"given_name":  "Jan",
			"family_name": "Novák",
			"email":       "j.novak@email.com",
			"verified_claims": map[string]any{
				"verification": map[string]any{
					"trust_framework":      "cz_aml",
					"verification_process": "45244782",
				},
				"claims": map[string]any{"given_name": "Jan"},
			},
		},
		profile: map[string]any{
			"sub":         TestSubject,
			"txn":         "6941683f-c6ee-410c-add0-d52d63091069",
			"given_name":  "Jan",
			"family_name": "Novák",
			"birthnumber": "1010101010",
			"age":         34,
			"majority":    true,
			"addresses": []any{
				map[string]any{"type": "PERMANENT_RESIDENCE", "city": "Praha", "zipcode": "12000"},
			},
			"idcards": []any{
				map[string]any{"type": "ID", "country": "CZ", "number": "123456789", "valid_to": "2030-05-01"},
			},
			"verified_claims": map[string]any{
				"claims": map[string]any{},
			},
		},
		replies:  map[string]testReply{},
		requests: map[string]int{},
		forms:    map[string]url.Values{},
		t:        t,
	}

	r := chi.NewRouter()
	r.Use(p.intercept)
	r.Get("/.well-known/openid-configuration", p.handleDiscovery)
	r.Get("/.well-known/jwks", p.handleJWKS)
	r.Post("/token", p.handleToken)
	r.Get("/userinfo", p.handleResource(func() map[string]any { return p.userinfo }))
	r.Get("/profile", p.handleResource(func() map[string]any { return p.profile }))
	r.Post("/token-info", p.handleTokenInfo)

	p.httpServer = httptest.NewUnstartedServer(r)
	p.httpServer.Config.ErrorLog = log.New(io.Discard, "", 0)
	p.httpServer.StartTLS()
	t.Cleanup(p.httpServer.Close)

	var buf bytes.Buffer
	err := pem.Encode(&buf, &pem.Block{Type: "CERTIFICATE", Bytes: p.httpServer.Certificate().Raw})
	require.NoError(err)
	p.caCert = buf.String()
	return p
}

// Stop stops the running TestProvider.
func (p *TestProvider) Stop() { p.httpServer.Close() }

// Addr returns the provider's base URI.
func (p *TestProvider) Addr() string { return p.httpServer.URL }

// CACert returns the PEM encoded CA cert of the provider's TLS listener.
func (p *TestProvider) CACert() string { return p.caCert }

// HTTPClient returns a client trusting the provider's TLS cert.
func (p *TestProvider) HTTPClient() *http.Client { return p.httpServer.Client() }

// SigningKey returns the provider's private signing key.
func (p *TestProvider) SigningKey() *jose.JSONWebKey { return p.signingKey }

// Settings returns valid settings pointing at the provider.
func (p *TestProvider) Settings(opt ...Option) *Settings {
	p.t.Helper()
	s, err := NewSettings(p.Addr(), p.clientID, ClientSecret(p.clientSecret), TestRedirectURI, TestLogoutRedirectURI, opt...)
	require.NoError(p.t, err)
	return s
}

// SetIssuer overrides the issuer advertised in discovery. Issued tokens keep
// using the provider's address.
func (p *TestProvider) SetIssuer(issuer string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.issuer = issuer
}

// SetSigningAlgs sets the advertised token signing algorithms.
func (p *TestProvider) SetSigningAlgs(algs ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.algs = algs
}

// SetDiscoveryValue advertises value for key in the discovery document, e.g.
// an endpoint outside the default paths.
func (p *TestProvider) SetDiscoveryValue(key string, value any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.overrides[key] = value
}

// OmitDiscoveryKey removes key from the discovery document.
func (p *TestProvider) OmitDiscoveryKey(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.omitted[key] = true
}

// SetClientCreds sets the accepted client id and secret.
func (p *TestProvider) SetClientCreds(clientID, clientSecret string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clientID = clientID
	p.clientSecret = clientSecret
}

// SetClientKey registers the public key used to verify own-key assertions.
func (p *TestProvider) SetClientKey(k *jose.JSONWebKey) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clientKey = k
}

// SetExpectedAuthCode sets the authorization code accepted by /token.
func (p *TestProvider) SetExpectedAuthCode(code string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.expectedAuthCode = code
}

// SetScope sets the granted scope string.
func (p *TestProvider) SetScope(scope string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scope = scope
}

// SetExpiresIn sets the expires_in of issued tokens in seconds.
func (p *TestProvider) SetExpiresIn(secs int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.expiresIn = secs
}

// IssueRefreshTokens controls whether /token returns a refresh token.
func (p *TestProvider) IssueRefreshTokens(issue bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.issueRefresh = issue
}

// SetUserInfo replaces the userinfo reply.
func (p *TestProvider) SetUserInfo(claims map[string]any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.userinfo = claims
}

// SetProfile replaces the profile reply.
func (p *TestProvider) SetProfile(claims map[string]any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.profile = claims
}

// SetReply makes path answer with status and body regardless of the request.
func (p *TestProvider) SetReply(path string, status int, body string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.replies[path] = testReply{status: status, body: body}
}

// ClearReply removes a reply set with SetReply.
func (p *TestProvider) ClearReply(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.replies, path)
}

// Requests returns how many requests path received.
func (p *TestProvider) Requests(path string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requests[path]
}

// LastForm returns the form of the last POST to path.
func (p *TestProvider) LastForm(path string) url.Values {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.forms[path]
}

// IssuedTokens returns the last issued access and refresh tokens.
func (p *TestProvider) IssuedTokens() (access, refresh string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.accessToken, p.refreshToken
}

// SignJWT signs claims with the provider's key.
func (p *TestProvider) SignJWT(claims map[string]any) string {
	p.t.Helper()
	return TestSignJWT(p.t, p.signingKey, claims)
}

// SignNotification returns a notification token carrying events.
func (p *TestProvider) SignNotification(events any) string {
	p.t.Helper()
	return p.SignJWT(map[string]any{
		"iss":    p.Addr(),
		"iat":    time.Now().Unix(),
		"events": events,
	})
}

func (p *TestProvider) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method == http.MethodPost {
			_ = req.ParseForm()
		}
		p.mu.Lock()
		p.requests[req.URL.Path]++
		if req.Method == http.MethodPost {
			p.forms[req.URL.Path] = cloneValues(req.PostForm)
		}
		reply, ok := p.replies[req.URL.Path]
		p.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if ok {
			w.WriteHeader(reply.status)
			_, _ = io.WriteString(w, reply.body)
			return
		}
		next.ServeHTTP(w, req)
	})
}

func (p *TestProvider) handleDiscovery(w http.ResponseWriter, _ *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	issuer := p.issuer
	if issuer == "" {
		issuer = p.Addr()
	}
	doc := map[string]any{
		KeyIssuer:                   issuer,
		KeyAuthorizationEndpoint:    p.Addr() + "/auth",
		KeyTokenEndpoint:            p.Addr() + "/token",
		KeyTokenEndpointSigningAlgs: p.algs,
		KeyUserinfoEndpoint:         p.Addr() + "/userinfo",
		KeyIntrospectionEndpoint:    p.Addr() + "/token-info",
		KeyEndSessionEndpoint:       p.Addr() + "/logout",
		KeyJWKSURI:                  p.Addr() + "/.well-known/jwks",
		KeyProfileEndpoint:          p.Addr() + "/profile",
		KeyROSEndpoint:              p.Addr() + "/ros",
	}
	for k, v := range p.overrides {
		doc[k] = v
	}
	for k := range p.omitted {
		delete(doc, k)
	}
	p.writeJSON(w, http.StatusOK, doc)
}

func (p *TestProvider) handleJWKS(w http.ResponseWriter, _ *http.Request) {
	p.writeJSON(w, http.StatusOK, jose.JSONWebKeySet{Keys: []jose.JSONWebKey{p.signingKey.Public()}})
}

func (p *TestProvider) handleToken(w http.ResponseWriter, req *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.authenticateClient(req.PostForm); err != nil {
		p.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_client", "error_description": err.Error()})
		return
	}
	switch req.PostForm.Get(ParamGrantType) {
	case GrantTypeAuthorizationCode:
		if req.PostForm.Get(ParamCode) != p.expectedAuthCode {
			p.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
			return
		}
		if req.PostForm.Get(ParamRedirectURI) == "" {
			p.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request"})
			return
		}
	case GrantTypeRefreshToken:
		if p.refreshToken == "" || req.PostForm.Get(ParamRefreshToken) != p.refreshToken {
			p.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
			return
		}
	default:
		p.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported_grant_type"})
		return
	}

	now := time.Now()
	claims := func(use string, lifetime time.Duration) map[string]any {
		jti, _ := NewId()
		return map[string]any{
			"iss":       p.Addr(),
			"sub":       TestSubject,
			"aud":       p.clientID,
			"iat":       now.Unix(),
			"exp":       now.Add(lifetime).Unix(),
			"jti":       jti,
			"token_use": use,
		}
	}
	lifetime := time.Duration(p.expiresIn) * time.Second
	p.accessToken = TestSignJWT(p.t, p.signingKey, claims("access", lifetime))
	p.issuedAt = now
	reply := map[string]any{
		"access_token": p.accessToken,
		"id_token":     TestSignJWT(p.t, p.signingKey, claims("id", lifetime)),
		"token_type":   "Bearer",
		"expires_in":   p.expiresIn,
		"scope":        p.scope,
	}
	p.refreshToken = ""
	if p.issueRefresh {
		p.refreshToken = TestSignJWT(p.t, p.signingKey, claims("refresh", 30*24*time.Hour))
		reply["refresh_token"] = p.refreshToken
	}
	p.writeJSON(w, http.StatusOK, reply)
}

func (p *TestProvider) handleResource(claims func() map[string]any) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		p.mu.Lock()
		defer p.mu.Unlock()
		if !p.bearerValid(req) {
			p.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_token"})
			return
		}
		p.writeJSON(w, http.StatusOK, claims())
	}
}

func (p *TestProvider) handleTokenInfo(w http.ResponseWriter, req *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.bearerValid(req) {
		p.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_token"})
		return
	}
	if err := p.authenticateClient(req.PostForm); err != nil {
		p.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_client"})
		return
	}
	p.writeJSON(w, http.StatusOK, map[string]any{
		"active":     req.PostForm.Get(ParamToken) == p.accessToken,
		"scope":      p.scope,
		"client_id":  p.clientID,
		"token_type": "Bearer",
		"exp":        p.issuedAt.Add(time.Duration(p.expiresIn) * time.Second).Unix(),
		"iat":        p.issuedAt.Unix(),
		"sub":        TestSubject,
		"iss":        p.Addr(),
	})
}

func (p *TestProvider) bearerValid(req *http.Request) bool {
	return p.accessToken != "" && req.Header.Get("Authorization") == "Bearer "+p.accessToken
}

// authenticateClient accepts either the client secret or a client assertion
// signed with the secret or the registered client key.
func (p *TestProvider) authenticateClient(form url.Values) error {
	assertion := form.Get(ParamClientAssertion)
	if assertion == "" {
		if form.Get(ParamClientID) != p.clientID || form.Get(ParamClientSecret) != p.clientSecret {
			return errors.New("bad client credentials")
		}
		return nil
	}
	if form.Get(ParamClientAssertionType) != clientassertion.JWTTypeParam {
		return errors.New("bad client assertion type")
	}
	_, err := gojwt.Parse(assertion, func(tok *gojwt.Token) (any, error) {
		if _, ok := tok.Method.(*gojwt.SigningMethodHMAC); ok {
			return []byte(p.clientSecret), nil
		}
		if p.clientKey == nil {
			return nil, errors.New("no client key registered")
		}
		return p.clientKey.Public().Key, nil
	},
		gojwt.WithIssuer(p.clientID),
		gojwt.WithSubject(p.clientID),
		gojwt.WithAudience(p.Addr()+"/token"),
	)
	return err
}

func (p *TestProvider) writeJSON(w http.ResponseWriter, status int, out any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(out)
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vs := range v {
		out[k] = append([]string(nil), vs...)
	}
	return out
}
