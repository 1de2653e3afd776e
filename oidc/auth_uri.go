// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"fmt"
	"strings"
)

// AuthorizationURIBuilder composes the authorization redirect. It is a value
// type: every With method returns a modified copy carrying the same state,
// so the state can be persisted before the final URI is built.
type AuthorizationURIBuilder struct {
	endpoint            string
	clientID            string
	redirectURI         string
	responseType        ResponseType
	codeChallengeMethod CodeChallengeMethod
	codeChallenge       string
	acrValue            AcrValue
	scopes              []Scope
	state               string
}

// NewAuthorizationURIBuilder creates a builder for {baseURI}/auth with
// response type code, challenge method plain, acr loa2 and scope openid.
// Supported options:
//   - WithState
//   - WithRandomStringGenerator
//   - WithEndpoint
func NewAuthorizationURIBuilder(baseURI, clientID, redirectURI string, opt ...Option) (AuthorizationURIBuilder, error) {
	const op = "oidc.NewAuthorizationURIBuilder"
	switch {
	case baseURI == "":
		return AuthorizationURIBuilder{}, fmt.Errorf("%s: missing base URI: %w", op, ErrInvalidParameter)
	case clientID == "":
		return AuthorizationURIBuilder{}, fmt.Errorf("%s: missing client id: %w", op, ErrInvalidParameter)
	case redirectURI == "":
		return AuthorizationURIBuilder{}, fmt.Errorf("%s: missing redirect URI: %w", op, ErrInvalidParameter)
	}
	opts := getBuilderOpts(opt...)
	state, err := builderState(op, opts)
	if err != nil {
		return AuthorizationURIBuilder{}, err
	}
	endpoint := opts.withEndpoint
	if endpoint == "" {
		endpoint = strings.TrimRight(baseURI, "/") + "/auth"
	}
	return AuthorizationURIBuilder{
		endpoint:            endpoint,
		clientID:            clientID,
		redirectURI:         redirectURI,
		responseType:        ResponseTypeCode,
		codeChallengeMethod: CodeChallengePlain,
		acrValue:            AcrLoa2,
		scopes:              []Scope{ScopeOpenID},
		state:               state,
	}, nil
}

// WithScope replaces the requested scopes. openid is always requested first
// and duplicates are dropped.
func (b AuthorizationURIBuilder) WithScope(scopes ...Scope) AuthorizationURIBuilder {
	out := make([]Scope, 0, len(scopes)+1)
	seen := map[Scope]bool{ScopeOpenID: true}
	out = append(out, ScopeOpenID)
	for _, s := range scopes {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	b.scopes = out
	return b
}

// WithResponseType returns a copy requesting rt.
func (b AuthorizationURIBuilder) WithResponseType(rt ResponseType) AuthorizationURIBuilder {
	b.responseType = rt
	return b
}

// WithCodeChallengeMethod returns a copy using m.
func (b AuthorizationURIBuilder) WithCodeChallengeMethod(m CodeChallengeMethod) AuthorizationURIBuilder {
	b.codeChallengeMethod = m
	return b
}

// WithCodeVerifier returns a copy sending v's challenge and method.
func (b AuthorizationURIBuilder) WithCodeVerifier(v *CodeVerifier) AuthorizationURIBuilder {
	if v == nil {
		return b
	}
	b.codeChallengeMethod = v.Method()
	b.codeChallenge = v.Challenge()
	return b
}

// WithAcrValue returns a copy requesting acr.
func (b AuthorizationURIBuilder) WithAcrValue(acr AcrValue) AuthorizationURIBuilder {
	b.acrValue = acr
	return b
}

// State returns the state to persist and compare on callback.
func (b AuthorizationURIBuilder) State() string { return b.state }

// Scopes returns a copy of the requested scopes.
func (b AuthorizationURIBuilder) Scopes() []Scope { return append([]Scope(nil), b.scopes...) }

// AuthorizationURI serializes the request. The parameter order is fixed.
func (b AuthorizationURIBuilder) AuthorizationURI() string {
	var q queryBuilder
	q.add(ParamApprovalPrompt, "auto")
	q.add(ParamScope, JoinScopes(b.scopes))
	q.add(ParamCodeChallengeMethod, string(b.codeChallengeMethod))
	q.add(ParamResponseType, string(b.responseType))
	q.add(ParamAcrValue, string(b.acrValue))
	q.add(ParamState, b.state)
	q.add(ParamClientID, b.clientID)
	q.add(ParamRedirectURI, b.redirectURI)
	if b.codeChallenge != "" {
		q.add(ParamCodeChallenge, b.codeChallenge)
	}
	return b.endpoint + "?" + q.String()
}
