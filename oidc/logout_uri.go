// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"fmt"
	"net/url"
	"strings"
)

// LogoutRequest is everything the browser needs to end the provider session,
// usually submitted as a form POST to URI.
type LogoutRequest struct {
	URI                   string
	IDTokenHint           string
	PostLogoutRedirectURI string
	SessionState          string
}

// FormValues returns the request as form fields.
func (r LogoutRequest) FormValues() url.Values {
	return url.Values{
		"id_token_hint":            {r.IDTokenHint},
		"post_logout_redirect_uri": {r.PostLogoutRedirectURI},
		"state":                    {r.SessionState},
	}
}

// RedirectURL returns the request as a GET URL.
func (r LogoutRequest) RedirectURL() string {
	return r.URI + "?" + r.FormValues().Encode()
}

// LogoutURIBuilder composes a LogoutRequest. The session state is generated
// once when the builder is created.
type LogoutURIBuilder struct {
	endpoint              string
	idToken               string
	postLogoutRedirectURI string
	sessionState          string
}

// NewLogoutURIBuilder creates a builder for {baseURI}/logout.
// Supported options:
//   - WithState
//   - WithRandomStringGenerator
//   - WithEndpoint
func NewLogoutURIBuilder(baseURI, idToken, postLogoutRedirectURI string, opt ...Option) (LogoutURIBuilder, error) {
	const op = "oidc.NewLogoutURIBuilder"
	if baseURI == "" {
		return LogoutURIBuilder{}, fmt.Errorf("%s: missing base URI: %w", op, ErrInvalidParameter)
	}
	opts := getBuilderOpts(opt...)
	state, err := builderState(op, opts)
	if err != nil {
		return LogoutURIBuilder{}, err
	}
	endpoint := opts.withEndpoint
	if endpoint == "" {
		endpoint = strings.TrimRight(baseURI, "/") + "/logout"
	}
	return LogoutURIBuilder{
		endpoint:              endpoint,
		idToken:               idToken,
		postLogoutRedirectURI: postLogoutRedirectURI,
		sessionState:          state,
	}, nil
}

// SessionState returns the frozen session state.
func (b LogoutURIBuilder) SessionState() string { return b.sessionState }

// LogoutRequest returns the request value.
func (b LogoutURIBuilder) LogoutRequest() LogoutRequest {
	return LogoutRequest{
		URI:                   b.endpoint,
		IDTokenHint:           b.idToken,
		PostLogoutRedirectURI: b.postLogoutRedirectURI,
		SessionState:          b.sessionState,
	}
}
