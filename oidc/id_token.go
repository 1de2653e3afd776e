// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"context"
	"fmt"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"

	sdkHttp "github.com/bankid-cz/bankid-go/sdk/http"
)

// IDTokenClaims are the claims of a verified id_token.
type IDTokenClaims struct {
	Issuer    string         `json:"iss"`
	Subject   string         `json:"sub"`
	Audience  []string       `json:"aud"`
	IssuedAt  time.Time      `json:"iat"`
	ExpiresAt time.Time      `json:"exp"`
	Nonce     string         `json:"nonce,omitempty"`
	Claims    map[string]any `json:"-"`
}

// VerifyIDToken verifies an id_token as an OIDC ID token: signature against
// the provider's keys, issuer, an audience containing the client id and
// expiry against the provider's clock.
func (p *Provider) VerifyIDToken(ctx context.Context, idToken IdToken) (*IDTokenClaims, error) {
	const op = "Provider.VerifyIDToken"
	if idToken == "" {
		return nil, fmt.Errorf("%s: id_token is empty: %w", op, ErrInvalidParameter)
	}
	issuer, err := p.config.Issuer(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	algs, err := p.config.TokenEndpointSigningAlgs(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	verifier := oidc.NewVerifier(issuer, p.keySet, &oidc.Config{
		ClientID:             p.settings.ClientID,
		SupportedSigningAlgs: algs,
		Now:                  p.clock.Now,
	})

	// distributed claims are resolved with the provider's client
	tok, err := verifier.Verify(sdkHttp.ClientContext(ctx, p.client), string(idToken))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrTokenInvalid, err)
	}
	c := &IDTokenClaims{
		Issuer:    tok.Issuer,
		Subject:   tok.Subject,
		Audience:  tok.Audience,
		IssuedAt:  tok.IssuedAt,
		ExpiresAt: tok.Expiry,
		Nonce:     tok.Nonce,
	}
	if err := tok.Claims(&c.Claims); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrMalformedResponse, err)
	}
	return c, nil
}
