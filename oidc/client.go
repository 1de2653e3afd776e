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
	"strings"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/oauth2"
)

// Client calls the provider's protected resources on behalf of a user,
// authenticated with the verified token pair it holds. A 401 from any
// resource is returned as *AuthenticationError.
type Client struct {
	tokens      *TokenPair
	config      *ConfigurationProvider
	requestAuth *RequestAuthorizationFactory
	client      *http.Client
	logger      hclog.Logger
}

// TokenPair returns the verified tokens held by the client.
func (c *Client) TokenPair() *TokenPair { return c.tokens }

// UserInfo fetches the standard claims.
func (c *Client) UserInfo(ctx context.Context) (*UserInfo, error) {
	const op = "Client.UserInfo"
	endpoint, err := c.config.UserinfoEndpoint(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var ui UserInfo
	if err := c.getSubject(ctx, endpoint, &ui); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &ui, nil
}

// Profile fetches the extended claim set.
func (c *Client) Profile(ctx context.Context) (*Profile, error) {
	const op = "Client.Profile"
	endpoint, err := c.config.ProfileEndpoint(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var p Profile
	if err := c.getSubject(ctx, endpoint, &p); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &p, nil
}

// TokenInfo introspects the client's access token. Every call carries fresh
// client authentication.
func (c *Client) TokenInfo(ctx context.Context) (*TokenInfo, error) {
	const op = "Client.TokenInfo"
	endpoint, err := c.config.IntrospectionEndpoint(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	form, err := c.requestAuth.Create(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	form.Set(ParamToken, string(c.tokens.AccessToken()))
	body, err := c.send(ctx, http.MethodPost, endpoint, form)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var ti TokenInfo
	if err := json.Unmarshal(body, &ti); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrMalformedResponse, err)
	}
	return &ti, nil
}

func (c *Client) getSubject(ctx context.Context, endpoint string, v any) error {
	body, err := c.send(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	return decodeSubjectResponse(body, v)
}

// send issues an authenticated request. A non-nil form is sent as the body.
func (c *Client) send(ctx context.Context, method, endpoint string, form url.Values) ([]byte, error) {
	var reqBody io.Reader
	if form != nil {
		reqBody = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	body, status, err := do(c.bearerClient(), req)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		c.logger.Debug("resource request failed", "url", endpoint, "status", status)
		return nil, newResourceError(status, body)
	}
	return body, nil
}

func (c *Client) bearerClient() *http.Client {
	base := c.client.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	return &http.Client{
		Transport: &oauth2.Transport{
			Source: c.tokens.StaticTokenSource(),
			Base:   base,
		},
		Timeout: c.client.Timeout,
	}
}
