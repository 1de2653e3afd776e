// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/bankid-cz/bankid-go/oidc/clientassertion"
)

// ErrLogic classifies programming and configuration errors. They are never
// recoverable at runtime.
var ErrLogic = errors.New("logic error")

var (
	ErrInvalidParameter           = errors.New("invalid parameter")
	ErrNilParameter               = errors.New("nil parameter")
	ErrInvalidCACert              = errors.New("invalid CA certificate")
	ErrIdGeneratorFailed          = errors.New("id generation failed")
	ErrMalformedResponse          = errors.New("malformed provider response")
	ErrMissingAccessToken         = errors.New("access_token is missing")
	ErrMissingIdToken             = errors.New("id_token is missing")
	ErrMissingRefreshToken        = errors.New("refresh_token is missing")
	ErrTokenInvalid               = errors.New("token failed validation")
	ErrUnsupportedKey             = errors.New("unsupported key parameters")
	ErrUnsupportedChallengeMethod = errors.New("unsupported PKCE challenge method")

	ErrMissingDiscoveryKey   = fmt.Errorf("missing discovery key: %w", ErrLogic)
	ErrMalformedNotification = fmt.Errorf("notification token does not contain events: %w", ErrLogic)
	ErrUnknownScope          = fmt.Errorf("unknown scope: %w", ErrLogic)

	ErrAssertionNotNeeded = clientassertion.ErrAssertionNotNeeded
	ErrMissingSigningKey  = clientassertion.ErrMissingSigningKey
)

// NetworkError is returned for any non-200 response from the provider.
type NetworkError struct {
	StatusCode int
	Body       string
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("unexpected status %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// AuthenticationError is a 401 from a protected resource. The access token is
// expired or revoked; refresh the client or log the user in again.
type AuthenticationError struct {
	*NetworkError
}

func (e *AuthenticationError) Error() string {
	return "authentication failed: " + e.NetworkError.Error()
}

// Unwrap allows errors.As(err, **NetworkError) to match.
func (e *AuthenticationError) Unwrap() error { return e.NetworkError }

// IsLogicError reports whether err is a configuration or programming error,
// including assertion strategy misuse.
func IsLogicError(err error) bool {
	return errors.Is(err, ErrLogic) ||
		errors.Is(err, clientassertion.ErrAssertionNotNeeded) ||
		errors.Is(err, clientassertion.ErrMissingSigningKey)
}

func newNetworkError(status int, body []byte) *NetworkError {
	return &NetworkError{StatusCode: status, Body: string(body)}
}

// newResourceError maps a protected resource response to an error.
func newResourceError(status int, body []byte) error {
	ne := newNetworkError(status, body)
	if status == http.StatusUnauthorized {
		return &AuthenticationError{NetworkError: ne}
	}
	return ne
}
