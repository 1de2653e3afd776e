// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package callback

import (
	"context"
	"net/http"

	"github.com/bankid-cz/bankid-go/oidc"
)

// SuccessResponseFunc is used by AuthCode to create a http response when the
// callback is successful.
//
// The state parameter is the state returned by the provider. The client holds
// the verified token pair of the logged in user. The function should use the
// http.ResponseWriter to send back whatever content it wishes to the browser
// that started the login.
type SuccessResponseFunc func(state string, c *oidc.Client, w http.ResponseWriter, req *http.Request)

// ErrorResponseFunc is used by AuthCode to create a http response when the
// callback fails.
//
// It receives either the provider's authentication error response or the error
// raised while processing the callback.
type ErrorResponseFunc func(state string, respErr *AuthenErrorResponse, e error, w http.ResponseWriter, req *http.Request)

// EventsFunc handles the events of a verified notification. An error results
// in a 500 so the provider retries the notification.
type EventsFunc func(ctx context.Context, events []oidc.Event) error

// AuthenErrorResponse represents Oauth2 error responses. See:
// https://openid.net/specs/openid-connect-core-1_0.html#AuthError
type AuthenErrorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
	Uri         string `json:"error_uri,omitempty"`
}
