// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package callback

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bankid-cz/bankid-go/oidc"
)

// NotificationTokenParam is the form field carrying the notification JWT.
const NotificationTokenParam = "notification_token"

// Notifications creates the handler for the provider's change notifications.
// The token is verified before fn sees its events. A token that fails
// verification or carries no events gets a 400, a provider whose discovery
// document or keys cannot be loaded a 502, a failing fn a 500, and success an
// empty 200.
func Notifications(ctx context.Context, p *oidc.Provider, fn EventsFunc, opt ...oidc.Option) (http.HandlerFunc, error) {
	const op = "callback.Notifications"
	switch {
	case p == nil:
		return nil, fmt.Errorf("%s: provider is empty: %w", op, oidc.ErrInvalidParameter)
	case fn == nil:
		return nil, fmt.Errorf("%s: events func is empty: %w", op, oidc.ErrInvalidParameter)
	}
	opts := getCallbackOpts(opt...)
	logger := opts.withLogger.Named("notifications")

	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		token := req.PostFormValue(NotificationTokenParam)
		if token == "" {
			logger.Warn("rejected notification", "error", ErrMissingToken)
			http.Error(w, ErrMissingToken.Error(), http.StatusBadRequest)
			return
		}
		events, err := p.Notifications(ctx, token)
		if err != nil {
			logger.Warn("rejected notification", "error", err)
			var status int
			switch {
			case errors.Is(err, oidc.ErrTokenInvalid), errors.Is(err, oidc.ErrMalformedNotification):
				status = http.StatusBadRequest
			case oidc.IsLogicError(err):
				status = http.StatusInternalServerError
			default:
				// the provider's keys or configuration could not be loaded
				status = http.StatusBadGateway
			}
			http.Error(w, http.StatusText(status), status)
			return
		}
		if err := fn(ctx, events); err != nil {
			logger.Error("unable to handle notification", "events", len(events), "error", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}, nil
}
