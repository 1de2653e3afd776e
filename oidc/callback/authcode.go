// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package callback

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hashicorp/go-hclog"
	"github.com/jonboulle/clockwork"

	"github.com/bankid-cz/bankid-go/oidc"
)

// AuthCode creates an authorization code callback handler. It looks up the
// pending Request by the response's "state", checks it, and exchanges the
// code for a verified client, passing the request's PKCE verifier along.
//
// The SuccessResponseFunc is used to create a response when callback is
// successful. The ErrorResponseFunc is to create a response when the callback
// fails.
func AuthCode(ctx context.Context, p *oidc.Provider, rr RequestReader, sFn SuccessResponseFunc, eFn ErrorResponseFunc, opt ...oidc.Option) (http.HandlerFunc, error) {
	const op = "callback.AuthCode"
	switch {
	case p == nil:
		return nil, fmt.Errorf("%s: provider is empty: %w", op, oidc.ErrInvalidParameter)
	case rr == nil:
		return nil, fmt.Errorf("%s: request reader is empty: %w", op, oidc.ErrInvalidParameter)
	case sFn == nil:
		return nil, fmt.Errorf("%s: success response func is empty: %w", op, oidc.ErrInvalidParameter)
	case eFn == nil:
		return nil, fmt.Errorf("%s: error response func is empty: %w", op, oidc.ErrInvalidParameter)
	}
	opts := getCallbackOpts(opt...)

	return func(w http.ResponseWriter, req *http.Request) {
		// FormValue prioritizes body values, if found
		reqState := req.FormValue("state")

		if err := req.FormValue("error"); err != "" {
			eFn(reqState, &AuthenErrorResponse{
				Error:       err,
				Description: req.FormValue("error_description"),
				Uri:         req.FormValue("error_uri"),
			}, nil, w, req)
			return
		}

		r, err := rr.Read(ctx, reqState)
		if err != nil {
			eFn(reqState, nil, fmt.Errorf("%s: unable to read login request: %w", op, err), w, req)
			return
		}
		if r == nil {
			eFn(reqState, nil, fmt.Errorf("%s: %w", op, ErrNotFound), w, req)
			return
		}
		if r.IsExpired(opts.withClock.Now()) {
			eFn(reqState, nil, fmt.Errorf("%s: %w", op, ErrExpiredRequest), w, req)
			return
		}
		if r.State != reqState {
			eFn(reqState, nil, fmt.Errorf("%s: %w", op, ErrStateMismatch), w, req)
			return
		}

		code := req.FormValue("code")
		if code == "" {
			eFn(reqState, nil, fmt.Errorf("%s: %w", op, ErrMissingCode), w, req)
			return
		}
		var exchangeOpts []oidc.Option
		if r.CodeVerifier != nil {
			exchangeOpts = append(exchangeOpts, oidc.WithCodeVerifier(r.CodeVerifier))
		}
		c, err := p.Exchange(ctx, code, exchangeOpts...)
		if err != nil {
			eFn(reqState, nil, fmt.Errorf("%s: unable to exchange authorization code: %w", op, err), w, req)
			return
		}
		sFn(reqState, c, w, req)
	}, nil
}

// callbackOptions is the set of available options for the handlers.
type callbackOptions struct {
	withClock  clockwork.Clock
	withLogger hclog.Logger
}

func callbackDefaults() callbackOptions {
	return callbackOptions{
		withClock:  clockwork.NewRealClock(),
		withLogger: hclog.NewNullLogger(),
	}
}

func getCallbackOpts(opt ...oidc.Option) callbackOptions {
	opts := callbackDefaults()
	oidc.ApplyOpts(&opts, opt...)
	return opts
}

// WithClock sets the clock used to check request expiry.
func WithClock(c clockwork.Clock) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*callbackOptions); ok && c != nil {
			o.withClock = c
		}
	}
}

// WithLogger sets the logger for failed notifications.
func WithLogger(l hclog.Logger) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*callbackOptions); ok && l != nil {
			o.withLogger = l
		}
	}
}
