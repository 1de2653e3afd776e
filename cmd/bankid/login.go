// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"github.com/bankid-cz/bankid-go/oidc"
	"github.com/bankid-cz/bankid-go/oidc/callback"
)

const successHTML = `<!DOCTYPE html>
<html><body><p>Login successful. You can close this window.</p></body></html>
`

// loginResult is what login prints once the user is back.
type loginResult struct {
	Tokens    tokenSummary        `json:"tokens"`
	IDToken   *oidc.IDTokenClaims `json:"id_token"`
	TokenInfo *oidc.TokenInfo     `json:"token_info,omitempty"`
	UserInfo  *oidc.UserInfo      `json:"userinfo,omitempty"`
	Profile   *oidc.Profile       `json:"profile,omitempty"`
	Logout    oidc.LogoutRequest  `json:"logout"`
}

type tokenSummary struct {
	Scope           string    `json:"scope"`
	ExpiresAt       time.Time `json:"expires_at"`
	HasRefreshToken bool      `json:"has_refresh_token"`
}

func newLoginCmd(a *app) *cobra.Command {
	var (
		listen   string
		scopes   []string
		acr      string
		pkce     bool
		profile  bool
		timeout  time.Duration
		noNotify bool
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in through a local callback server",
		Long: `login prints the authorization URI to open in a browser and waits for the
provider to redirect back to --redirect-uri, served locally on --listen. The
code is exchanged for verified tokens, and the user's claims are printed as
JSON. While waiting, notification tokens POSTed to /notifications are
verified and printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer cancel()

			p, release, err := a.provider(ctx)
			if err != nil {
				return err
			}
			defer release()

			redirect, err := url.Parse(p.Settings().PostLoginRedirectURI)
			if err != nil {
				return err
			}
			if listen == "" {
				listen = redirect.Host
			}
			path := redirect.Path
			if path == "" {
				path = "/"
			}

			requested := make([]oidc.Scope, 0, len(scopes))
			for _, s := range scopes {
				sc, err := oidc.ParseScope(s)
				if err != nil {
					return err
				}
				requested = append(requested, sc)
			}
			level := oidc.AcrValue(acr)
			if level != oidc.AcrLoa2 && level != oidc.AcrLoa3 {
				return fmt.Errorf("unknown acr value %q", acr)
			}

			b, err := p.AuthURIBuilder(ctx)
			if err != nil {
				return err
			}
			b = b.WithScope(requested...).WithAcrValue(level)
			var verifier *oidc.CodeVerifier
			if pkce {
				if verifier, err = oidc.NewCodeVerifier(); err != nil {
					return err
				}
				b = b.WithCodeVerifier(verifier)
			}
			requests := callback.NewRequestCache(nil)
			requests.Add(callback.NewRequest(b, verifier, time.Now().Add(timeout)))

			successFn, successCh := success()
			errorFn, failedCh := failed()
			authHandler, err := callback.AuthCode(ctx, p, requests, successFn, errorFn)
			if err != nil {
				return err
			}
			r := chi.NewRouter()
			r.Get(path, authHandler)
			if !noNotify {
				notifyHandler, err := callback.Notifications(ctx, p, func(_ context.Context, events []oidc.Event) error {
					a.logger.Info("notification received", "events", len(events))
					return printJSON(a.out, events)
				}, callback.WithLogger(a.logger))
				if err != nil {
					return err
				}
				r.Post("/notifications", notifyHandler)
			}

			ln, err := net.Listen("tcp", listen)
			if err != nil {
				return err
			}
			srv := &http.Server{Handler: r, ReadHeaderTimeout: 10 * time.Second}
			srvCh := make(chan error, 1)
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					srvCh <- err
				}
			}()
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()

			authURI := b.AuthorizationURI()
			a.logger.Debug("waiting for callback", "addr", ln.Addr().String(), "path", path)
			fmt.Fprintf(a.errOut, "Complete the login in your browser:\n\n    %s\n\n", authURI)
			if a.onListen != nil {
				a.onListen(authURI, ln.Addr())
			}

			var c *oidc.Client
			select {
			case c = <-successCh:
			case err := <-failedCh:
				return err
			case err := <-srvCh:
				return fmt.Errorf("callback server failed: %w", err)
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(timeout):
				return errors.New("timed out waiting for the provider callback")
			}

			res, err := describe(ctx, p, c, profile)
			if err != nil {
				return err
			}
			return printJSON(a.out, res)
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&listen, "listen", "", "callback server address; defaults to the redirect URI host")
	fs.StringSliceVar(&scopes, "scope", []string{string(oidc.ScopeName), string(oidc.ScopeEmail)}, "scopes to request besides openid")
	fs.StringVar(&acr, "acr", string(oidc.AcrLoa2), "level of assurance: loa2 or loa3")
	fs.BoolVar(&pkce, "pkce", true, "send an S256 code challenge")
	fs.BoolVar(&profile, "profile", false, "also fetch the profile")
	fs.DurationVar(&timeout, "timeout", 2*time.Minute, "how long to wait for the callback")
	fs.BoolVar(&noNotify, "no-notifications", false, "do not serve /notifications while waiting")
	return cmd
}

// describe collects the claims of a freshly logged in user.
func describe(ctx context.Context, p *oidc.Provider, c *oidc.Client, withProfile bool) (*loginResult, error) {
	pair := c.TokenPair()
	res := &loginResult{
		Tokens: tokenSummary{
			Scope:           pair.ScopeString(),
			ExpiresAt:       pair.ExpiresAt(),
			HasRefreshToken: pair.HasRefreshToken(),
		},
	}
	var err error
	if res.IDToken, err = p.VerifyIDToken(ctx, pair.IdToken()); err != nil {
		return nil, err
	}
	if res.UserInfo, err = c.UserInfo(ctx); err != nil {
		return nil, err
	}
	if res.TokenInfo, err = c.TokenInfo(ctx); err != nil {
		return nil, err
	}
	if withProfile {
		if res.Profile, err = c.Profile(ctx); err != nil {
			return nil, err
		}
	}
	lb, err := p.LogoutURIBuilder(ctx, pair.IdToken())
	if err != nil {
		return nil, err
	}
	res.Logout = lb.LogoutRequest()
	return res, nil
}

func success() (callback.SuccessResponseFunc, <-chan *oidc.Client) {
	doneCh := make(chan *oidc.Client, 1)
	return func(_ string, c *oidc.Client, w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(successHTML))
		select {
		case doneCh <- c:
		default:
		}
	}, doneCh
}

func failed() (callback.ErrorResponseFunc, <-chan error) {
	doneCh := make(chan error, 1)
	return func(_ string, r *callback.AuthenErrorResponse, e error, w http.ResponseWriter, _ *http.Request) {
		var responseErr error
		switch {
		case e != nil:
			responseErr = e
			w.WriteHeader(http.StatusInternalServerError)
		case r != nil:
			responseErr = fmt.Errorf("provider returned %s: %s", r.Error, r.Description)
			w.WriteHeader(http.StatusUnauthorized)
		default:
			responseErr = errors.New("unknown error from callback")
			w.WriteHeader(http.StatusInternalServerError)
		}
		_, _ = w.Write([]byte(responseErr.Error()))
		select {
		case doneCh <- responseErr:
		default:
		}
	}, doneCh
}
