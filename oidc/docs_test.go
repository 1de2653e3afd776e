// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc_test

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bankid-cz/bankid-go/oidc"
)

func ExampleNewSettings() {
	s, err := oidc.NewSettings(
		"https://oidc.sandbox.bankid.cz",
		"your_client_id",
		"your_client_secret",
		"https://your-app.example.com/callback",
		"https://your-app.example.com/logged-out",
		oidc.WithAuthStrategy(oidc.SignedWithProviderSecret),
	)
	if err != nil {
		// handle error
	}
	fmt.Println(s.AuthStrategy)

	// Output:
	// signed_with_provider_secret
}

func ExampleNewAuthorizationURIBuilder() {
	// Keep the verifier and state in the user's session until the callback.
	verifier, _ := oidc.NewCodeVerifier()
	b, err := oidc.NewAuthorizationURIBuilder(
		"https://oidc.sandbox.bankid.cz",
		"your_client_id",
		"https://your-app.example.com/callback",
		oidc.WithState("a-state-value"),
	)
	if err != nil {
		// handle error
	}
	b = b.WithScope(oidc.ScopeOpenID, oidc.ScopeName, oidc.ScopeEmail).
		WithCodeVerifier(verifier)
	fmt.Println(b.State())
	fmt.Println(b.Scopes())

	// Output:
	// a-state-value
	// [openid profile.name profile.email]
}

func ExampleProvider_Exchange() {
	ctx := context.Background()
	s, _ := oidc.NewSettings(
		"https://oidc.sandbox.bankid.cz",
		"your_client_id",
		"your_client_secret",
		"https://your-app.example.com/callback",
		"https://your-app.example.com/logged-out",
	)
	p, _ := oidc.NewProvider(s)

	callback := func(w http.ResponseWriter, r *http.Request) {
		// compare r.FormValue("state") with the state in the session first
		c, err := p.Exchange(ctx, r.FormValue("code"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		ui, err := c.UserInfo(ctx)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		stored, _ := c.TokenPair().Encode()
		_ = stored // save in the session
		fmt.Fprintf(w, "hello %s", ui.Sub)
	}
	http.HandleFunc("/callback", callback)
}

func ExampleProvider_Notifications() {
	ctx := context.Background()
	s, _ := oidc.NewSettings(
		"https://oidc.sandbox.bankid.cz",
		"your_client_id",
		"your_client_secret",
		"https://your-app.example.com/callback",
		"https://your-app.example.com/logged-out",
	)
	p, _ := oidc.NewProvider(s)

	http.HandleFunc("/notifications", func(w http.ResponseWriter, r *http.Request) {
		events, err := p.Notifications(ctx, r.FormValue("token"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for _, e := range events {
			fmt.Println(e.Type, e.Sub)
		}
	})
}

func ExampleNewLogoutURIBuilder() {
	b, err := oidc.NewLogoutURIBuilder(
		"https://oidc.sandbox.bankid.cz",
		"the-id-token",
		"https://your-app.example.com/logged-out",
		oidc.WithState("a-state-value"),
	)
	if err != nil {
		// handle error
	}
	fmt.Println(b.LogoutRequest().RedirectURL())

	// Output:
	// https://oidc.sandbox.bankid.cz/logout?id_token_hint=the-id-token&post_logout_redirect_uri=https%3A%2F%2Fyour-app.example.com%2Flogged-out&state=a-state-value
}
