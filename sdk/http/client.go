// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package http builds the pooled client used to reach the identity provider.
package http

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/hashicorp/go-cleanhttp"
)

// DefaultTimeout bounds every request made by a client from NewClient.
const DefaultTimeout = 30 * time.Second

var ErrInvalidCertificatePem = errors.New("invalid certificate PEM")

// NewClient creates a new http client which will use the optional CA
// certificate PEM if provided, otherwise it will use the installed system CA
// chain.
func NewClient(caPEM string) (*http.Client, error) {
	tr := cleanhttp.DefaultPooledTransport()

	if caPEM != "" {
		certPool := x509.NewCertPool()
		if ok := certPool.AppendCertsFromPEM([]byte(caPEM)); !ok {
			return nil, ErrInvalidCertificatePem
		}

		tr.TLSClientConfig = &tls.Config{
			RootCAs:    certPool,
			MinVersion: tls.VersionTLS12,
		}
	}

	return &http.Client{
		Transport: tr,
		Timeout:   DefaultTimeout,
	}, nil
}

// ClientContext returns a new Context that carries the provided HTTP client.
// It sets the same context key used by the github.com/coreos/go-oidc and
// golang.org/x/oauth2 packages.
func ClientContext(ctx context.Context, client *http.Client) context.Context {
	return oidc.ClientContext(ctx, client)
}
