// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bankid-cz/bankid-go/jwt"
)

type jwksDocument struct {
	Keys []map[string]any `json:"keys"`
}

func parseJWKS(b []byte) ([]map[string]any, error) {
	var d jwksDocument
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if d.Keys == nil {
		return nil, fmt.Errorf("missing \"keys\" array: %w", ErrMalformedResponse)
	}
	return d.Keys, nil
}

// KeysProvider loads the provider's JWKS from {baseURI}/.well-known/jwks with
// the same caching rules as ConfigurationProvider.
type KeysProvider struct {
	doc *document[[]map[string]any]
}

var _ jwt.KeySource = (*KeysProvider)(nil)

// NewKeysProvider creates a KeysProvider.
// Supported options:
//   - WithHTTPClient
//   - WithCache
//   - WithLogger
func NewKeysProvider(baseURI string, opt ...Option) (*KeysProvider, error) {
	const op = "oidc.NewKeysProvider"
	baseURI = strings.TrimRight(baseURI, "/")
	if baseURI == "" {
		return nil, fmt.Errorf("%s: missing base URI: %w", op, ErrInvalidParameter)
	}
	opts := getDependencyOpts(opt...)
	opts.withLogger = opts.withLogger.Named("keys")
	return &KeysProvider{
		doc: newDocument(baseURI+"/.well-known/jwks", baseURI+"_keys", parseJWKS, opts),
	}, nil
}

// Keys returns the raw JWK records in document order.
func (p *KeysProvider) Keys(ctx context.Context) ([]map[string]any, error) {
	const op = "KeysProvider.Keys"
	keys, err := p.doc.get(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return append([]map[string]any(nil), keys...), nil
}
