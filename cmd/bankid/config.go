// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/go-jose/go-jose/v4"
	"gopkg.in/yaml.v3"

	"github.com/bankid-cz/bankid-go/cache"
	"github.com/bankid-cz/bankid-go/oidc"
)

// settings builds the relying party settings from flags, environment and
// config file.
func (a *app) settings() (*oidc.Settings, error) {
	const op = "app.settings"
	strategy, err := oidc.ParseAuthStrategy(a.v.GetString("auth-strategy"))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	opts := []oidc.Option{oidc.WithAuthStrategy(strategy)}
	if path := a.v.GetString("signing-key"); path != "" {
		k, err := readSigningKey(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		opts = append(opts, oidc.WithSigningKey(k))
	}
	if path := a.v.GetString("provider-ca"); path != "" {
		pem, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s: unable to read provider CA: %w", op, err)
		}
		opts = append(opts, oidc.WithProviderCA(string(pem)))
	}
	s, err := oidc.NewSettings(
		a.v.GetString("base-uri"),
		a.v.GetString("client-id"),
		oidc.ClientSecret(a.v.GetString("client-secret")),
		a.v.GetString("redirect-uri"),
		a.v.GetString("logout-redirect-uri"),
		opts...,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s, nil
}

// provider creates the provider and its cache. The returned func releases
// the cache.
func (a *app) provider(ctx context.Context) (*oidc.Provider, func(), error) {
	const op = "app.provider"
	s, err := a.settings()
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	var store cache.Store = cache.NewMemoryStore()
	release := func() {}
	if addr := a.v.GetString("redis-addr"); addr != "" {
		rs, err := cache.NewRedisStore(ctx, addr, a.v.GetString("redis-password"), a.v.GetInt("redis-db"))
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", op, err)
		}
		a.logger.Debug("using redis cache", "addr", addr)
		store = rs
		release = func() { _ = rs.Close() }
	}
	p, err := oidc.NewProvider(s, oidc.WithCache(store), oidc.WithLogger(a.logger))
	if err != nil {
		release()
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, release, nil
}

// readSigningKey reads a private JWK. JSON is read as YAML, so both formats
// written by keygen are accepted.
func readSigningKey(path string) (*jose.JSONWebKey, error) {
	const op = "readSigningKey"
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("%s: %s: %w", op, path, err)
	}
	j, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var k jose.JSONWebKey
	if err := k.UnmarshalJSON(j); err != nil {
		return nil, fmt.Errorf("%s: %s is not a JWK: %w", op, path, err)
	}
	return &k, nil
}

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

// encode renders v, which must marshal to JSON, in format.
func encode(v any, format string) ([]byte, error) {
	const op = "encode"
	j, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	switch format {
	case formatJSON:
		return j, nil
	case formatYAML:
		var generic any
		if err := json.Unmarshal(j, &generic); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		y, err := yaml.Marshal(generic)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return y, nil
	default:
		return nil, fmt.Errorf("%s: unknown format %q", op, format)
	}
}

func printJSON(w io.Writer, v any) error {
	b, err := encode(v, formatJSON)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
