// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package clientassertion signs the JWTs a relying party presents to the
// token endpoint instead of its plain client secret (RFC 7523), either HMAC
// signed with the client secret or signed with the relying party's own
// private JWK.
//
// Example usage:
//
//	f, err := clientassertion.NewFactory(clientassertion.SignedWithProviderSecret,
//		"client-id", secret, tokenEndpointFunc)
//	ca, err := f.Create(ctx)
//	form.Set("client_assertion_type", ca.Type)
//	form.Set("client_assertion", ca.Value)
//
// Assertions carry a fresh jti, iat and exp on every call and must never be
// cached or reused.
package clientassertion
