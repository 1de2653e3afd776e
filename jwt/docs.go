// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

/*
Package jwt verifies compact JWS tokens issued by the identity provider.

Keys are obtained from a KeySource, typically the provider's cached JWKS, and
selected by the token's "kid" header. A Validator additionally enforces an
algorithm allow-list and the provider's issuer:

	keys, err := jwt.NewJSONWebKeySet(keysProvider)
	v, err := jwt.NewValidator(keysProvider, configurationProvider)
	tk, err := v.Validate(ctx, rawToken, []jwt.Alg{jwt.PS512, jwt.RS256})

JSONWebKeySet also satisfies the KeySet interface from
github.com/coreos/go-oidc/v3/oidc so it can back a go-oidc IDTokenVerifier.
*/
package jwt
