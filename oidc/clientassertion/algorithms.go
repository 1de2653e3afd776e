// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package clientassertion

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rsa"
	"fmt"

	"github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"
)

// ProviderSecretAlgorithm is used for assertions signed with the client secret.
const ProviderSecretAlgorithm = "HS512"

// JOSE asymmetric signing algorithm values as defined by RFC 7518.
// See: https://tools.ietf.org/html/rfc7518#section-3.1
const (
	RS256 = "RS256" // RSASSA-PKCS-v1.5 using SHA-256
	RS384 = "RS384" // RSASSA-PKCS-v1.5 using SHA-384
	RS512 = "RS512" // RSASSA-PKCS-v1.5 using SHA-512
	PS256 = "PS256" // RSASSA-PSS using SHA256 and MGF1-SHA256
	PS384 = "PS384" // RSASSA-PSS using SHA384 and MGF1-SHA384
	PS512 = "PS512" // RSASSA-PSS using SHA512 and MGF1-SHA512
	ES256 = "ES256" // ECDSA using P-256 and SHA-256
	ES384 = "ES384" // ECDSA using P-384 and SHA-384
	ES512 = "ES512" // ECDSA using P-521 and SHA-512
	EdDSA = "EdDSA" // Ed25519
)

var ecCurves = map[string]elliptic.Curve{
	ES256: elliptic.P256(),
	ES384: elliptic.P384(),
	ES512: elliptic.P521(),
}

// ValidateSigningKey checks that key is a usable private JWK whose declared
// "alg" matches its key type, and returns the matching signing method and
// raw key.
func ValidateSigningKey(key *jose.JSONWebKey) (jwt.SigningMethod, any, error) {
	const op = "clientassertion.ValidateSigningKey"
	if key == nil || key.Key == nil {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrNilPrivateKey)
	}
	if key.IsPublic() {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrNotPrivateKey)
	}
	alg := key.Algorithm
	switch k := key.Key.(type) {
	case *rsa.PrivateKey:
		switch alg {
		case RS256, RS384, RS512, PS256, PS384, PS512:
		default:
			return nil, nil, fmt.Errorf("%s: %w %q for RSA key", op, ErrUnsupportedAlgorithm, alg)
		}
		if err := k.Validate(); err != nil {
			return nil, nil, fmt.Errorf("%s: %w", op, err)
		}
	case *ecdsa.PrivateKey:
		curve, ok := ecCurves[alg]
		if !ok {
			return nil, nil, fmt.Errorf("%s: %w %q for EC key", op, ErrUnsupportedAlgorithm, alg)
		}
		if k.Curve != curve {
			return nil, nil, fmt.Errorf("%s: %w: %q requires curve %s", op, ErrUnsupportedAlgorithm, alg, curve.Params().Name)
		}
	case ed25519.PrivateKey:
		if alg != EdDSA {
			return nil, nil, fmt.Errorf("%s: %w %q for Ed25519 key", op, ErrUnsupportedAlgorithm, alg)
		}
	default:
		return nil, nil, fmt.Errorf("%s: %w: key type %T", op, ErrUnsupportedAlgorithm, key.Key)
	}
	method := jwt.GetSigningMethod(alg)
	if method == nil {
		return nil, nil, fmt.Errorf("%s: %w %q", op, ErrUnsupportedAlgorithm, alg)
	}
	return method, key.Key, nil
}
