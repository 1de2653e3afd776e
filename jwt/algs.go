// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package jwt

// Alg represents asymmetric and symmetric signing algorithms
type Alg string

// JOSE signing algorithm values as defined by RFC 7518.
// See: https://tools.ietf.org/html/rfc7518#section-3.1
const (
	HS256 Alg = "HS256" // HMAC using SHA-256
	HS384 Alg = "HS384" // HMAC using SHA-384
	HS512 Alg = "HS512" // HMAC using SHA-512
	RS256 Alg = "RS256" // RSASSA-PKCS-v1.5 using SHA-256
	RS384 Alg = "RS384" // RSASSA-PKCS-v1.5 using SHA-384
	RS512 Alg = "RS512" // RSASSA-PKCS-v1.5 using SHA-512
	ES256 Alg = "ES256" // ECDSA using P-256 and SHA-256
	ES384 Alg = "ES384" // ECDSA using P-384 and SHA-384
	ES512 Alg = "ES512" // ECDSA using P-521 and SHA-512
	PS256 Alg = "PS256" // RSASSA-PSS using SHA256 and MGF1-SHA256
	PS384 Alg = "PS384" // RSASSA-PSS using SHA384 and MGF1-SHA384
	PS512 Alg = "PS512" // RSASSA-PSS using SHA512 and MGF1-SHA512
	EdDSA Alg = "EdDSA" // Ed25519 using SHA-512
)

var supportedAlgorithms = map[Alg]bool{
	HS256: true,
	HS384: true,
	HS512: true,
	RS256: true,
	RS384: true,
	RS512: true,
	ES256: true,
	ES384: true,
	ES512: true,
	PS256: true,
	PS384: true,
	PS512: true,
	EdDSA: true,
}

// Supported reports whether the alg can be verified by this package.
func (a Alg) Supported() bool {
	return supportedAlgorithms[a]
}

// AlgsFromStrings converts the algorithm names advertised in a discovery
// document. Unsupported names are kept; they simply never match a token.
func AlgsFromStrings(algs []string) []Alg {
	out := make([]Alg, 0, len(algs))
	for _, a := range algs {
		out = append(out, Alg(a))
	}
	return out
}

func containsAlg(algs []Alg, a Alg) bool {
	for _, v := range algs {
		if v == a {
			return true
		}
	}
	return false
}
