// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"github.com/bankid-cz/bankid-go/sdk/id"
)

// verifierLen is within the 43 to 128 characters allowed by RFC 7636.
const verifierLen = 64

// CodeVerifier is a PKCE verifier and its derived challenge.
type CodeVerifier struct {
	verifier  string
	method    CodeChallengeMethod
	challenge string
}

// NewCodeVerifier creates an S256 verifier.
func NewCodeVerifier() (*CodeVerifier, error) {
	const op = "oidc.NewCodeVerifier"
	v, err := id.NewWithSize(verifierLen / 2)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrIdGeneratorFailed, err)
	}
	cv := &CodeVerifier{verifier: v, method: CodeChallengeS256}
	if cv.challenge, err = CreateCodeChallenge(CodeChallengeS256, cv); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return cv, nil
}

// Verifier returns the secret sent with the code exchange.
func (v *CodeVerifier) Verifier() string { return v.verifier }

// Challenge returns the value sent with the authorization request.
func (v *CodeVerifier) Challenge() string { return v.challenge }

// Method returns the challenge method.
func (v *CodeVerifier) Method() CodeChallengeMethod { return v.method }

// CreateCodeChallenge derives the challenge for v using method.
func CreateCodeChallenge(method CodeChallengeMethod, v *CodeVerifier) (string, error) {
	const op = "oidc.CreateCodeChallenge"
	if v == nil {
		return "", fmt.Errorf("%s: missing verifier: %w", op, ErrNilParameter)
	}
	switch method {
	case CodeChallengePlain:
		return v.verifier, nil
	case CodeChallengeS256:
		sum := sha256.Sum256([]byte(v.verifier))
		return base64.RawURLEncoding.EncodeToString(sum[:]), nil
	default:
		return "", fmt.Errorf("%s: %q: %w", op, method, ErrUnsupportedChallengeMethod)
	}
}
