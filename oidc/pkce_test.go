// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCodeVerifier(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	got, err := NewCodeVerifier()
	require.NoError(err)
	assert.Len(got.Verifier(), verifierLen)
	assert.Equal(CodeChallengeS256, got.Method())

	challenge, err := CreateCodeChallenge(CodeChallengeS256, got)
	require.NoError(err)
	assert.Equal(challenge, got.Challenge())

	other, err := NewCodeVerifier()
	require.NoError(err)
	assert.NotEqual(got.Verifier(), other.Verifier())
}

func TestCreateCodeChallenge(t *testing.T) {
	t.Parallel()
	calcHash := func(data string) string {
		sum := sha256.Sum256([]byte(data))
		return base64.RawURLEncoding.EncodeToString(sum[:])
	}
	v := &CodeVerifier{verifier: "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"}
	tests := []struct {
		name      string
		method    CodeChallengeMethod
		v         *CodeVerifier
		want      string
		wantIsErr error
	}{
		{name: "s256", method: CodeChallengeS256, v: v, want: calcHash(v.verifier)},
		{name: "rfc7636-vector", method: CodeChallengeS256, v: v, want: "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM"},
		{name: "plain", method: CodeChallengePlain, v: v, want: v.verifier},
		{name: "invalid-method", method: CodeChallengeMethod("S512"), v: v, wantIsErr: ErrUnsupportedChallengeMethod},
		{name: "nil-verifier", method: CodeChallengeS256, wantIsErr: ErrNilParameter},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert, require := assert.New(t), require.New(t)
			got, err := CreateCodeChallenge(tt.method, tt.v)
			if tt.wantIsErr != nil {
				require.Error(err)
				assert.ErrorIs(err, tt.wantIsErr)
				assert.Empty(got)
				return
			}
			require.NoError(err)
			assert.Equal(tt.want, got)
		})
	}
}
