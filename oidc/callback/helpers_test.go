// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package callback

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"

	"github.com/bankid-cz/bankid-go/oidc"
)

// testSuccessFn is a test SuccessResponseFunc
func testSuccessFn(_ string, c *oidc.Client, w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("login successful: " + c.TokenPair().ScopeString()))
}

// testFailFn is a test ErrorResponseFunc
func testFailFn(_ string, r *AuthenErrorResponse, e error, w http.ResponseWriter, _ *http.Request) {
	if e != nil {
		w.WriteHeader(http.StatusInternalServerError)
		j, _ := json.Marshal(&AuthenErrorResponse{
			Error:       "internal-callback-error",
			Description: e.Error(),
		})
		_, _ = w.Write(j)
		return
	}
	if r != nil {
		w.WriteHeader(http.StatusUnauthorized)
		j, _ := json.Marshal(r)
		_, _ = w.Write(j)
		return
	}
	w.WriteHeader(http.StatusInternalServerError)
	j, _ := json.Marshal(&AuthenErrorResponse{Error: "unknown-callback-error"})
	_, _ = w.Write(j)
}

// testNewProvider creates a Provider talking to tp.
func testNewProvider(t *testing.T, tp *oidc.TestProvider) *oidc.Provider {
	t.Helper()
	p, err := oidc.NewProvider(tp.Settings(),
		oidc.WithHTTPClient(tp.HTTPClient()),
		oidc.WithLogger(hclog.NewNullLogger()),
	)
	require.NoError(t, err)
	return p
}
