// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package callback

import "errors"

var (
	ErrNotFound       = errors.New("login request not found")
	ErrExpiredRequest = errors.New("login request is expired")
	ErrStateMismatch  = errors.New("response state does not match the login request")
	ErrMissingCode    = errors.New("authorization code is missing")
	ErrMissingToken   = errors.New("notification token is missing")
)
