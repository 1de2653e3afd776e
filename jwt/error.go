// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package jwt

import "errors"

var (
	ErrInvalidParameter     = errors.New("invalid parameter")
	ErrNilParameter         = errors.New("nil parameter")
	ErrMalformedToken       = errors.New("malformed token")
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")
	ErrInvalidSignature     = errors.New("invalid signature")
	ErrKeyNotFound          = errors.New("no matching key")
	ErrInvalidIssuer        = errors.New("invalid issuer")
	ErrExpiredToken         = errors.New("token is expired")
)
