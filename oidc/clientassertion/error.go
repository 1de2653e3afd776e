// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package clientassertion

import "errors"

var (
	// these may happen due to user error

	ErrMissingClientID    = errors.New("missing client ID")
	ErrMissingAudience    = errors.New("missing audience")
	ErrMissingSecret      = errors.New("missing client secret")
	ErrUnknownStrategy    = errors.New("unknown auth strategy")
	ErrAssertionNotNeeded = errors.New("client assertion is not needed for this auth strategy")
	ErrMissingSigningKey  = errors.New("auth strategy requires a signing key, none configured")

	// if these happen, the Factory was not built with NewFactory()

	ErrMissingFuncIDGenerator = errors.New("missing IDgen func; please use NewFactory()")
	ErrMissingClock           = errors.New("missing clock; please use NewFactory()")

	// key and algorithm errors

	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")
	ErrNilPrivateKey        = errors.New("nil private key")
	ErrNotPrivateKey        = errors.New("signing key is not a private key")
	ErrCreatingAssertion    = errors.New("error signing client assertion")
)
