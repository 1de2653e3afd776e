// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// bankid is a command line relying party for the BankID OIDC provider. It
// logs a user in through a local callback server, verifies notification
// tokens and generates own signing keys.
package main

import (
	"os"
)

func main() {
	a := newApp(os.Stdout, os.Stderr)
	if err := newRootCmd(a).Execute(); err != nil {
		os.Exit(1)
	}
}
