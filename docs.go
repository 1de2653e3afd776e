// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// bankid provides a relying party library for the BankID OIDC provider and
// the packages it is built from: oidc (settings, provider, client, request
// builders), oidc/clientassertion (client assertion JWTs), oidc/callback
// (http handlers for the login callback and notifications), jwt (token
// verification against the provider's key set) and cache (shared discovery
// and key caching). cmd/bankid is a command line tool built on them.
package bankid
