// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

/*
oidc is a package for integrating a relying party with the BankID OIDC
provider.

Primary types provided by the package

* Settings: the relying party configuration (base URI, client credentials,
redirect URIs, client authentication strategy and optional own signing key).

* Provider: the entry point. It builds authorization and logout requests,
exchanges authorization codes, refreshes tokens and verifies notification
tokens. Every token the provider issues is verified (signature, algorithm and
issuer) before it is handed out.

* Client: calls the protected resources (userinfo, profile, token-info) with a
verified TokenPair.

* ConfigurationProvider and KeysProvider: load the discovery document and key
set once per instance, backed by a cache.Store shared between processes.

* AuthorizationURIBuilder and LogoutURIBuilder: immutable request builders
carrying a state generated once.

Errors

Configuration and programming mistakes wrap ErrLogic (see IsLogicError).
Failed provider requests return *NetworkError, and a 401 from a protected
resource returns *AuthenticationError.

The oidc/clientassertion package creates the client_assertion JWTs used by the
signed authentication strategies.
*/
package oidc
