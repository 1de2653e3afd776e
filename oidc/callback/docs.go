// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

/*
callback is a package that provides http.HandlerFuncs for the relying party
endpoints the BankID provider calls: the authorization code callback (with
optional PKCE) and the notification endpoint.
*/
package callback
