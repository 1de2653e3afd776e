// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"fmt"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
)

// Query parameter names of the authorization request.
const (
	ParamApprovalPrompt      = "approval_prompt"
	ParamScope               = "scope"
	ParamCodeChallengeMethod = "code_challenge_method"
	ParamCodeChallenge       = "code_challenge"
	ParamResponseType        = "response_type"
	ParamAcrValue            = "acr_value"
	ParamState               = "state"
	ParamClientID            = "client_id"
	ParamRedirectURI         = "redirect_uri"
)

// Scope is a scope supported by the provider.
type Scope string

const (
	ScopeOpenID                Scope = oidc.ScopeOpenID
	ScopeOfflineAccess         Scope = oidc.ScopeOfflineAccess
	ScopeAddress               Scope = "profile.addresses"
	ScopeBirthDate             Scope = "profile.birthdate"
	ScopeBirthNumber           Scope = "profile.birthnumber"
	ScopeBirthPlaceNationality Scope = "profile.birthplaceNationality"
	ScopeEmail                 Scope = "profile.email"
	ScopeGender                Scope = "profile.gender"
	ScopeIDCards               Scope = "profile.idcards"
	ScopeLegalStatus           Scope = "profile.legalstatus"
	ScopeLocale                Scope = "profile.locale"
	ScopeMaritalStatus         Scope = "profile.maritalstatus"
	ScopeName                  Scope = "profile.name"
	ScopePaymentAccounts       Scope = "profile.paymentAccounts"
	ScopePhoneNumber           Scope = "profile.phonenumber"
	ScopeTitles                Scope = "profile.titles"
	ScopeUpdatedAt             Scope = "profile.updatedat"
	ScopeZoneInfo              Scope = "profile.zoneinfo"
	ScopeVerification          Scope = "profile.verification"
)

var knownScopes = map[Scope]bool{
	ScopeOpenID:                true,
	ScopeOfflineAccess:         true,
	ScopeAddress:               true,
	ScopeBirthDate:             true,
	ScopeBirthNumber:           true,
	ScopeBirthPlaceNationality: true,
	ScopeEmail:                 true,
	ScopeGender:                true,
	ScopeIDCards:               true,
	ScopeLegalStatus:           true,
	ScopeLocale:                true,
	ScopeMaritalStatus:         true,
	ScopeName:                  true,
	ScopePaymentAccounts:       true,
	ScopePhoneNumber:           true,
	ScopeTitles:                true,
	ScopeUpdatedAt:             true,
	ScopeZoneInfo:              true,
	ScopeVerification:          true,
}

// Param returns the query parameter carrying scopes.
func (Scope) Param() string { return ParamScope }

// ParseScope parses a single scope value.
func ParseScope(s string) (Scope, error) {
	const op = "oidc.ParseScope"
	if !knownScopes[Scope(s)] {
		return "", fmt.Errorf("%s: %q: %w", op, s, ErrUnknownScope)
	}
	return Scope(s), nil
}

// ParseScopes parses a space separated scope list, keeping its order. Any
// unknown value fails the whole list.
func ParseScopes(s string) ([]Scope, error) {
	const op = "oidc.ParseScopes"
	fields := strings.Fields(s)
	scopes := make([]Scope, 0, len(fields))
	for _, f := range fields {
		sc, err := ParseScope(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		scopes = append(scopes, sc)
	}
	return scopes, nil
}

// JoinScopes is the inverse of ParseScopes.
func JoinScopes(scopes []Scope) string {
	parts := make([]string, 0, len(scopes))
	for _, s := range scopes {
		parts = append(parts, string(s))
	}
	return strings.Join(parts, " ")
}

// AcrValue is the requested level of assurance.
type AcrValue string

const (
	AcrLoa2 AcrValue = "loa2"
	AcrLoa3 AcrValue = "loa3"
)

// Param returns the query parameter carrying the acr value.
func (AcrValue) Param() string { return ParamAcrValue }

// ResponseType is the OAuth2 response type.
type ResponseType string

const (
	ResponseTypeCode  ResponseType = "code"
	ResponseTypeToken ResponseType = "token"
)

// Param returns the query parameter carrying the response type.
func (ResponseType) Param() string { return ParamResponseType }

// CodeChallengeMethod is the PKCE code challenge method.
type CodeChallengeMethod string

const (
	CodeChallengePlain CodeChallengeMethod = "plain"
	CodeChallengeS256  CodeChallengeMethod = "S256"
)

// Param returns the query parameter carrying the challenge method.
func (CodeChallengeMethod) Param() string { return ParamCodeChallengeMethod }
