// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"encoding/json"
	"fmt"
)

// Verification describes how the verified claims were established.
type Verification struct {
	TrustFramework      string `json:"trust_framework"`
	VerificationProcess string `json:"verification_process"`
}

// VerifiedClaims is the verified_claims structure returned with userinfo and
// profile. Verification is nil when the provider omits it.
type VerifiedClaims struct {
	Verification *Verification `json:"verification,omitempty"`
	Claims       map[string]any `json:"claims"`
}

// UserInfo is the standard claim set from the userinfo endpoint. Optional
// claims are nil when absent.
type UserInfo struct {
	Sub                 string         `json:"sub"`
	Txn                 string         `json:"txn"`
	VerifiedClaims      VerifiedClaims `json:"verified_claims"`
	Name                *string        `json:"name,omitempty"`
	GivenName           *string        `json:"given_name,omitempty"`
	FamilyName          *string        `json:"family_name,omitempty"`
	Gender              *string        `json:"gender,omitempty"`
	Birthdate           *string        `json:"birthdate,omitempty"`
	Nickname            *string        `json:"nickname,omitempty"`
	PreferredUsername   *string        `json:"preferred_username,omitempty"`
	Email               *string        `json:"email,omitempty"`
	EmailVerified       *bool          `json:"email_verified,omitempty"`
	ZoneInfo            *string        `json:"zoneinfo,omitempty"`
	Locale              *string        `json:"locale,omitempty"`
	PhoneNumber         *string        `json:"phone_number,omitempty"`
	PhoneNumberVerified *bool          `json:"phone_number_verified,omitempty"`
	UpdatedAt           *int64         `json:"updated_at,omitempty"`
}

// Address is a postal address from the profile.
type Address struct {
	Type              *string `json:"type,omitempty"`
	Street            *string `json:"street,omitempty"`
	BuildingApartment *string `json:"buildingapartment,omitempty"`
	StreetNumber      *string `json:"streetnumber,omitempty"`
	City              *string `json:"city,omitempty"`
	ZipCode           *string `json:"zipcode,omitempty"`
	Country           *string `json:"country,omitempty"`
	RuianReference    *string `json:"ruian_reference,omitempty"`
}

// IDCard is an identity document from the profile.
type IDCard struct {
	Type        *string `json:"type,omitempty"`
	Description *string `json:"description,omitempty"`
	Country     *string `json:"country,omitempty"`
	Number      *string `json:"number,omitempty"`
	ValidTo     *string `json:"valid_to,omitempty"`
	Issuer      *string `json:"issuer,omitempty"`
	IssueDate   *string `json:"issue_date,omitempty"`
}

// Profile is the extended claim set from the provider's profile endpoint.
// Everything except Sub, Txn and VerifiedClaims is optional.
type Profile struct {
	Sub                  string         `json:"sub"`
	Txn                  string         `json:"txn"`
	VerifiedClaims       VerifiedClaims `json:"verified_claims"`
	GivenName            *string        `json:"given_name,omitempty"`
	FamilyName           *string        `json:"family_name,omitempty"`
	Gender               *string        `json:"gender,omitempty"`
	Birthdate            *string        `json:"birthdate,omitempty"`
	BirthNumber          *string        `json:"birthnumber,omitempty"`
	Age                  *int           `json:"age,omitempty"`
	Majority             *bool          `json:"majority,omitempty"`
	DateOfDeath          *string        `json:"date_of_death,omitempty"`
	Birthplace           *string        `json:"birthplace,omitempty"`
	PrimaryNationality   *string        `json:"primary_nationality,omitempty"`
	Nationalities        []string       `json:"nationalities,omitempty"`
	MaritalStatus        *string        `json:"maritalstatus,omitempty"`
	Email                *string        `json:"email,omitempty"`
	PhoneNumber          *string        `json:"phone_number,omitempty"`
	PEP                  *bool          `json:"pep,omitempty"`
	LimitedLegalCapacity *bool          `json:"limited_legal_capacity,omitempty"`
	Addresses            []Address      `json:"addresses,omitempty"`
	IDCards              []IDCard       `json:"idcards,omitempty"`
	PaymentAccounts      []string       `json:"paymentAccounts,omitempty"`
	UpdatedAt            *int64         `json:"updated_at,omitempty"`
}

// TokenInfo is the introspection result for the client's access token.
type TokenInfo struct {
	Active    bool    `json:"active"`
	Scope     []Scope `json:"-"`
	ClientID  string  `json:"client_id"`
	TokenType string  `json:"token_type"`
	Exp       int64   `json:"exp"`
	Iat       int64   `json:"iat"`
	Sub       string  `json:"sub"`
	Iss       string  `json:"iss"`
}

// UnmarshalJSON parses the space separated scope claim. Unknown scopes fail.
func (t *TokenInfo) UnmarshalJSON(data []byte) error {
	type plain TokenInfo
	var raw struct {
		plain
		Scope string `json:"scope"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	scopes, err := ParseScopes(raw.Scope)
	if err != nil {
		return err
	}
	*t = TokenInfo(raw.plain)
	t.Scope = scopes
	return nil
}

// MarshalJSON writes the scope back as a space separated string.
func (t TokenInfo) MarshalJSON() ([]byte, error) {
	type plain TokenInfo
	return json.Marshal(struct {
		plain
		Scope string `json:"scope"`
	}{plain: plain(t), Scope: JoinScopes(t.Scope)})
}

// subjectClaims is the part shared by userinfo and profile responses.
type subjectClaims struct {
	Sub *string `json:"sub"`
	Txn *string `json:"txn"`
}

// decodeSubjectResponse decodes a userinfo or profile body into v, requiring
// sub and txn.
func decodeSubjectResponse(body []byte, v any) error {
	var required subjectClaims
	if err := json.Unmarshal(body, &required); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	switch {
	case required.Sub == nil:
		return fmt.Errorf("missing sub: %w", ErrMalformedResponse)
	case required.Txn == nil:
		return fmt.Errorf("missing txn: %w", ErrMalformedResponse)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return nil
}
