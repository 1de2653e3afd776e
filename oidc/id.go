// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"fmt"

	"github.com/jonboulle/clockwork"

	"github.com/bankid-cz/bankid-go/sdk/id"
)

// TimeProvider supplies the current time.
type TimeProvider = clockwork.Clock

// RandomStringGenerator produces unguessable strings for state, session state
// and assertion ids.
type RandomStringGenerator interface {
	Generate() (string, error)
}

// RandomStringGeneratorFunc adapts a function to a RandomStringGenerator.
type RandomStringGeneratorFunc func() (string, error)

// Generate calls f.
func (f RandomStringGeneratorFunc) Generate() (string, error) { return f() }

// DefaultRandomStringGenerator returns hex encoded 32 byte random strings.
func DefaultRandomStringGenerator() RandomStringGenerator {
	return id.Generator{Size: id.DefaultSize}
}

// NewId generates a random ID suitable for a state or session state.
func NewId() (string, error) {
	const op = "oidc.NewId"
	v, err := id.New()
	if err != nil {
		return "", fmt.Errorf("%s: %w: %w", op, ErrIdGeneratorFailed, err)
	}
	return v, nil
}

func generate(op string, g RandomStringGenerator) (string, error) {
	v, err := g.Generate()
	if err != nil {
		return "", fmt.Errorf("%s: %w: %w", op, ErrIdGeneratorFailed, err)
	}
	if v == "" {
		return "", fmt.Errorf("%s: generator returned an empty string: %w", op, ErrIdGeneratorFailed)
	}
	return v, nil
}
