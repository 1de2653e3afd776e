// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package id generates random identifiers suitable for state, session state
// and jwt ids.
package id

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/hashicorp/go-uuid"
)

// DefaultSize is the number of random bytes used by New.
const DefaultSize = 32

// ErrInvalidSize is returned when a non-positive size is requested.
var ErrInvalidSize = errors.New("invalid size")

// New returns the hex encoding of DefaultSize random bytes.
func New() (string, error) {
	return NewWithSize(DefaultSize)
}

// NewWithSize returns the hex encoding of size random bytes.
func NewWithSize(size int) (string, error) {
	const op = "id.NewWithSize"
	if size <= 0 {
		return "", fmt.Errorf("%s: %d: %w", op, size, ErrInvalidSize)
	}
	b, err := uuid.GenerateRandomBytes(size)
	if err != nil {
		return "", fmt.Errorf("%s: unable to generate id: %w", op, err)
	}
	return hex.EncodeToString(b), nil
}

// Generator produces random identifiers of a fixed size.
type Generator struct {
	Size int
}

// Generate returns a new identifier. A zero Size uses DefaultSize.
func (g Generator) Generate() (string, error) {
	if g.Size == 0 {
		return New()
	}
	return NewWithSize(g.Size)
}
