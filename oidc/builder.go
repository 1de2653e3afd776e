// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"net/url"
	"strings"
)

// builderOptions is the set of available options for the URI builders
type builderOptions struct {
	withGenerator RandomStringGenerator
	withState     string
	withEndpoint  string
}

func builderDefaults() builderOptions {
	return builderOptions{withGenerator: DefaultRandomStringGenerator()}
}

func getBuilderOpts(opt ...Option) builderOptions {
	opts := builderDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// builderState returns the supplied state or generates one.
func builderState(op string, opts builderOptions) (string, error) {
	if opts.withState != "" {
		return opts.withState, nil
	}
	return generate(op, opts.withGenerator)
}

// queryBuilder serializes parameters in insertion order. Spaces become '+'.
type queryBuilder struct {
	b strings.Builder
}

func (q *queryBuilder) add(key, value string) {
	if q.b.Len() > 0 {
		q.b.WriteByte('&')
	}
	q.b.WriteString(url.QueryEscape(key))
	q.b.WriteByte('=')
	q.b.WriteString(url.QueryEscape(value))
}

func (q *queryBuilder) String() string { return q.b.String() }
