// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package cache

import "github.com/jonboulle/clockwork"

// Option defines a common functional options type which can be used in a
// variadic parameter pattern.
type Option func(interface{})

// ApplyOpts takes a pointer to the options struct as a set of default options
// and applies the slice of opts as overrides.
func ApplyOpts(opts interface{}, opt ...Option) {
	for _, o := range opt {
		if o == nil {
			continue
		}
		o(opts)
	}
}

type storeOptions struct {
	withClock     clockwork.Clock
	withKeyPrefix string
}

func storeDefaults() storeOptions {
	return storeOptions{
		withClock: clockwork.NewRealClock(),
	}
}

func getStoreOpts(opt ...Option) storeOptions {
	opts := storeDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithClock sets the clock used to compute expirations. Valid for: MemoryStore
func WithClock(c clockwork.Clock) Option {
	return func(o interface{}) {
		if o, ok := o.(*storeOptions); ok && c != nil {
			o.withClock = c
		}
	}
}

// WithKeyPrefix namespaces every key. Valid for: RedisStore
func WithKeyPrefix(prefix string) Option {
	return func(o interface{}) {
		if o, ok := o.(*storeOptions); ok {
			o.withKeyPrefix = prefix
		}
	}
}
