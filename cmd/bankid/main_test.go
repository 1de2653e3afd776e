// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bankid-cz/bankid-go/oidc"
)

// syncBuffer is a bytes.Buffer safe for concurrent writers.
type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.b.Bytes()...)
}

func (s *syncBuffer) String() string { return string(s.Bytes()) }

// testApp returns an app writing to buffers.
func testApp() (*app, *syncBuffer, *syncBuffer) {
	out, errOut := &syncBuffer{}, &syncBuffer{}
	return newApp(out, errOut), out, errOut
}

// run executes the root command with args.
func run(a *app, args ...string) error {
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	return cmd.Execute()
}

// providerArgs returns the global flags pointing at tp.
func providerArgs(t *testing.T, tp *oidc.TestProvider) []string {
	t.Helper()
	ca := filepath.Join(t.TempDir(), "ca.pem")
	require.NoError(t, os.WriteFile(ca, []byte(tp.CACert()), 0o600))
	return []string{
		"--base-uri", tp.Addr(),
		"--client-id", oidc.TestClientID,
		"--client-secret", oidc.TestClientSecret,
		"--redirect-uri", "http://localhost/callback",
		"--provider-ca", ca,
		"--log-level", "error",
	}
}
