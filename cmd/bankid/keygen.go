// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bankid-cz/bankid-go/oidc"
)

func newKeygenCmd(a *app) *cobra.Command {
	var (
		bits        int
		alg, kid    string
		format, out string
	)
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a private signing key for signed_with_own_key",
		Long: `keygen writes a new private RSA JWK to --out and prints the public
key set to register with the provider, or to serve at /.well-known/jwks.`,
		Args: cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			k, err := oidc.GenerateSigningKey(bits, alg, kid)
			if err != nil {
				return err
			}
			priv, err := encode(k, format)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, priv, 0o600); err != nil {
				return fmt.Errorf("unable to write private key: %w", err)
			}
			a.logger.Info("wrote private key", "path", out, "kid", k.KeyID, "alg", k.Algorithm)

			set, err := oidc.PublicJWKS(k)
			if err != nil {
				return err
			}
			pub, err := encode(set, format)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.out, string(pub))
			return err
		},
	}
	fs := cmd.Flags()
	fs.IntVar(&bits, "bits", oidc.DefaultKeySize, "RSA key size")
	fs.StringVar(&alg, "alg", oidc.DefaultKeyAlg, "signing algorithm: RS256, RS384, RS512, PS256, PS384 or PS512")
	fs.StringVar(&kid, "kid", "", "key id; defaults to the key thumbprint")
	fs.StringVar(&format, "format", formatJSON, "output format: json or yaml")
	fs.StringVarP(&out, "out", "o", "key.json", "private key file")
	return cmd
}
