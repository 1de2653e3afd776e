// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"errors"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func newNotificationsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "notifications [token]",
		Short: "Verify a notification token and print its events",
		Long: `notifications verifies the signature and issuer of a notification token
pushed by the provider and prints its events as JSON. Without an argument the
token is read from stdin.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var token string
			if len(args) == 1 {
				token = args[0]
			} else {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				token = strings.TrimSpace(string(b))
			}
			if token == "" {
				return errors.New("missing notification token")
			}

			p, release, err := a.provider(cmd.Context())
			if err != nil {
				return err
			}
			defer release()
			events, err := p.Notifications(cmd.Context(), token)
			if err != nil {
				return err
			}
			return printJSON(a.out, events)
		},
	}
}
