// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bankid-cz/bankid-go/oidc"
)

const (
	envPrefix      = "BANKID"
	defaultBaseURI = "https://oidc.sandbox.bankid.cz"
)

// app holds what the commands share: configuration, output and the logger.
type app struct {
	v      *viper.Viper
	out    io.Writer
	errOut io.Writer
	logger hclog.Logger

	// onListen is called once the login callback server accepts connections.
	onListen func(authURI string, addr net.Addr)
}

func newApp(out, errOut io.Writer) *app {
	return &app{
		v:      viper.New(),
		out:    out,
		errOut: errOut,
		logger: hclog.NewNullLogger(),
	}
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bankid",
		Short: "BankID relying party tool",
		Long: `bankid talks to the BankID OIDC provider as a relying party.

Every flag can also be set with a BANKID_ prefixed environment variable
(--client-id is BANKID_CLIENT_ID) or in the YAML file given with --config.`,
		SilenceUsage:      true,
		PersistentPreRunE: func(*cobra.Command, []string) error { return a.init() },
	}
	cmd.SetOut(a.out)
	cmd.SetErr(a.errOut)

	fs := cmd.PersistentFlags()
	fs.StringP("config", "c", "", "path to a YAML configuration file")
	fs.String("log-level", "info", "log level: trace, debug, info, warn or error")
	fs.String("base-uri", defaultBaseURI, "provider base URI")
	fs.String("client-id", "", "relying party client id")
	fs.String("client-secret", "", "relying party client secret")
	fs.String("redirect-uri", "http://localhost:3000/callback", "post login redirect URI registered with the provider")
	fs.String("logout-redirect-uri", "http://localhost:3000/logout", "post logout redirect URI registered with the provider")
	fs.String("auth-strategy", oidc.PlainSecret.String(), "token endpoint authentication: plain_secret, signed_with_provider_secret or signed_with_own_key")
	fs.String("signing-key", "", "path to the private JWK (JSON or YAML) used by signed_with_own_key")
	fs.String("provider-ca", "", "path to a PEM CA certificate trusted for the provider")
	fs.String("redis-addr", "", "share the discovery and key caches through this Redis server")
	fs.String("redis-password", "", "Redis password")
	fs.Int("redis-db", 0, "Redis database")
	if err := a.v.BindPFlags(fs); err != nil {
		panic(err)
	}
	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	cmd.AddCommand(newLoginCmd(a), newNotificationsCmd(a), newKeygenCmd(a))
	return cmd
}

// init reads the config file and creates the logger.
func (a *app) init() error {
	const op = "app.init"
	if path := a.v.GetString("config"); path != "" {
		a.v.SetConfigFile(path)
		a.v.SetConfigType("yaml")
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("%s: unable to read config %q: %w", op, path, err)
		}
	}
	level := hclog.LevelFromString(a.v.GetString("log-level"))
	if level == hclog.NoLevel {
		return fmt.Errorf("%s: unknown log level %q", op, a.v.GetString("log-level"))
	}
	a.logger = hclog.New(&hclog.LoggerOptions{
		Name:   "bankid",
		Level:  level,
		Output: a.errOut,
	})
	return nil
}
