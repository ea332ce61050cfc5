package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command. Without a subcommand it serves HTTP.
func NewRootCmd() *cobra.Command {
	serve := NewServeCmd()

	cmd := &cobra.Command{
		Use:   "authserver",
		Short: "Account registration, login and password reset over HTTP",
		Long: `authserver issues JWT access tokens for accounts kept in memory and
handles password reset requests. Configuration is read from the environment
and an optional .env file.`,
		SilenceUsage: true,
		RunE:         serve.RunE,
	}

	cmd.AddCommand(serve)
	cmd.AddCommand(NewTokenCmd())

	return cmd
}
