package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/spec-kit/auth-service/internal/config"
	"github.com/spec-kit/auth-service/internal/service"
)

// NewTokenCmd groups token utilities.
func NewTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Work with access tokens",
	}
	cmd.AddCommand(newTokenInspectCmd())
	return cmd
}

func newTokenInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <jwt>",
		Short: "Verify a token with the configured key and print its claims",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			svc := service.NewAuthService(*cfg, service.AuthDependencies{})
			info, err := svc.VerifyToken(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "token_id:   %s\n", info.TokenID)
			fmt.Fprintf(out, "user_id:    %d\n", info.UserID)
			fmt.Fprintf(out, "email:      %s\n", info.Email)
			fmt.Fprintf(out, "issued_at:  %s\n", info.IssuedAt.UTC().Format(time.RFC3339))
			fmt.Fprintf(out, "expires_at: %s\n", info.ExpiresAt.UTC().Format(time.RFC3339))
			return nil
		},
	}
}
