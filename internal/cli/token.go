package cli

import (
	"fmt"
	"time"

	"trivia-builder-service/internal/auth"
	"trivia-builder-service/internal/config"
	"github.com/spf13/cobra"
)

// NewTokenCmd mints a bearer token for local testing of the builder.
func NewTokenCmd(configPath *string) *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Issue a development bearer token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			secret := jwtSecret(cfg.Auth.JWTSecret)
			if secret == "" {
				return fmt.Errorf("jwt secret not configured")
			}
			token, err := auth.NewTokenVerifier(secret).Issue(args[0], ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
