package main

import (
	"errors"
	"fmt"
	"time"

	"stable-channels/config"
	"stable-channels/internal/service"

	"github.com/spf13/cobra"
)

func newTokenCmd(configPath *string) *cobra.Command {
	var subject string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an operator API token signed with jwt.secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.JWT.Secret == "" {
				return errors.New("jwt.secret is not configured, the API runs unauthenticated")
			}

			tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
			token, expiresAt, err := tokenSvc.Generate(subject)
			if err != nil {
				return fmt.Errorf("generating token: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "subject %s, expires %s\n", subject, expiresAt.UTC().Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVarP(&subject, "subject", "s", "operator", "operator name recorded in the token")
	return cmd
}
