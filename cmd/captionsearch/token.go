package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"caption-search-backend/internal/config"
	"caption-search-backend/internal/middleware"
)

func newTokenCommand() *cobra.Command {
	var userFlag string
	var ttl time.Duration
	var secret string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a bearer token for the search API",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := uuid.Parse(userFlag)
			if err != nil {
				return fmt.Errorf("invalid --user: %w", err)
			}
			if secret == "" {
				secret = config.LoadJWTSecret()
			}
			if secret == "" {
				return errors.New("JWT_SECRET is not set (use --secret or the environment)")
			}

			token, err := middleware.NewJWTAuth(secret).GenerateAccessToken(userID, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userFlag, "user", "", "User ID (UUID) the token is issued for")
	cmd.Flags().DurationVar(&ttl, "ttl", middleware.DefaultTokenTTL, "Token lifetime")
	cmd.Flags().StringVar(&secret, "secret", "", "Signing secret (defaults to JWT_SECRET)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
