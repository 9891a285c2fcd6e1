package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"pantrypal/internal/auth"
)

func newTokenCommand(ctx *commandContext) *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Bearer token utilities",
	}
	tokenCmd.AddCommand(newTokenIssueCommand(ctx))
	return tokenCmd
}

func newTokenIssueCommand(ctx *commandContext) *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "issue <user-id>",
		Short: "Sign a bearer token for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			tokens, err := auth.New(cfg.Auth)
			if err != nil {
				return fmt.Errorf("%w (set PANTRYPAL_JWT_SECRET or auth.jwt_secret)", err)
			}
			userID := strings.TrimSpace(args[0])
			if userID == "" {
				return fmt.Errorf("user id is required")
			}
			token, err := tokens.Issue(userID, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", auth.DefaultTTL, "Token lifetime")
	return cmd
}
