package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"studyroom-backend/internal/account"
	"studyroom-backend/internal/auth"
)

func tokenCommand() *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token <username>",
		Short: "Mint a bearer token for an existing account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := commonRun()
			if err != nil {
				return err
			}
			appStore, gormDB, err := openStore(cfg, logger)
			if err != nil {
				return err
			}
			defer closeDB(gormDB)

			a, err := appStore.Accounts().FindByUsername(cmd.Context(), strings.ToLower(args[0]))
			if err != nil {
				return fmt.Errorf("account %s: %w", args[0], err)
			}
			if ttl <= 0 {
				ttl = cfg.Auth.TokenTTL
			}
			issuer := auth.NewIssuer([]byte(cfg.Auth.Secret), cfg.Auth.Issuer, ttl)
			token, err := account.NewService(appStore.Accounts(), issuer, cfg.Auth.BcryptCost, logger).IssueFor(a)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token.AccessToken)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default auth.token_ttl_minutes)")
	return cmd
}
