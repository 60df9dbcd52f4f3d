package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"studyroom-backend/internal/account"
	"studyroom-backend/internal/catalog"
	"studyroom-backend/internal/model"
)

func provisionCommand() *cobra.Command {
	var (
		seedFile string
		admin    account.RegisterInput
	)
	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Import slots from a seed file and optionally create an admin account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := commonRun()
			if err != nil {
				return err
			}
			appStore, gormDB, err := openStore(cfg, logger)
			if err != nil {
				return err
			}
			defer closeDB(gormDB)
			ctx := cmd.Context()

			if seedFile == "" {
				seedFile = cfg.Catalog.SeedFile
			}
			if seedFile != "" {
				descriptors, err := catalog.LoadSeed(seedFile)
				if err != nil {
					return err
				}
				created, err := catalog.Import(ctx, appStore.Slots(), descriptors)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d of %d slots from %s\n", created, len(descriptors), seedFile)
			}

			if admin.Username == "" {
				return nil
			}
			svc := account.NewService(appStore.Accounts(), nil, cfg.Auth.BcryptCost, logger)
			a, err := svc.Provision(ctx, admin, model.RoleAdmin)
			switch {
			case errors.Is(err, account.ErrAccountExists):
				fmt.Fprintf(cmd.OutOrStdout(), "admin %s already exists\n", admin.Username)
				return nil
			case err != nil:
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", a.Username, a.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&seedFile, "seed", "", "slot seed YAML (default catalog.seed_file)")
	cmd.Flags().StringVar(&admin.Username, "admin-username", "", "create an admin account with this username")
	cmd.Flags().StringVar(&admin.Password, "admin-password", "", "admin password")
	cmd.Flags().StringVar(&admin.FullName, "admin-name", "Administrator", "admin full name")
	cmd.Flags().StringVar(&admin.StudentID, "admin-id", "ADMIN", "admin staff id")
	cmd.Flags().StringVar(&admin.Email, "admin-email", "", "admin email")
	cmd.Flags().StringVar(&admin.Phone, "admin-phone", "-", "admin phone")
	return cmd
}
