package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"giving-hand-api-server/internal/database"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the admin (and demo) accounts if the store has no users",
	RunE: func(cmd *cobra.Command, _ []string) error {
		be, err := openBackend(cmd.Context(), cfg, nil)
		if err != nil {
			return err
		}
		defer be.Close()

		res, err := database.SeedIfEmpty(cmd.Context(), be.store.Users(), cfg.Seed)
		if err != nil {
			return err
		}
		res.PrintGeneratedPassword(cmd.ErrOrStderr(), cfg.Seed.AdminEmail)
		if res.Seeded {
			fmt.Fprintln(cmd.OutOrStdout(), "Seeded accounts.")
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "Users already exist, nothing to do.")
		}
		return nil
	},
}
