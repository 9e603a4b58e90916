package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Refresh the local ticket mirror from the mongo primary once",
	RunE: func(cmd *cobra.Command, _ []string) error {
		be, err := openBackend(cmd.Context(), cfg, nil)
		if err != nil {
			return err
		}
		defer be.Close()

		if be.mirror == nil {
			return errors.New("no mirror configured: needs store.driver=mongo and mirror.enabled=true")
		}
		n, err := be.mirror.Reconcile(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Mirrored %d tickets.\n", n)
		return nil
	},
}
