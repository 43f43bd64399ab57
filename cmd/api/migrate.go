package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

func newMigrateCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Inspect or apply the embedded schema migrations",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "status",
			Short: "Print pending migrations as JSON",
			RunE: func(cmd *cobra.Command, _ []string) error {
				pending, err := a.migrator().ListPending(cmd.Context())
				if err != nil {
					return err
				}
				return json.NewEncoder(cmd.OutOrStdout()).Encode(pending)
			},
		},
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending migrations and print them as JSON",
			RunE: func(cmd *cobra.Command, _ []string) error {
				applied, err := a.migrator().RunPending(cmd.Context())
				if err != nil {
					return err
				}
				a.sugar.Infow("migrations applied", "count", len(applied))
				return json.NewEncoder(cmd.OutOrStdout()).Encode(applied)
			},
		},
	)
	return cmd
}
