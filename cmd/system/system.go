// Package system holds the one-shot maintenance commands: database
// bootstrap, migrations, policy seeding and CLI docs.
package system

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Alijeyrad/clinicflow_backend/cmd/cmdutil"
	"github.com/Alijeyrad/clinicflow_backend/pkg/database"
)

func NewSystemCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "system",
		Short: "Database and tooling maintenance",
		Args:  cobra.NoArgs,
	}
	cmd.AddCommand(
		newInitCommand(),
		NewMigrateCommand(),
		NewSeedCommand(),
		NewGenDocsCommand(),
	)
	return cmd
}

func newInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the application and policy databases when missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cmdutil.LoadConfig(cmd)
			if err != nil {
				return err
			}
			if err := database.InitializeDatabases(cfg); err != nil {
				return fmt.Errorf("init databases: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "databases ready")
			return nil
		},
	}
}
