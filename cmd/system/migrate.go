package system

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Alijeyrad/clinicflow_backend/cmd/cmdutil"
	"github.com/Alijeyrad/clinicflow_backend/config"
	"github.com/Alijeyrad/clinicflow_backend/pkg/authorize"
	"github.com/Alijeyrad/clinicflow_backend/pkg/database"
)

// NewMigrateCommand brings the schema up to date and then seeds the
// permission matrix, so a fresh database is usable right after it.
func NewMigrateCommand() *cobra.Command {
	var drop bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migrate the schema and seed the permission matrix",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cmdutil.LoadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := cmdutil.Context(cmd.Context(), cfg)
			defer cancel()

			client, err := database.NewEntClient(cfg.Database)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer client.Close()

			slog.InfoContext(ctx, "system: migrating schema", "drop", drop)
			if err := database.MigrateEnt(ctx, client, !drop); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			if err := seedPolicies(ctx, cfg); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema migrated, policies seeded")
			return nil
		},
	}
	cmd.Flags().BoolVar(&drop, "drop", false, "also drop columns and indexes no longer in the schema")
	return cmd
}

func NewSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed the default role permission matrix",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cmdutil.LoadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := cmdutil.Context(cmd.Context(), cfg)
			defer cancel()

			if err := seedPolicies(ctx, cfg); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "policies seeded")
			return nil
		},
	}
}

// seedPolicies writes the default matrix to whichever policy store the
// server is configured with.
func seedPolicies(ctx context.Context, cfg *config.Config) error {
	acfg := authorize.FromCentralConfig(cfg.Authorization)

	auth, closeFn, err := openAuthorization(acfg, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	slog.InfoContext(ctx, "system: seeding policies", "file", acfg.PolicyFile)
	if err := authorize.SeedDefaultPolicies(ctx, auth); err != nil {
		return fmt.Errorf("seed policies: %w", err)
	}
	return nil
}

func openAuthorization(acfg authorize.Config, cfg *config.Config) (authorize.IAuthorization, func(), error) {
	if acfg.PolicyFile != "" {
		enforcer, err := authorize.NewFileEnforcer(acfg.CasbinModelPath, acfg.PolicyFile)
		if err != nil {
			return nil, nil, fmt.Errorf("policy file: %w", err)
		}
		auth, err := authorize.NewAuthorization(enforcer)
		return auth, func() {}, err
	}

	enforcer, cleanup, err := authorize.NewEnforcer(acfg.CasbinModelPath, database.NewDSN(cfg.CasbinDatabase))
	if err != nil {
		return nil, nil, fmt.Errorf("policy database: %w", err)
	}
	auth, err := authorize.NewAuthorization(enforcer)
	if err != nil {
		cleanup(context.Background())
		return nil, nil, err
	}
	return auth, func() { cleanup(context.Background()) }, nil
}
