package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tlu-hub/tlu-group-hub/config"
	"github.com/tlu-hub/tlu-group-hub/internal/infrastructure/persistence/postgres"
)

const (
	rollbackFlag = "rollback"
	statusFlag   = "status"
	timeoutFlag  = "timeout"
)

func newMigrateCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema migrations",
		Long:  `The migrate command creates or updates the registrations and group run tables used by the postgres backend.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd, v)
		},
	}

	flags := cmd.Flags()
	flags.Bool(rollbackFlag, false, "roll back the latest applied migration")
	flags.Bool(statusFlag, false, "list migrations and their state without changing anything")
	flags.Duration(timeoutFlag, time.Minute, "how long to wait for the database to accept connections")
	flags.String("database-url", "", "connection uri (default from DATABASE_URL)")
	mustBindPFlag(v, "DATABASE_URL", flags.Lookup("database-url"))
	mustBindPFlag(v, "DB_STARTUP_TIMEOUT", flags.Lookup(timeoutFlag))

	return cmd
}

func runMigrate(cmd *cobra.Command, v *viper.Viper) error {
	// Migrations only make sense for postgres, whatever the server uses.
	v.Set("STORAGE_BACKEND", config.BackendPostgres)
	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}
	log := cliLogger(cmd, cfg)
	ctx := cmd.Context()

	dbCfg := postgres.DefaultConfig(cfg.Database.URL)
	dbCfg.StartupTimeout = cfg.Database.StartupTimeout
	dbCfg.Logger = log
	conn, err := postgres.NewConnection(ctx, dbCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database connection: %w", err)
	}
	defer conn.Close()

	m := postgres.NewMigrator(conn)
	flags := cmd.Flags()

	if status, _ := flags.GetBool(statusFlag); status {
		list, err := m.Status(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "VERSION\tNAME\tAPPLIED")
		for _, mig := range list {
			applied := "-"
			if mig.IsApplied {
				applied = mig.AppliedAt.Format(time.RFC3339)
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\n", mig.Version, mig.Name, applied)
		}
		return tw.Flush()
	}

	if rollback, _ := flags.GetBool(rollbackFlag); rollback {
		if err := m.Rollback(ctx); err != nil {
			return fmt.Errorf("rollback: %w", err)
		}
		log.Info("latest migration rolled back")
		return nil
	}

	applied, err := m.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	log.Info("migration done", "applied", applied)
	return nil
}
