package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tlu-hub/tlu-group-hub/config"
	"github.com/tlu-hub/tlu-group-hub/internal/infrastructure/persistence/postgres"
)

const limitFlag = "limit"

func newRunsCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded grouping runs (postgres backend)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v.Set("STORAGE_BACKEND", config.BackendPostgres)
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			limit, _ := cmd.Flags().GetInt(limitFlag)
			if limit <= 0 {
				return fmt.Errorf("--%s must be positive", limitFlag)
			}

			dbCfg := postgres.DefaultConfig(cfg.Database.URL)
			dbCfg.StartupTimeout = cfg.Database.StartupTimeout
			dbCfg.Logger = cliLogger(cmd, cfg)
			conn, err := postgres.NewConnection(cmd.Context(), dbCfg)
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			defer conn.Close()

			runs, err := postgres.NewAssignmentRepository(conn).LatestRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return printRuns(cmd.OutOrStdout(), runs)
		},
	}
	cmd.Flags().Int(limitFlag, 20, "how many runs to show")
	return cmd
}

func printRuns(w io.Writer, runs []postgres.GroupRun) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tCREATED\tCLASS\tSIZE\tSEED\tSTUDENTS\tGROUPS\tMAX GAP")
	for _, r := range runs {
		class := r.Class
		if class == "" {
			class = "all"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%.2f\n",
			r.ID, r.CreatedAt.Local().Format(time.DateTime), class,
			r.GroupSize, r.Seed, r.StudentCount, r.GroupCount, r.MaxGap)
	}
	return tw.Flush()
}
