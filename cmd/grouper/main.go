// Package main is the instructor's command line tool: it forms groups from
// registration files, manages the database schema and hashes the admin
// password for the server configuration.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/tlu-hub/tlu-group-hub/config"
	"github.com/tlu-hub/tlu-group-hub/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(viper.New()).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// newRootCommand wires every subcommand to one viper instance, so flags,
// environment variables and the config file resolve the same way as in the
// server.
func newRootCommand(v *viper.Viper) *cobra.Command {
	root := &cobra.Command{
		Use:          "grouper",
		Short:        "Form balanced student groups from class registrations",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "YAML file with the same keys as the environment variables")
	flags.String("log-level", "", "debug, info, warn or error")
	mustBindPFlag(v, config.KeyConfigFile, flags.Lookup("config"))
	mustBindPFlag(v, "LOG_LEVEL", flags.Lookup("log-level"))

	root.AddCommand(
		newFormCommand(v),
		newMigrateCommand(v),
		newRunsCommand(v),
		newHashPasswordCommand(),
	)
	return root
}

// mustBindPFlag panics if the binding fails.
func mustBindPFlag(v *viper.Viper, key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic("failed to bind pflag: " + err.Error())
	}
}

// loadConfig loads the shared configuration. The CLI never opens sessions,
// so Redis is not required.
func loadConfig(v *viper.Viper) (*config.Config, error) {
	v.Set("REDIS_DISABLED", true)
	cfg, err := config.Load(v)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// cliLogger writes text logs to stderr so stdout stays free for output.
func cliLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	return logger.New(logger.Options{
		Output: cmd.ErrOrStderr(),
		Level:  logger.ParseLevel(cfg.Observability.LogLevel),
		Format: logger.FormatText,
	})
}
