package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tlu-hub/tlu-group-hub/config"
	"github.com/tlu-hub/tlu-group-hub/internal/application/command"
	"github.com/tlu-hub/tlu-group-hub/internal/domain/grouping"
	"github.com/tlu-hub/tlu-group-hub/internal/infrastructure/persistence/csvstore"
	"github.com/tlu-hub/tlu-group-hub/internal/infrastructure/persistence/postgres"
	"github.com/tlu-hub/tlu-group-hub/internal/interface/presenter"
)

const (
	inputFlag   = "input"
	classFlag   = "class"
	sizeFlag    = "size"
	seedFlag    = "seed"
	outFlag     = "out"
	htmlFlag    = "html"
	recordFlag  = "record"
	membersFlag = "members"
	stagesFlag  = "stages"
)

func newFormCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "form",
		Short: "Form groups and write the CSV export",
		Long: `Form groups from registration CSV files given with --input, or from the
configured registration store when no input is given. Students are grouped
per session; the CSV export and an optional HTML summary are written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runForm(cmd, v)
		},
	}

	flags := cmd.Flags()
	flags.StringArray(inputFlag, nil, "registration CSV file (repeatable)")
	flags.String(classFlag, "", "only group this class (store mode)")
	flags.Int(sizeFlag, 0, "target group size (default from GROUP_SIZE)")
	flags.Int64(seedFlag, 0, "tie-break seed (default from GROUP_SEED)")
	flags.StringP(outFlag, "o", "groups.csv", `CSV export path, "-" for stdout`)
	flags.String(htmlFlag, "", "also write the HTML summary to this path")
	flags.Bool(recordFlag, false, "record the run in the database (postgres backend)")
	flags.Bool(membersFlag, false, "list members in the terminal summary")
	flags.Bool(stagesFlag, false, "print the per-stage report")

	mustBindPFlag(v, "GROUP_SIZE", flags.Lookup(sizeFlag))
	mustBindPFlag(v, "GROUP_SEED", flags.Lookup(seedFlag))

	return cmd
}

func runForm(cmd *cobra.Command, v *viper.Viper) error {
	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}
	log := cliLogger(cmd, cfg)
	flags := cmd.Flags()

	inputs, _ := flags.GetStringArray(inputFlag)
	class, _ := flags.GetString(classFlag)
	record, _ := flags.GetBool(recordFlag)

	var (
		res   grouping.Result
		label = class
	)
	if len(inputs) > 0 {
		if class != "" || record {
			return errors.New("--class and --record only apply without --input")
		}
		roster, err := readRosters(inputs)
		if err != nil {
			return err
		}
		res = grouping.NewEngine(grouping.Config{
			GroupSize: cfg.Grouping.GroupSize,
			Seed:      cfg.Grouping.Seed,
		}).Form(roster)
	} else {
		out, err := formFromStore(cmd.Context(), cfg, log, class, record)
		if err != nil {
			return err
		}
		res = out.Result
		log.Info("groups formed", "run_id", out.RunID, "recorded", out.Recorded)
	}

	title := "Kết quả chia nhóm"
	if label != "" {
		title += " lớp " + label
	}
	summary := presenter.NewSummary(title, label, res)

	outPath, _ := flags.GetString(outFlag)
	if err := writeExport(cmd.OutOrStdout(), outPath, res); err != nil {
		return err
	}
	if htmlPath, _ := flags.GetString(htmlFlag); htmlPath != "" {
		if err := writeFile(htmlPath, func(w io.Writer) error {
			return presenter.RenderHTML(w, presenter.HTMLPage{Summary: summary})
		}); err != nil {
			return err
		}
	}

	if outPath != "-" {
		members, _ := flags.GetBool(membersFlag)
		stages, _ := flags.GetBool(stagesFlag)
		fmt.Fprintln(cmd.OutOrStdout(), presenter.RenderTerminal(summary, presenter.TerminalOptions{
			Members: members,
			Stages:  stages,
		}))
	}
	return nil
}

// readRosters concatenates the students of every input file.
func readRosters(paths []string) ([]grouping.Student, error) {
	var roster []grouping.Student
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return nil, fmt.Errorf("open roster: %w", err)
		}
		students, err := csvstore.ReadRoster(f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("read roster %s: %w", p, err)
		}
		roster = append(roster, students...)
	}
	return roster, nil
}

// formFromStore runs the same handler the server uses against the
// configured backend.
func formFromStore(ctx context.Context, cfg *config.Config, log *slog.Logger, class string, record bool) (*command.FormGroupsResult, error) {
	handlerCfg := command.FormGroupsHandlerConfig{
		Engine: grouping.Config{GroupSize: cfg.Grouping.GroupSize, Seed: cfg.Grouping.Seed},
		Logger: log,
	}

	var h *command.FormGroupsHandler
	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		dbCfg := postgres.DefaultConfig(cfg.Database.URL)
		dbCfg.StartupTimeout = cfg.Database.StartupTimeout
		dbCfg.Logger = log
		conn, err := postgres.NewConnection(ctx, dbCfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		defer conn.Close()
		handlerCfg.Recorder = postgres.NewAssignmentRepository(conn)
		h = command.NewFormGroupsHandler(postgres.NewRegistrationRepository(conn), handlerCfg)
		return h.Handle(ctx, command.FormGroupsCommand{Class: class, Record: record})
	default:
		if record {
			return nil, errors.New("--record needs STORAGE_BACKEND=postgres")
		}
		store, err := csvstore.New(cfg.Storage.Dir, log)
		if err != nil {
			return nil, fmt.Errorf("open csv store: %w", err)
		}
		h = command.NewFormGroupsHandler(store, handlerCfg)
		return h.Handle(ctx, command.FormGroupsCommand{Class: class})
	}
}

func writeExport(stdout io.Writer, path string, res grouping.Result) error {
	if path == "-" {
		return csvstore.WriteGroups(stdout, res)
	}
	return writeFile(path, func(w io.Writer) error {
		return csvstore.WriteGroups(w, res)
	})
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
