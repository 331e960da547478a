package command

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tlu-hub/tlu-group-hub/internal/domain/grouping"
	"github.com/tlu-hub/tlu-group-hub/internal/domain/registration"
	"github.com/tlu-hub/tlu-group-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// FORM GROUPS COMMAND
// Runs the grouping engine over stored registrations.
// ══════════════════════════════════════════════════════════════════════════════

// MaxGroupSize bounds the requested group size.
const MaxGroupSize = 50

// FormGroupsCommand selects what to group and how.
type FormGroupsCommand struct {
	// Class limits the run to one class. Empty groups every class together;
	// cohorts are still split by session.
	Class string

	// GroupSize overrides the configured size when positive.
	GroupSize int

	// Seed overrides the configured seed when set.
	Seed *int64

	// Record stores the assignments when a recorder is configured.
	Record bool
}

// Validate validates the command.
func (c FormGroupsCommand) Validate() error {
	if c.GroupSize < 0 || c.GroupSize > MaxGroupSize {
		return shared.ErrInvalidGroupSize
	}
	if c.Class != "" && !shared.ClassCode(c.Class).IsValid() {
		return shared.ErrUnknownClass
	}
	return nil
}

// FormGroupsResult is the outcome of a run.
type FormGroupsResult struct {
	RunID    uuid.UUID
	Class    string
	Result   grouping.Result
	Elapsed  time.Duration
	Recorded bool
}

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES (Interfaces)
// ══════════════════════════════════════════════════════════════════════════════

// AssignmentRecorder persists the outcome of a run.
type AssignmentRecorder interface {
	RecordRun(ctx context.Context, runID uuid.UUID, class string, res grouping.Result) error
}

// GroupingObserver is told about every finished run.
type GroupingObserver interface {
	ObserveGrouping(class string, res grouping.Result, elapsed time.Duration)
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// FormGroupsHandlerConfig contains configuration for the handler.
type FormGroupsHandlerConfig struct {
	// Engine is the base engine configuration.
	Engine grouping.Config

	// Recorder and Observer are optional.
	Recorder AssignmentRecorder
	Observer GroupingObserver

	Logger *slog.Logger
}

// FormGroupsHandler handles FormGroupsCommand.
type FormGroupsHandler struct {
	repo     registration.Repository
	engine   grouping.Config
	recorder AssignmentRecorder
	observer GroupingObserver
	logger   *slog.Logger
}

// NewFormGroupsHandler creates a new FormGroupsHandler.
func NewFormGroupsHandler(repo registration.Repository, config FormGroupsHandlerConfig) *FormGroupsHandler {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &FormGroupsHandler{
		repo:     repo,
		engine:   config.Engine,
		recorder: config.Recorder,
		observer: config.Observer,
		logger:   config.Logger.With("handler", "form_groups"),
	}
}

// Handle loads the registrations, forms the groups and reports the run.
func (h *FormGroupsHandler) Handle(ctx context.Context, cmd FormGroupsCommand) (*FormGroupsResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	var (
		regs []registration.Registration
		err  error
	)
	if cmd.Class == "" {
		regs, err = h.repo.ListAll(ctx)
	} else {
		regs, err = h.repo.List(ctx, shared.ClassCode(cmd.Class))
	}
	if err != nil {
		return nil, fmt.Errorf("form_groups: load registrations: %w", err)
	}

	cfg := h.engine
	if cmd.GroupSize > 0 {
		cfg.GroupSize = cmd.GroupSize
	}
	if cmd.Seed != nil {
		cfg.Seed = *cmd.Seed
	}

	out := &FormGroupsResult{
		RunID:  uuid.New(),
		Class:  cmd.Class,
		Result: grouping.NewEngine(cfg).Form(registration.Roster(regs)),
	}
	h.logRun(out)

	if cmd.Record && h.recorder != nil {
		if err := h.recorder.RecordRun(ctx, out.RunID, out.Class, out.Result); err != nil {
			return nil, fmt.Errorf("form_groups: record run: %w", err)
		}
		out.Recorded = true
	}

	out.Elapsed = time.Since(start)
	if h.observer != nil {
		h.observer.ObserveGrouping(out.Class, out.Result, out.Elapsed)
	}
	return out, nil
}

func (h *FormGroupsHandler) logRun(out *FormGroupsResult) {
	logger := h.logger.With("run_id", out.RunID.String(), "class", out.Class)
	for _, c := range out.Result.Cohorts {
		for _, st := range c.Stages {
			logger.Debug("stage finished",
				"session", c.Session,
				"stage", st.Stage,
				"iterations", st.Iterations,
				"swaps", st.Swaps,
				"moves", st.Moves,
				"role_changes", st.RoleChanges,
				"cap_reached", st.CapReached,
				"gap", st.Gap,
			)
		}
		logger.Info("cohort grouped",
			"session", c.Session,
			"students", c.Size(),
			"groups", len(c.Groups),
			"gap", c.Gap(),
			"spread", c.Spread(),
		)
	}
}
