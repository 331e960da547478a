package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tlu-hub/tlu-group-hub/internal/domain/grouping"
)

// ══════════════════════════════════════════════════════════════════════════════
// GROUP RUN REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// GroupRun is the header row of a recorded grouping run.
type GroupRun struct {
	ID           uuid.UUID
	Class        string
	GroupSize    int
	Seed         int64
	StudentCount int
	GroupCount   int
	MaxGap       float64
	CreatedAt    time.Time
}

// AssignmentRepository records the outcome of grouping runs.
type AssignmentRepository struct {
	conn *Connection
}

// NewAssignmentRepository creates a new AssignmentRepository.
func NewAssignmentRepository(conn *Connection) *AssignmentRepository {
	return &AssignmentRepository{conn: conn}
}

// RecordRun stores the run header and one assignment row per student in a
// single transaction. class is empty when every class was grouped together.
func (r *AssignmentRepository) RecordRun(ctx context.Context, runID uuid.UUID, class string, res grouping.Result) error {
	run := RunFromResult(runID, class, res)

	return r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO group_runs (id, class_code, group_size, seed, student_count, group_count, max_gap)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, run.ID, run.Class, run.GroupSize, run.Seed, run.StudentCount, run.GroupCount, run.MaxGap)
		if err != nil {
			return fmt.Errorf("failed to insert group run: %w", err)
		}

		rows := AssignmentRows(runID, res)
		if len(rows) == 0 {
			return nil
		}
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"group_assignments"},
			[]string{"run_id", "student_id", "session", "group_id", "role", "score", "position"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("failed to copy group assignments: %w", err)
		}
		return nil
	})
}

// LatestRuns returns the most recent runs, newest first.
func (r *AssignmentRepository) LatestRuns(ctx context.Context, limit int) ([]GroupRun, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, class_code, group_size, seed, student_count, group_count, max_gap, created_at
		FROM group_runs
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query group runs: %w", err)
	}
	defer rows.Close()

	var out []GroupRun
	for rows.Next() {
		var run GroupRun
		if err := rows.Scan(&run.ID, &run.Class, &run.GroupSize, &run.Seed,
			&run.StudentCount, &run.GroupCount, &run.MaxGap, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group run: %w", err)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Helper Methods
// ─────────────────────────────────────────────────────────────────────────────

// RunFromResult summarises a result into a run header. MaxGap is the worst
// cohort gap.
func RunFromResult(runID uuid.UUID, class string, res grouping.Result) GroupRun {
	run := GroupRun{ID: runID, Class: class, GroupSize: res.GroupSize, Seed: res.Seed}
	for _, c := range res.Cohorts {
		run.StudentCount += c.Size()
		run.GroupCount += len(c.Groups)
		if gap := c.Gap(); gap > run.MaxGap {
			run.MaxGap = gap
		}
	}
	return run
}

// AssignmentRows flattens a result into COPY rows. position is the 1-based
// place of the student inside its group.
func AssignmentRows(runID uuid.UUID, res grouping.Result) [][]any {
	var rows [][]any
	for _, c := range res.Cohorts {
		for _, g := range c.Groups {
			for i, m := range g.Members {
				rows = append(rows, []any{runID, m.ID, m.Session, m.GroupID, m.Role.String(), m.Score, i + 1})
			}
		}
	}
	return rows
}
