package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tlu-hub/tlu-group-hub/internal/domain/grouping"
	"github.com/tlu-hub/tlu-group-hub/internal/domain/registration"
	"github.com/tlu-hub/tlu-group-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REGISTRATION REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// RegistrationRepository implements registration.Repository for PostgreSQL.
type RegistrationRepository struct {
	conn *Connection
}

var _ registration.Repository = (*RegistrationRepository)(nil)

// NewRegistrationRepository creates a new RegistrationRepository.
func NewRegistrationRepository(conn *Connection) *RegistrationRepository {
	return &RegistrationRepository{conn: conn}
}

const registrationColumns = `
	student_id, name, current_class, gpa, mark, sessions, goal,
	strengths, desired_role, class_code, updated_at
`

// Upsert inserts the registration or updates it in place. Moving to another
// class sends the student to the end of the new class.
func (r *RegistrationRepository) Upsert(ctx context.Context, reg *registration.Registration) error {
	if err := reg.Validate(); err != nil {
		return err
	}
	if reg.UpdatedAt.IsZero() {
		reg.UpdatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO registrations (` + registrationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (student_id) DO UPDATE SET
			name = EXCLUDED.name,
			current_class = EXCLUDED.current_class,
			gpa = EXCLUDED.gpa,
			mark = EXCLUDED.mark,
			sessions = EXCLUDED.sessions,
			goal = EXCLUDED.goal,
			strengths = EXCLUDED.strengths,
			desired_role = EXCLUDED.desired_role,
			seq = CASE
				WHEN registrations.class_code <> EXCLUDED.class_code
				THEN nextval(pg_get_serial_sequence('registrations', 'seq'))
				ELSE registrations.seq
			END,
			class_code = EXCLUDED.class_code,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.conn.Exec(ctx, query,
		reg.StudentID.String(),
		reg.Name,
		reg.CurrentClass,
		reg.GPA,
		reg.Mark,
		reg.Session(),
		string(reg.Goal),
		reg.Strengths.String(),
		reg.DesiredRole,
		reg.Class.String(),
		reg.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert registration: %w", err)
	}
	return nil
}

// Get returns the registration of a student.
func (r *RegistrationRepository) Get(ctx context.Context, id shared.StudentID) (*registration.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE student_id = $1`

	reg, err := scanRegistration(r.conn.QueryRow(ctx, query, id.String()))
	if IsNoRows(err) {
		return nil, shared.ErrRegistrationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get registration: %w", err)
	}
	return reg, nil
}

// List returns the registrations of a class in submission order.
func (r *RegistrationRepository) List(ctx context.Context, class shared.ClassCode) ([]registration.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE class_code = $1 ORDER BY seq`
	return r.list(ctx, query, class.String())
}

// ListAll returns every registration, class by class in KnownClasses order.
func (r *RegistrationRepository) ListAll(ctx context.Context) ([]registration.Registration, error) {
	classes := make([]string, len(shared.KnownClasses))
	for i, c := range shared.KnownClasses {
		classes[i] = c.String()
	}
	query := `SELECT ` + registrationColumns + ` FROM registrations
		WHERE class_code = ANY($1)
		ORDER BY array_position($1, class_code::text), seq`
	return r.list(ctx, query, classes)
}

func (r *RegistrationRepository) list(ctx context.Context, query string, args ...any) ([]registration.Registration, error) {
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	defer rows.Close()

	var out []registration.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan registration: %w", err)
		}
		out = append(out, *reg)
	}
	return out, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Helper Methods
// ─────────────────────────────────────────────────────────────────────────────

func scanRegistration(row pgx.Row) (*registration.Registration, error) {
	var (
		reg       registration.Registration
		id        string
		sessions  string
		goal      string
		strengths string
		class     string
	)
	err := row.Scan(
		&id,
		&reg.Name,
		&reg.CurrentClass,
		&reg.GPA,
		&reg.Mark,
		&sessions,
		&goal,
		&strengths,
		&reg.DesiredRole,
		&class,
		&reg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	reg.StudentID = shared.StudentID(id)
	reg.Sessions = shared.ParseSessionSlots(sessions)
	reg.Goal = grouping.Goal(goal)
	reg.Strengths = grouping.ParseSkills(strengths)
	reg.Class = shared.ClassCode(class)
	return &reg, nil
}
