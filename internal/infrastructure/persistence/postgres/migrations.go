package postgres

// GetMigrations returns all embedded migrations in version order.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_registrations",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_group_runs",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE REGISTRATIONS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- One row per student. Registering into another class updates the row.
CREATE TABLE IF NOT EXISTS registrations (
    student_id VARCHAR(20) PRIMARY KEY,
    name VARCHAR(200) NOT NULL DEFAULT '',
    current_class VARCHAR(50) NOT NULL DEFAULT '',
    gpa DOUBLE PRECISION NOT NULL DEFAULT 0,
    mark DOUBLE PRECISION,
    sessions TEXT NOT NULL DEFAULT '',
    goal VARCHAR(50) NOT NULL,
    strengths TEXT NOT NULL DEFAULT '',
    desired_role VARCHAR(100) NOT NULL DEFAULT '',
    class_code VARCHAR(20) NOT NULL,
    -- Insertion order within a class, kept stable across updates.
    seq BIGSERIAL NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_gpa CHECK (gpa >= 0 AND gpa <= 4),
    CONSTRAINT valid_mark CHECK (mark IS NULL OR (mark >= 0 AND mark <= 10))
);

CREATE INDEX IF NOT EXISTS idx_registrations_class_seq ON registrations(class_code, seq);
`

const migration001Down = `
DROP TABLE IF EXISTS registrations;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE GROUP RUNS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
CREATE TABLE IF NOT EXISTS group_runs (
    id UUID PRIMARY KEY,
    class_code VARCHAR(20) NOT NULL DEFAULT '',
    group_size INTEGER NOT NULL,
    seed BIGINT NOT NULL,
    student_count INTEGER NOT NULL,
    group_count INTEGER NOT NULL,
    max_gap DOUBLE PRECISION NOT NULL DEFAULT 0,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_group_runs_created_at ON group_runs(created_at DESC);

CREATE TABLE IF NOT EXISTS group_assignments (
    run_id UUID NOT NULL REFERENCES group_runs(id) ON DELETE CASCADE,
    student_id VARCHAR(20) NOT NULL,
    session VARCHAR(100) NOT NULL,
    group_id VARCHAR(120) NOT NULL,
    role VARCHAR(50) NOT NULL,
    score DOUBLE PRECISION NOT NULL,
    position INTEGER NOT NULL,

    PRIMARY KEY (run_id, student_id)
);

CREATE INDEX IF NOT EXISTS idx_group_assignments_group ON group_assignments(run_id, group_id, position);
`

const migration002Down = `
DROP TABLE IF EXISTS group_assignments;
DROP TABLE IF EXISTS group_runs;
`
