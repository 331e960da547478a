package postgres

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tlu-hub/tlu-group-hub/internal/domain/grouping"
)

func sampleResult() grouping.Result {
	engine := grouping.NewEngine(grouping.Config{GroupSize: 2, Seed: 7})
	var roster []grouping.Student
	for i, score := range []string{"3.8", "3.1", "2.5", "2.0", "3.3"} {
		session := "Ca 1"
		if i == 4 {
			session = "Ca 2"
		}
		roster = append(roster, grouping.NewStudent(grouping.NewStudentParams{
			ID: string(rune('A' + i)), GPA: score, Session: session, Goal: "Qua môn",
		}))
	}
	return engine.Form(roster)
}

func TestRunFromResult(t *testing.T) {
	res := sampleResult()
	id := uuid.New()

	run := RunFromResult(id, "64HTTT1", res)

	assert.Equal(t, id, run.ID)
	assert.Equal(t, "64HTTT1", run.Class)
	assert.Equal(t, 2, run.GroupSize)
	assert.Equal(t, int64(7), run.Seed)
	assert.Equal(t, 5, run.StudentCount)
	assert.Equal(t, 3, run.GroupCount, "two groups in Ca 1, one in Ca 2")
	assert.GreaterOrEqual(t, run.MaxGap, 0.0)
}

func TestAssignmentRows(t *testing.T) {
	res := sampleResult()
	id := uuid.New()

	rows := AssignmentRows(id, res)

	require.Len(t, rows, 5)
	seen := make(map[string]bool)
	for _, row := range rows {
		require.Len(t, row, 7)
		assert.Equal(t, id, row[0])
		seen[row[1].(string)] = true
		assert.GreaterOrEqual(t, row[6].(int), 1)
	}
	assert.Len(t, seen, 5, "each student exactly once")
	assert.Equal(t, "Ca 2_G1", rows[4][3])
	assert.Equal(t, grouping.TemporaryLeaderMarker, rows[4][4], "a lone student leads their group")
}

func TestGetMigrations_Ordered(t *testing.T) {
	migs := GetMigrations()
	for i, m := range migs {
		assert.Equal(t, i+1, m.Version)
		assert.NotEmpty(t, m.UpSQL)
		assert.NotEmpty(t, m.DownSQL)
	}
}
