package csvstore

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tlu-hub/tlu-group-hub/internal/domain/grouping"
)

func TestWriteGroups(t *testing.T) {
	leader := grouping.NewStudent(grouping.NewStudentParams{
		ID: "S1", Name: "An", Class: "64HTTT1", GPA: "3.5", Mark: "8",
		Session: "Ca 1", Goal: "Điểm cao", Skills: "Quản lý", DesiredRole: "Nhóm trưởng",
	})
	leader.GroupID = "Ca 1_G1"
	member := grouping.NewStudent(grouping.NewStudentParams{
		ID: "S2", Name: "Bình", Class: "64HTTT1", GPA: "2", Session: "Ca 1", Goal: "Qua môn",
	})
	member.GroupID = "Ca 1_G1"

	res := grouping.Result{Cohorts: []grouping.CohortResult{{
		Session: "Ca 1",
		Groups:  []grouping.Group{{ID: "Ca 1_G1", Number: 1, Session: "Ca 1", Members: []grouping.Student{leader, member}}},
	}}}

	var buf bytes.Buffer
	require.NoError(t, WriteGroups(&buf, res))

	out := buf.String()
	require.True(t, strings.HasPrefix(out, bom))
	records, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(out, bom))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, ExportHeader, records[0])
	assert.Equal(t, []string{
		"1", "S1", "An", "64HTTT1", "3.5", "8", "3.20", "3.38", "Ca 1",
		"Điểm cao", "Quản lý", "Nhóm trưởng", "Nhóm trưởng", "Ca 1_G1",
	}, records[1])
	assert.Equal(t, "2", records[2][0])
	assert.Empty(t, records[2][5], "absent mark is blank")
	assert.Equal(t, "0.00", records[2][6])
	assert.Equal(t, "2.00", records[2][7])
	assert.Equal(t, "Thành viên", records[2][12])
}

func TestReadRoster_CoercesBadNumbers(t *testing.T) {
	in := strings.Join(Header, ",") + "\n" +
		"S1,An,64HTTT1,abc,9,Ca 2,Học hỏi,Thiết kế; Lập trình,Thành viên\n"

	roster, err := ReadRoster(strings.NewReader(in))

	require.NoError(t, err)
	require.Len(t, roster, 1)
	s := roster[0]
	assert.Zero(t, s.GPA)
	assert.Equal(t, 9.0, s.Mark)
	assert.InDelta(t, 0.4*3.6, s.Score, 1e-9)
	assert.Equal(t, "Ca 2", s.Session)
	assert.True(t, s.Skills.Has(grouping.SkillDesign))
	assert.Equal(t, grouping.RoleMember, s.Role)
}
