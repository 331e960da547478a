package presenter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tlu-hub/tlu-group-hub/internal/domain/grouping"
)

func member(id, name string, score float64, goal grouping.Goal, skills string, role grouping.Role) grouping.Student {
	return grouping.Student{
		ID:     id,
		Name:   name,
		GPA:    score,
		Score:  score,
		Goal:   goal,
		Skills: grouping.ParseSkills(skills),
		Role:   role,
	}
}

func sampleResult() grouping.Result {
	g1 := grouping.Group{ID: "Ca 1_G1", Number: 1, Session: "Ca 1", Members: []grouping.Student{
		member("S1", "An", 3.5, grouping.GoalHighGrade, "Lập trình", grouping.RoleOfficialLeader),
		member("S2", "Bình", 2.5, grouping.GoalPass, "Thiết kế; Quản lý", grouping.RoleMember),
	}}
	g2 := grouping.Group{ID: "Ca 1_G2", Number: 2, Session: "Ca 1", Members: []grouping.Student{
		member("S3", "<Chi>", 3.0, grouping.GoalHighGrade, "", grouping.RoleTemporaryLeader),
	}}
	return grouping.Result{
		GroupSize: 2,
		Seed:      42,
		Cohorts: []grouping.CohortResult{{
			Session: "Ca 1",
			Groups:  []grouping.Group{g1, g2},
			Stages: []grouping.StageReport{
				{Stage: grouping.StagePartition, Gap: 0.5},
				{Stage: grouping.StageStrict, Iterations: 200, Swaps: 3, CapReached: true},
			},
		}},
	}
}

func TestNewSummary(t *testing.T) {
	s := NewSummary("Kết quả chia nhóm", "64HTTT1", sampleResult())

	assert.Equal(t, 3, s.Students)
	assert.Equal(t, 2, s.GroupSize)
	require.Len(t, s.Cohorts, 1)

	c := s.Cohorts[0]
	assert.Equal(t, "Ca 1", c.Session)
	assert.Equal(t, 2, c.GroupCount)
	assert.Equal(t, "0.00", c.Gap)
	require.Len(t, c.Stages, 2)
	assert.True(t, c.Stages[1].CapReached)
	assert.Equal(t, "0.50", c.Stages[0].Gap)

	g := c.Groups[0]
	assert.Equal(t, "3.00", g.Average)
	assert.Equal(t, 1, g.Leaders)
	assert.Equal(t, "Điểm cao: 1, Qua môn: 1", g.Goals)
	assert.Equal(t, "Lập trình, Thiết kế, Quản lý", g.Skills)
	require.Len(t, g.Members, 2)
	assert.Equal(t, 1, g.Members[0].STT)
	assert.True(t, g.Members[0].Leader)
	assert.Equal(t, "Nhóm trưởng", g.Members[0].Role)
	assert.Equal(t, "", g.Members[0].Mark, "absent mark is blank")
	assert.Equal(t, "Thiết kế; Quản lý", g.Members[1].Strengths)

	assert.Equal(t, "Trưởng nhóm tạm", c.Groups[1].Members[0].Role)
}

func TestSessionLabel(t *testing.T) {
	assert.Equal(t, "Ca 2", SessionLabel("Ca 2"))
	assert.Equal(t, "Chưa xếp ca", SessionLabel(""))
}

func TestRenderHTML(t *testing.T) {
	var buf bytes.Buffer
	page := HTMLPage{
		Summary:     NewSummary("Kết quả chia nhóm", "64HTTT1", sampleResult()),
		DownloadURL: "/admin/groups/export.csv?class=64HTTT1",
		RecordURL:   "/admin/groups?class=64HTTT1",
	}

	require.NoError(t, RenderHTML(&buf, page))
	out := buf.String()

	assert.Contains(t, out, "===== CA: Ca 1 | Số nhóm = 2 =====")
	assert.Contains(t, out, "<b>Nhóm 1:</b> n=2 | Điểm TB = 3.00 | Leaders = 1")
	assert.Contains(t, out, "&lt;Chi&gt;", "names are escaped")
	assert.NotContains(t, out, "<Chi>")
	assert.Contains(t, out, `class="leader"`)
	assert.Contains(t, out, "strict_balance")
	assert.Contains(t, out, "Tải CSV")
	assert.Contains(t, out, `<form method="post" action="/admin/groups?class=64HTTT1">`)
	assert.NotContains(t, out, `class="notice"`)
}

func TestRenderHTML_Notice(t *testing.T) {
	var buf bytes.Buffer
	page := HTMLPage{
		Summary: NewSummary("Kết quả chia nhóm", "64HTTT1", sampleResult()),
		Notice:  "Đã lưu lần chia nhóm 42",
	}

	require.NoError(t, RenderHTML(&buf, page))

	assert.Contains(t, buf.String(), `<p class="notice">Đã lưu lần chia nhóm 42</p>`)
	assert.NotContains(t, buf.String(), "Lưu kết quả", "no second record button after storing")
}

func TestRenderHTML_Empty(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, RenderHTML(&buf, HTMLPage{Summary: NewSummary("x", "", grouping.Result{GroupSize: 5})}))

	assert.Contains(t, buf.String(), "Chưa có sinh viên đăng ký.")
	assert.NotContains(t, buf.String(), "Tải CSV")
	assert.NotContains(t, buf.String(), "Lưu kết quả")
}

func TestRenderTerminal(t *testing.T) {
	s := NewSummary("Kết quả", "", sampleResult())

	plain := RenderTerminal(s, TerminalOptions{})
	assert.Contains(t, plain, "CA: Ca 1 | Số nhóm = 2")
	assert.Contains(t, plain, "Nhóm 2 (Ca 1_G2): n=1")
	assert.NotContains(t, plain, "Bình")

	full := RenderTerminal(s, TerminalOptions{Members: true, Stages: true})
	assert.Contains(t, full, "Bình")
	assert.Contains(t, full, "(cap)")
	assert.True(t, strings.Contains(full, "strict_balance"))
}
