package grouping

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleOfficialLeader, ParseRole("Nhóm trưởng"))
	assert.Equal(t, RoleOfficialLeader, ParseRole("Muốn làm Nhóm trưởng"))
	assert.Equal(t, RoleTemporaryLeader, ParseRole("Trưởng nhóm tạm"))
	assert.Equal(t, RoleMember, ParseRole("Thành viên"))
	assert.Equal(t, RoleMember, ParseRole(""))
	assert.Equal(t, RoleMember, ParseRole("nhóm trưởng"))
}

func TestRole_String(t *testing.T) {
	assert.Equal(t, OfficialLeaderMarker, RoleOfficialLeader.String())
	assert.Equal(t, TemporaryLeaderMarker, RoleTemporaryLeader.String())
	assert.Equal(t, MemberLabel, RoleMember.String())
	assert.NotContains(t, TemporaryLeaderMarker, OfficialLeaderMarker)
}

func TestParseSkills(t *testing.T) {
	set := ParseSkills("Thuyết trình; Lập trình;;  Vẽ ")
	assert.True(t, set.Has(SkillPresentation))
	assert.True(t, set.Has(SkillCoding))
	assert.True(t, set.Has(Skill("Vẽ")))
	assert.False(t, set.Has(SkillDesign))

	assert.Equal(t, []Skill{SkillCoding, SkillPresentation, Skill("Vẽ")}, set.Sorted())
	assert.Equal(t, "Lập trình; Thuyết trình; Vẽ", set.String())
	assert.Empty(t, ParseSkills(""))
}

func TestGoal_IsValid(t *testing.T) {
	for _, g := range Goals {
		assert.True(t, g.IsValid(), g)
	}
	assert.False(t, Goal("Khác").IsValid())
}
