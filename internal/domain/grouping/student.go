package grouping

import (
	"sort"
	"strings"
)

// ══════════════════════════════════════════════════════════════════════════════
// ROLE
// ══════════════════════════════════════════════════════════════════════════════

// Role is the resolved position of a student inside a group.
type Role int

const (
	// RoleMember is a plain group member.
	RoleMember Role = iota
	// RoleTemporaryLeader is a leader appointed by the engine. Swappable.
	RoleTemporaryLeader
	// RoleOfficialLeader is a student who asked to lead. Protected from the
	// leader-protected and threshold-strict score passes.
	RoleOfficialLeader
)

// Desired-role literals as they appear in registration rows.
const (
	OfficialLeaderMarker  = "Nhóm trưởng"
	TemporaryLeaderMarker = "Trưởng nhóm tạm"
	MemberLabel           = "Thành viên"
)

// ParseRole maps the free-text desired role to a Role. Any text containing
// the official marker is an official leader.
func ParseRole(text string) Role {
	switch {
	case strings.Contains(text, OfficialLeaderMarker):
		return RoleOfficialLeader
	case strings.Contains(text, TemporaryLeaderMarker):
		return RoleTemporaryLeader
	default:
		return RoleMember
	}
}

// IsLeader reports whether the role is official or temporary leader.
func (r Role) IsLeader() bool {
	return r == RoleOfficialLeader || r == RoleTemporaryLeader
}

// String returns the registration literal for the role.
func (r Role) String() string {
	switch r {
	case RoleOfficialLeader:
		return OfficialLeaderMarker
	case RoleTemporaryLeader:
		return TemporaryLeaderMarker
	default:
		return MemberLabel
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// GOAL AND SKILL CATALOGS
// ══════════════════════════════════════════════════════════════════════════════

// Goal is a declared objective from a fixed catalog.
type Goal string

const (
	GoalHighGrade Goal = "Điểm cao"
	GoalPass      Goal = "Qua môn"
	GoalLearn     Goal = "Học hỏi"
	GoalProduct   Goal = "Làm sản phẩm"
)

// Goals is the goal catalog in balancing order.
var Goals = []Goal{GoalHighGrade, GoalPass, GoalLearn, GoalProduct}

// IsValid reports whether the goal belongs to the catalog.
func (g Goal) IsValid() bool {
	for _, known := range Goals {
		if g == known {
			return true
		}
	}
	return false
}

// Skill is a capability tag from a fixed catalog.
type Skill string

const (
	SkillCoding       Skill = "Lập trình"
	SkillDesign       Skill = "Thiết kế"
	SkillPresentation Skill = "Thuyết trình"
	SkillManagement   Skill = "Quản lý"
)

// Skills is the skill catalog in balancing order.
var Skills = []Skill{SkillCoding, SkillDesign, SkillPresentation, SkillManagement}

// LeadershipSkill is preferred when a temporary leader has to be appointed.
const LeadershipSkill = SkillManagement

// SkillSet is an unordered set of skills.
type SkillSet map[Skill]struct{}

// ParseSkills splits a semicolon-delimited attribute. Blank parts are dropped;
// unknown tags are kept so they still show up in summaries.
func ParseSkills(attr string) SkillSet {
	set := make(SkillSet)
	for _, part := range strings.Split(attr, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		set[Skill(part)] = struct{}{}
	}
	return set
}

// Has reports whether the set contains the skill.
func (s SkillSet) Has(skill Skill) bool {
	_, ok := s[skill]
	return ok
}

// Sorted returns the skills in catalog order followed by unknown tags
// alphabetically.
func (s SkillSet) Sorted() []Skill {
	out := make([]Skill, 0, len(s))
	for _, known := range Skills {
		if s.Has(known) {
			out = append(out, known)
		}
	}
	var extra []Skill
	for skill := range s {
		if !isCatalogSkill(skill) {
			extra = append(extra, skill)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(out, extra...)
}

// String joins the skills with "; ".
func (s SkillSet) String() string {
	sorted := s.Sorted()
	parts := make([]string, len(sorted))
	for i, skill := range sorted {
		parts[i] = string(skill)
	}
	return strings.Join(parts, "; ")
}

func isCatalogSkill(skill Skill) bool {
	for _, known := range Skills {
		if skill == known {
			return true
		}
	}
	return false
}

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT
// ══════════════════════════════════════════════════════════════════════════════

// Student is one roster entry flowing through the engine.
type Student struct {
	ID    string
	Name  string
	Class string

	// GPA on the 0-4 scale.
	GPA float64

	// Mark is the supplementary exam mark on the 0-10 scale, zero if absent.
	Mark float64

	// Score is the composite ranking score.
	Score float64

	Session     string
	Goal        Goal
	Skills      SkillSet
	DesiredRole string
	Role        Role

	// GroupID is set on output, e.g. "Ca 1_G2".
	GroupID string
}

// NewStudentParams holds the raw registration values.
type NewStudentParams struct {
	ID          string
	Name        string
	Class       string
	GPA         string
	Mark        string
	Session     string
	Goal        string
	Skills      string
	DesiredRole string
}

// NewStudent builds a Student from raw values. Numeric fields that are
// missing or malformed become zero.
func NewStudent(p NewStudentParams) Student {
	gpa := ParseMeasure(p.GPA)
	mark := ParseMeasure(p.Mark)
	return Student{
		ID:          strings.TrimSpace(p.ID),
		Name:        strings.TrimSpace(p.Name),
		Class:       strings.TrimSpace(p.Class),
		GPA:         gpa,
		Mark:        mark,
		Score:       CompositeScore(gpa, mark),
		Session:     strings.TrimSpace(p.Session),
		Goal:        Goal(strings.TrimSpace(p.Goal)),
		Skills:      ParseSkills(p.Skills),
		DesiredRole: strings.TrimSpace(p.DesiredRole),
		Role:        ParseRole(p.DesiredRole),
	}
}

// ScaledMark returns the supplementary mark on the 4-point scale.
func (s Student) ScaledMark() float64 {
	return RescaleMark(s.Mark)
}
