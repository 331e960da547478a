package registration

import (
	"time"

	"github.com/tlu-hub/tlu-group-hub/internal/domain/grouping"
	"github.com/tlu-hub/tlu-group-hub/internal/domain/shared"
)

// Profile is what the university portal knows about a student. It fills the
// read-only part of the registration form.
type Profile struct {
	StudentID    shared.StudentID
	Name         string
	CurrentClass string
	GPA          float64

	// Mark is nil when the portal has no mark for the supplementary subject.
	Mark *float64

	Sessions  shared.SessionSlots
	FetchedAt time.Time
}

// Choices are the fields the student fills in on the form.
type Choices struct {
	Class       shared.ClassCode
	Goal        grouping.Goal
	Strengths   []grouping.Skill
	DesiredRole string
}

// NewRegistration merges portal data with the student's choices.
func NewRegistration(p Profile, c Choices, now time.Time) Registration {
	strengths := make(grouping.SkillSet, len(c.Strengths))
	for _, s := range c.Strengths {
		if s != "" {
			strengths[s] = struct{}{}
		}
	}
	return Registration{
		StudentID:    p.StudentID,
		Name:         p.Name,
		CurrentClass: p.CurrentClass,
		GPA:          p.GPA,
		Mark:         p.Mark,
		Sessions:     p.Sessions,
		Goal:         c.Goal,
		Strengths:    strengths,
		DesiredRole:  c.DesiredRole,
		Class:        c.Class,
		UpdatedAt:    now,
	}
}

// DesiredRoles are the options offered on the form.
var DesiredRoles = []string{grouping.OfficialLeaderMarker, grouping.MemberLabel}
