// Package registration holds the sign-up record a student submits before
// groups are formed. It has no I/O; storage lives in infrastructure.
package registration

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tlu-hub/tlu-group-hub/internal/domain/grouping"
	"github.com/tlu-hub/tlu-group-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Registration is one student's sign-up for a class.
type Registration struct {
	StudentID shared.StudentID
	Name      string

	// CurrentClass is the administrative class from the portal, e.g. "64HTTT2".
	CurrentClass string

	// GPA on the 0-4 scale, as reported by the portal.
	GPA float64

	// Mark is the supplementary exam mark on the 0-10 scale. Nil when the
	// portal has no mark for the subject.
	Mark *float64

	Sessions    shared.SessionSlots
	Goal        grouping.Goal
	Strengths   grouping.SkillSet
	DesiredRole string

	// Class is the course class the student registers into.
	Class shared.ClassCode

	UpdatedAt time.Time
}

// Validate checks the fields a registration must carry before it is stored.
func (r *Registration) Validate() error {
	if !r.StudentID.IsValid() {
		return shared.ErrInvalidStudentID
	}
	if !r.Class.IsValid() {
		return shared.ErrUnknownClass
	}
	if !r.Goal.IsValid() {
		return shared.ErrUnknownGoal
	}
	if r.GPA < 0 || r.GPA > 4 || math.IsNaN(r.GPA) {
		return shared.ErrInvalidGPA
	}
	if r.Mark != nil && (*r.Mark < 0 || *r.Mark > 10 || math.IsNaN(*r.Mark)) {
		return shared.ErrInvalidMark
	}
	return nil
}

// Session returns the stored session tag, the cohort key of the engine.
func (r *Registration) Session() string {
	return r.Sessions.String()
}

// MarkValue returns the supplementary mark or zero when absent.
func (r *Registration) MarkValue() float64 {
	if r.Mark == nil {
		return 0
	}
	return *r.Mark
}

// Row renders the registration in the stored column order: student id, name,
// current class, GPA, mark, session, goal, strengths, desired role.
func (r *Registration) Row() []string {
	mark := ""
	if r.Mark != nil {
		mark = FormatNumber(*r.Mark)
	}
	return []string{
		r.StudentID.String(),
		r.Name,
		r.CurrentClass,
		FormatNumber(r.GPA),
		mark,
		r.Session(),
		string(r.Goal),
		r.Strengths.String(),
		r.DesiredRole,
	}
}

// ToStudent converts the registration into an engine roster entry.
func (r *Registration) ToStudent() grouping.Student {
	mark := r.MarkValue()
	skills := make(grouping.SkillSet, len(r.Strengths))
	for s := range r.Strengths {
		skills[s] = struct{}{}
	}
	return grouping.Student{
		ID:          r.StudentID.String(),
		Name:        r.Name,
		Class:       r.CurrentClass,
		GPA:         r.GPA,
		Mark:        mark,
		Score:       grouping.CompositeScore(r.GPA, mark),
		Session:     r.Session(),
		Goal:        r.Goal,
		Skills:      skills,
		DesiredRole: r.DesiredRole,
		Role:        grouping.ParseRole(r.DesiredRole),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CONSTRUCTION
// ══════════════════════════════════════════════════════════════════════════════

// FromRow parses a stored row of the registered class. Numeric columns that
// do not parse become zero (GPA) or absent (mark).
func FromRow(class shared.ClassCode, row []string) Registration {
	get := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	var mark *float64
	if v, ok := grouping.LookupMeasure(get(4)); ok {
		mark = &v
	}

	return Registration{
		StudentID:    shared.StudentID(get(0)),
		Name:         get(1),
		CurrentClass: get(2),
		GPA:          grouping.ParseMeasure(get(3)),
		Mark:         mark,
		Sessions:     shared.ParseSessionSlots(get(5)),
		Goal:         grouping.Goal(get(6)),
		Strengths:    grouping.ParseSkills(get(7)),
		DesiredRole:  get(8),
		Class:        class,
	}
}

// FormatNumber prints a measure without trailing zeros.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Roster converts registrations to engine input, preserving order.
func Roster(regs []Registration) []grouping.Student {
	out := make([]grouping.Student, len(regs))
	for i := range regs {
		out[i] = regs[i].ToStudent()
	}
	return out
}
