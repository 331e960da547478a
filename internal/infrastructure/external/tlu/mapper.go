package tlu

import (
	"strings"
	"time"

	"github.com/tlu-hub/tlu-group-hub/internal/domain/registration"
	"github.com/tlu-hub/tlu-group-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAPPER - DTO to domain transformations
// ══════════════════════════════════════════════════════════════════════════════

// Subjects the registration form reads from the portal.
const (
	// MarkSubjectCode is the subject whose mark is the supplementary score.
	MarkSubjectCode = "CSE393"

	// PracticeSubjectCode is the subject whose practice sections define the
	// session slots.
	PracticeSubjectCode = "CSE414"

	// PracticeCourseType marks a practice section.
	PracticeCourseType = 6
)

// Mapper turns portal DTOs into domain values, keeping portal quirks out of
// the domain.
type Mapper struct {
	now func() time.Time
}

// NewMapper creates a Mapper.
func NewMapper() *Mapper {
	return &Mapper{now: time.Now}
}

// Profile assembles the registration profile. The login is the student
// number, so it is used as the student id.
func (m *Mapper) Profile(login string, summary *SummaryDTO, marks MarkListDTO, courses []CourseDTO) registration.Profile {
	p := registration.Profile{
		StudentID: shared.StudentID(strings.TrimSpace(login)),
		Mark:      SubjectMark(marks, MarkSubjectCode),
		Sessions:  PracticeSessions(courses, PracticeSubjectCode),
		FetchedAt: m.now(),
	}
	if summary != nil {
		p.Name = strings.TrimSpace(summary.Student.DisplayName)
		if summary.Student.EnrollmentClass != nil {
			p.CurrentClass = summary.Student.EnrollmentClass.ClassName
		}
		if summary.Mark4 != nil {
			p.GPA = *summary.Mark4
		}
	}
	return p
}

// SubjectMark returns the mark of the first entry for the subject, nil when
// the subject is absent or has no mark yet.
func SubjectMark(marks MarkListDTO, code string) *float64 {
	for _, m := range marks {
		if m.Subject.SubjectCode == code {
			if m.Mark == nil {
				return nil
			}
			v := *m.Mark
			return &v
		}
	}
	return nil
}

// PracticeSessions collects the distinct session slots of the practice
// sections of a subject. Timetables whose period range is not a whole slot
// are ignored.
func PracticeSessions(courses []CourseDTO, code string) shared.SessionSlots {
	var slots []shared.SessionSlot
	for _, c := range courses {
		cs := c.CourseSubject
		if cs.SemesterSubject.Subject.SubjectCode != code || cs.CourseSubjectType != PracticeCourseType {
			continue
		}
		for _, tt := range cs.Timetables {
			if slot, ok := shared.SlotForPeriods(tt.StartHour.IndexNumber, tt.EndHour.IndexNumber); ok {
				slots = append(slots, slot)
			}
		}
	}
	return shared.NewSessionSlots(slots...)
}
