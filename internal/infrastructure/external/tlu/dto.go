// Package tlu implements the Thuy Loi University student portal client.
// It authenticates students with their portal credentials and reads the
// profile data the registration form is pre-filled with.
package tlu

import (
	"encoding/json"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// AUTH DTOs
// ══════════════════════════════════════════════════════════════════════════════

// TokenDTO is the OAuth token returned by the portal.
type TokenDTO struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
	Scope        string `json:"scope,omitempty"`

	// ExpiresAt is computed on receipt; zero when the portal sent no lifetime.
	ExpiresAt time.Time `json:"-"`
}

// IsExpired reports whether the token lifetime has passed.
func (t *TokenDTO) IsExpired() bool {
	if t.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(t.ExpiresAt)
}

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE DTOs
// ══════════════════════════════════════════════════════════════════════════════

// SummaryDTO is the cumulative result summary of the logged-in student.
type SummaryDTO struct {
	Student StudentDTO `json:"student"`

	// Mark4 is the GPA on the 4-point scale.
	Mark4 *float64 `json:"mark4"`

	// Mark is the GPA on the 10-point scale.
	Mark *float64 `json:"mark,omitempty"`
}

// StudentDTO is the student block of the summary.
type StudentDTO struct {
	StudentCode     string    `json:"studentCode"`
	DisplayName     string    `json:"displayName"`
	EnrollmentClass *ClassDTO `json:"enrollmentClass"`
}

// ClassDTO is an administrative class.
type ClassDTO struct {
	ClassCode string `json:"classCode,omitempty"`
	ClassName string `json:"className"`
}

// SubjectDTO identifies a subject.
type SubjectDTO struct {
	SubjectCode string `json:"subjectCode"`
	SubjectName string `json:"subjectName,omitempty"`
}

// SubjectMarkDTO is one entry of the per-subject mark list.
type SubjectMarkDTO struct {
	Subject SubjectDTO `json:"subject"`
	Mark    *float64   `json:"mark"`
}

// CourseDTO is one enrolled course section.
type CourseDTO struct {
	CourseSubject CourseSubjectDTO `json:"courseSubject"`
}

// CourseSubjectDTO describes the section and its timetable.
type CourseSubjectDTO struct {
	// CourseSubjectType distinguishes theory and practice sections.
	CourseSubjectType int                `json:"courseSubjectType"`
	SemesterSubject   SemesterSubjectDTO `json:"semesterSubject"`
	Timetables        []TimetableDTO     `json:"timetables"`
}

// SemesterSubjectDTO wraps the subject of a section.
type SemesterSubjectDTO struct {
	Subject SubjectDTO `json:"subject"`
}

// TimetableDTO is one weekly meeting of a section.
type TimetableDTO struct {
	StartHour PeriodDTO `json:"startHour"`
	EndHour   PeriodDTO `json:"endHour"`
}

// PeriodDTO is a teaching period of the day, 1 to 12.
type PeriodDTO struct {
	IndexNumber int `json:"indexNumber"`
}

// MarkListDTO tolerates entries that are not objects; the portal mixes them
// into the list.
type MarkListDTO []SubjectMarkDTO

// UnmarshalJSON skips entries that do not decode as subject marks.
func (m *MarkListDTO) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(MarkListDTO, 0, len(raw))
	for _, item := range raw {
		var mark SubjectMarkDTO
		if err := json.Unmarshal(item, &mark); err != nil {
			continue
		}
		out = append(out, mark)
	}
	*m = out
	return nil
}
