package shared

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// StudentID is a university student number (MSSV), which is also the portal
// login.
type StudentID string

var studentIDRegex = regexp.MustCompile(`^[0-9A-Za-z]{4,20}$`)

// IsValid checks if the student number has a plausible format.
func (s StudentID) IsValid() bool {
	return studentIDRegex.MatchString(string(s))
}

// String returns the string representation.
func (s StudentID) String() string {
	return string(s)
}

// NewStudentID creates a new StudentID with validation.
func NewStudentID(id string) (StudentID, error) {
	sid := StudentID(strings.TrimSpace(id))
	if !sid.IsValid() {
		return "", ErrInvalidStudentID
	}
	return sid, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Class Value Object
// ═══════════════════════════════════════════════════════════════════════════

// ClassCode names a course class that students register into.
type ClassCode string

// KnownClasses are the classes that accept registrations.
var KnownClasses = []ClassCode{"64HTTT1", "64HTTT2", "64HTTT3", "64HTTT4"}

// IsValid checks if the class is one of KnownClasses.
func (c ClassCode) IsValid() bool {
	for _, known := range KnownClasses {
		if c == known {
			return true
		}
	}
	return false
}

// String returns the string representation.
func (c ClassCode) String() string {
	return string(c)
}

// NewClassCode creates a new ClassCode with validation.
func NewClassCode(value string) (ClassCode, error) {
	c := ClassCode(strings.TrimSpace(value))
	if !c.IsValid() {
		return "", WrapError("registration", "Validate", ErrInvalidInput, "unknown class", fmt.Errorf("%q", value))
	}
	return c, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Session Slot Value Object
// ═══════════════════════════════════════════════════════════════════════════

// SessionSlot is a practice timetable slot such as "Ca 2".
type SessionSlot string

// Period ranges of the four daily slots.
var slotPeriods = []struct {
	start, end int
	slot       SessionSlot
}{
	{1, 3, "Ca 1"},
	{4, 6, "Ca 2"},
	{7, 9, "Ca 3"},
	{10, 12, "Ca 4"},
}

// SlotForPeriods maps a timetable period range to its slot. Ranges that do
// not match a slot exactly return false.
func SlotForPeriods(start, end int) (SessionSlot, bool) {
	for _, p := range slotPeriods {
		if p.start == start && p.end == end {
			return p.slot, true
		}
	}
	return "", false
}

// SessionSlots is a set of slots kept sorted and free of duplicates.
type SessionSlots []SessionSlot

// NewSessionSlots deduplicates and sorts the slots.
func NewSessionSlots(slots ...SessionSlot) SessionSlots {
	seen := make(map[SessionSlot]struct{}, len(slots))
	out := make(SessionSlots, 0, len(slots))
	for _, s := range slots {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseSessionSlots splits a stored ", "-joined session attribute.
func ParseSessionSlots(attr string) SessionSlots {
	var slots []SessionSlot
	for _, part := range strings.Split(attr, ",") {
		slots = append(slots, SessionSlot(strings.TrimSpace(part)))
	}
	return NewSessionSlots(slots...)
}

// String joins the slots with ", ", the stored form of the session tag.
func (s SessionSlots) String() string {
	parts := make([]string, len(s))
	for i, slot := range s {
		parts[i] = string(slot)
	}
	return strings.Join(parts, ", ")
}
