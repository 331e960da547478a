package grouping

import (
	"fmt"
	"math"
	"math/rand"
)

// ══════════════════════════════════════════════════════════════════════════════
// TEST FIXTURES
// ══════════════════════════════════════════════════════════════════════════════

type studentOpt func(*Student)

func withGoal(g Goal) studentOpt {
	return func(s *Student) { s.Goal = g }
}

func withSkills(skills ...Skill) studentOpt {
	return func(s *Student) {
		for _, sk := range skills {
			s.Skills[sk] = struct{}{}
		}
	}
}

func withRole(r Role) studentOpt {
	return func(s *Student) {
		s.Role = r
		s.DesiredRole = r.String()
	}
}

func withSession(session string) studentOpt {
	return func(s *Student) { s.Session = session }
}

func newTestStudent(id string, score float64, opts ...studentOpt) Student {
	s := Student{
		ID:          id,
		Name:        "Sinh viên " + id,
		Score:       score,
		GPA:         score,
		Session:     "Ca 1",
		Goal:        GoalLearn,
		Skills:      SkillSet{},
		DesiredRole: MemberLabel,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// testArena builds an arena whose groups hold exactly the given students in
// the given order.
func testArena(groups ...[]Student) *arena {
	var students []Student
	for _, g := range groups {
		students = append(students, g...)
	}
	a := newArena("Ca 1", students, len(groups))
	idx := 0
	for g, members := range groups {
		for range members {
			a.groups[g] = append(a.groups[g], idx)
			idx++
		}
	}
	return a
}

func (a *arena) ids(g int) []string {
	out := make([]string, a.size(g))
	for pos := range a.groups[g] {
		out[pos] = a.member(g, pos).ID
	}
	return out
}

// randomRoster generates a reproducible roster spread over the sessions.
func randomRoster(n int, seed int64, sessions ...string) []Student {
	if len(sessions) == 0 {
		sessions = []string{"Ca 1"}
	}
	rng := rand.New(rand.NewSource(seed))
	roster := make([]Student, 0, n)
	for i := 0; i < n; i++ {
		score := math.Round(rng.Float64()*400) / 100
		opts := []studentOpt{
			withSession(sessions[rng.Intn(len(sessions))]),
			withGoal(Goals[rng.Intn(len(Goals))]),
		}
		for _, sk := range Skills {
			if rng.Intn(3) == 0 {
				opts = append(opts, withSkills(sk))
			}
		}
		if rng.Intn(6) == 0 {
			opts = append(opts, withRole(RoleOfficialLeader))
		}
		roster = append(roster, newTestStudent(fmt.Sprintf("SV%03d", i+1), score, opts...))
	}
	return roster
}
