// Package presenter turns grouping results into view models and renders them
// as an HTML summary page or a terminal report.
package presenter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tlu-hub/tlu-group-hub/internal/domain/grouping"
)

// ══════════════════════════════════════════════════════════════════════════════
// VIEW MODELS
// ══════════════════════════════════════════════════════════════════════════════

// Summary is everything a rendered run shows.
type Summary struct {
	Title     string
	Class     string
	GroupSize int
	Seed      int64
	Students  int
	Cohorts   []CohortView
}

// CohortView is one session block.
type CohortView struct {
	Session    string
	GroupCount int
	Students   int
	Gap        string
	Spread     string
	Groups     []GroupView
	Stages     []StageView
}

// GroupView is one group card.
type GroupView struct {
	Number  int
	ID      string
	Size    int
	Average string
	Leaders int
	Goals   string
	Skills  string
	Members []MemberRow
}

// MemberRow is one line of a group's member table.
type MemberRow struct {
	STT         int
	ID          string
	Name        string
	GPA         string
	Mark        string
	Score       string
	DesiredRole string
	Role        string
	Goal        string
	Strengths   string
	Leader      bool
}

// StageView is one line of the stage report footer.
type StageView struct {
	Stage       string
	Iterations  int
	Swaps       int
	Moves       int
	RoleChanges int
	CapReached  bool
	Gap         string
}

// ══════════════════════════════════════════════════════════════════════════════
// BUILDING
// ══════════════════════════════════════════════════════════════════════════════

// NewSummary builds the view model of a run. class may be empty when every
// class was grouped together.
func NewSummary(title, class string, res grouping.Result) Summary {
	s := Summary{
		Title:     title,
		Class:     class,
		GroupSize: res.GroupSize,
		Seed:      res.Seed,
		Cohorts:   make([]CohortView, 0, len(res.Cohorts)),
	}
	for _, c := range res.Cohorts {
		cv := newCohortView(c)
		s.Students += cv.Students
		s.Cohorts = append(s.Cohorts, cv)
	}
	return s
}

func newCohortView(c grouping.CohortResult) CohortView {
	cv := CohortView{
		Session:    SessionLabel(c.Session),
		GroupCount: len(c.Groups),
		Students:   c.Size(),
		Gap:        formatScore(c.Gap()),
		Spread:     formatScore(c.Spread()),
		Groups:     make([]GroupView, 0, len(c.Groups)),
		Stages:     make([]StageView, 0, len(c.Stages)),
	}
	for _, g := range c.Groups {
		cv.Groups = append(cv.Groups, newGroupView(g))
	}
	for _, st := range c.Stages {
		cv.Stages = append(cv.Stages, StageView{
			Stage:       st.Stage,
			Iterations:  st.Iterations,
			Swaps:       st.Swaps,
			Moves:       st.Moves,
			RoleChanges: st.RoleChanges,
			CapReached:  st.CapReached,
			Gap:         formatScore(st.Gap),
		})
	}
	return cv
}

func newGroupView(g grouping.Group) GroupView {
	gv := GroupView{
		Number:  g.Number,
		ID:      g.ID,
		Size:    g.Size(),
		Average: formatScore(g.Average()),
		Leaders: g.LeaderCount(),
		Goals:   FormatGoals(g.GoalHistogram()),
		Skills:  strings.Join(skillNames(g.SkillCoverage()), ", "),
		Members: make([]MemberRow, 0, len(g.Members)),
	}
	for i, m := range g.Members {
		gv.Members = append(gv.Members, MemberRow{
			STT:         i + 1,
			ID:          m.ID,
			Name:        m.Name,
			GPA:         formatMeasure(m.GPA),
			Mark:        formatMeasure(m.Mark),
			Score:       formatScore(m.Score),
			DesiredRole: m.DesiredRole,
			Role:        m.Role.String(),
			Goal:        string(m.Goal),
			Strengths:   m.Skills.String(),
			Leader:      m.Role.IsLeader(),
		})
	}
	return gv
}

// ══════════════════════════════════════════════════════════════════════════════
// FORMATTING HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// SessionLabel names a cohort; students without a practice slot share one.
func SessionLabel(session string) string {
	if session == "" {
		return "Chưa xếp ca"
	}
	return session
}

// FormatGoals renders a goal histogram as "Điểm cao: 2, Qua môn: 1".
func FormatGoals(hist []grouping.GoalCount) string {
	parts := make([]string, 0, len(hist))
	for _, gc := range hist {
		goal := string(gc.Goal)
		if goal == "" {
			goal = "?"
		}
		parts = append(parts, fmt.Sprintf("%s: %d", goal, gc.Count))
	}
	return strings.Join(parts, ", ")
}

func skillNames(set grouping.SkillSet) []string {
	sorted := set.Sorted()
	out := make([]string, len(sorted))
	for i, s := range sorted {
		out[i] = string(s)
	}
	return out
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// formatMeasure leaves absent (zero) measures blank.
func formatMeasure(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
