package grouping

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Result is the output of one Form call.
type Result struct {
	GroupSize int
	Seed      int64
	Cohorts   []CohortResult
}

// Students returns every output student in cohort, group, member order.
func (r Result) Students() []Student {
	var out []Student
	for _, c := range r.Cohorts {
		for _, g := range c.Groups {
			out = append(out, g.Members...)
		}
	}
	return out
}

// CohortResult holds the groups of one session and how the stages went.
type CohortResult struct {
	Session string
	Groups  []Group
	Stages  []StageReport
}

// Averages returns the average score of each non-empty group.
func (c CohortResult) Averages() []float64 {
	out := make([]float64, 0, len(c.Groups))
	for _, g := range c.Groups {
		if g.Size() > 0 {
			out = append(out, g.Average())
		}
	}
	return out
}

// Gap is the spread between the best and worst group average.
func (c CohortResult) Gap() float64 {
	avgs := c.Averages()
	if len(avgs) == 0 {
		return 0
	}
	lo, hi := avgs[0], avgs[0]
	for _, v := range avgs[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return hi - lo
}

// Spread is the standard deviation of the group averages, zero with fewer
// than two groups.
func (c CohortResult) Spread() float64 {
	avgs := c.Averages()
	if len(avgs) < 2 {
		return 0
	}
	return stat.StdDev(avgs, nil)
}

// Size returns the number of students in the cohort.
func (c CohortResult) Size() int {
	n := 0
	for _, g := range c.Groups {
		n += g.Size()
	}
	return n
}

// Group is one formed working group.
type Group struct {
	ID      string
	Number  int
	Session string
	Members []Student
}

// Size returns the member count.
func (g Group) Size() int {
	return len(g.Members)
}

// Average is the mean composite score, zero for an empty group.
func (g Group) Average() float64 {
	if len(g.Members) == 0 {
		return 0
	}
	scores := make([]float64, len(g.Members))
	for i, m := range g.Members {
		scores[i] = m.Score
	}
	return stat.Mean(scores, nil)
}

// LeaderCount counts official and temporary leaders.
func (g Group) LeaderCount() int {
	n := 0
	for _, m := range g.Members {
		if m.Role.IsLeader() {
			n++
		}
	}
	return n
}

// Leader returns the group leader, or nil.
func (g Group) Leader() *Student {
	for i := range g.Members {
		if g.Members[i].Role.IsLeader() {
			return &g.Members[i]
		}
	}
	return nil
}

// GoalCount is one entry of a goal histogram.
type GoalCount struct {
	Goal  Goal
	Count int
}

// GoalHistogram counts members per goal, catalog goals first, then other
// values in order of first appearance. Goals with no holder are omitted.
func (g Group) GoalHistogram() []GoalCount {
	counts := make(map[Goal]int)
	var order []Goal
	for _, m := range g.Members {
		if _, ok := counts[m.Goal]; !ok {
			order = append(order, m.Goal)
		}
		counts[m.Goal]++
	}

	out := make([]GoalCount, 0, len(counts))
	for _, goal := range Goals {
		if n := counts[goal]; n > 0 {
			out = append(out, GoalCount{Goal: goal, Count: n})
		}
	}
	for _, goal := range order {
		if !goal.IsValid() {
			out = append(out, GoalCount{Goal: goal, Count: counts[goal]})
		}
	}
	return out
}

// SkillCoverage is the union of member skills.
func (g Group) SkillCoverage() SkillSet {
	set := make(SkillSet)
	for _, m := range g.Members {
		for skill := range m.Skills {
			set[skill] = struct{}{}
		}
	}
	return set
}
