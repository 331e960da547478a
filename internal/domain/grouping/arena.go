package grouping

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// ══════════════════════════════════════════════════════════════════════════════
// GROUP ARENA
//
// All students of a cohort live in one slice. Groups hold indices into it,
// so every membership change is an explicit index swap or move and no stage
// can keep a stale reference to a member that was swapped out.
// ══════════════════════════════════════════════════════════════════════════════

type arena struct {
	session  string
	students []Student
	groups   [][]int
}

func newArena(session string, students []Student, groupCount int) *arena {
	return &arena{
		session:  session,
		students: students,
		groups:   make([][]int, groupCount),
	}
}

// member returns the student at position pos of group g.
func (a *arena) member(g, pos int) *Student {
	return &a.students[a.groups[g][pos]]
}

func (a *arena) size(g int) int {
	return len(a.groups[g])
}

// swap exchanges the member at posA of group ga with the member at posB of
// group gb. Applying it twice restores the previous state.
func (a *arena) swap(ga, posA, gb, posB int) {
	a.groups[ga][posA], a.groups[gb][posB] = a.groups[gb][posB], a.groups[ga][posA]
}

// move takes the member at pos out of group from and appends it to group to.
func (a *arena) move(from, pos, to int) {
	idx := a.groups[from][pos]
	a.groups[from] = append(a.groups[from][:pos], a.groups[from][pos+1:]...)
	a.groups[to] = append(a.groups[to], idx)
}

// unmove reverts move(from, pos, to).
func (a *arena) unmove(from, pos, to int) {
	last := len(a.groups[to]) - 1
	idx := a.groups[to][last]
	a.groups[to] = a.groups[to][:last]
	a.groups[from] = append(a.groups[from], 0)
	copy(a.groups[from][pos+1:], a.groups[from][pos:])
	a.groups[from][pos] = idx
}

func (a *arena) scores(g int) []float64 {
	out := make([]float64, len(a.groups[g]))
	for i, idx := range a.groups[g] {
		out[i] = a.students[idx].Score
	}
	return out
}

// average is the mean composite score of group g, zero when empty.
func (a *arena) average(g int) float64 {
	if len(a.groups[g]) == 0 {
		return 0
	}
	return stat.Mean(a.scores(g), nil)
}

// extremes returns the first group with the highest average and the first
// group with the lowest average, ignoring empty groups. ok is false when
// there is no non-empty group.
func (a *arena) extremes() (hi, lo int, ok bool) {
	hi, lo = -1, -1
	var hiAvg, loAvg float64
	for g := range a.groups {
		if len(a.groups[g]) == 0 {
			continue
		}
		avg := a.average(g)
		if hi < 0 || avg > hiAvg {
			hi, hiAvg = g, avg
		}
		if lo < 0 || avg < loAvg {
			lo, loAvg = g, avg
		}
	}
	return hi, lo, hi >= 0
}

// gap is the spread between the highest and lowest group average.
func (a *arena) gap() float64 {
	hi, lo, ok := a.extremes()
	if !ok {
		return 0
	}
	return a.average(hi) - a.average(lo)
}

// leaderCounts returns the number of official and temporary leaders in g.
func (a *arena) leaderCounts(g int) (official, temporary int) {
	for _, idx := range a.groups[g] {
		switch a.students[idx].Role {
		case RoleOfficialLeader:
			official++
		case RoleTemporaryLeader:
			temporary++
		}
	}
	return official, temporary
}

func (a *arena) goalCount(g int, goal Goal) int {
	n := 0
	for _, idx := range a.groups[g] {
		if a.students[idx].Goal == goal {
			n++
		}
	}
	return n
}

func (a *arena) skillHolders(g int, skill Skill) int {
	n := 0
	for _, idx := range a.groups[g] {
		if a.students[idx].Skills.Has(skill) {
			n++
		}
	}
	return n
}

// bestMember returns the position in g of the member with the greatest key,
// first one on ties, or -1 when no member is eligible.
func (a *arena) bestMember(g int, eligible eligibility, better func(x, y *Student) bool) int {
	best := -1
	for pos := range a.groups[g] {
		s := a.member(g, pos)
		if eligible != nil && !eligible(s) {
			continue
		}
		if best < 0 || better(s, a.member(g, best)) {
			best = pos
		}
	}
	return best
}

func higherScore(x, y *Student) bool {
	return x.Score > y.Score
}

func scoreDistance(x, y *Student) float64 {
	return math.Abs(x.Score - y.Score)
}
