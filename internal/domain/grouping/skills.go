package grouping

import (
	"math"
	"math/rand"
)

// ══════════════════════════════════════════════════════════════════════════════
// SKILL BALANCER
// ══════════════════════════════════════════════════════════════════════════════

// balanceSkills gives every group at least one holder of each catalog skill
// while the cohort has holders to spare. A donor group must keep one holder,
// so a skill held by a single student stays where it is.
func (a *arena) balanceSkills(maxIter int, rng *rand.Rand) stageStats {
	var st stageStats
	if len(a.groups) < 2 {
		return st
	}

	for {
		if st.Iterations >= maxIter {
			st.CapReached = a.skillGapFixable()
			return st
		}
		st.Iterations++

		swapped := 0
		for _, skill := range Skills {
			for m := range a.groups {
				if a.size(m) == 0 || a.skillHolders(m, skill) > 0 {
					continue
				}
				if a.donateSkill(skill, m, rng) {
					swapped++
				}
			}
		}
		st.Swaps += swapped
		if swapped == 0 {
			return st
		}
	}
}

// skillGapFixable reports whether some group still misses a skill that a
// donor could provide.
func (a *arena) skillGapFixable() bool {
	for _, skill := range Skills {
		missing, donors := false, false
		for g := range a.groups {
			switch n := a.skillHolders(g, skill); {
			case n == 0 && a.size(g) > 0:
				missing = true
			case n >= 2:
				donors = true
			}
		}
		if missing && donors {
			return true
		}
	}
	return false
}

// donorGroup picks the group with the most spare holders of skill. Equal
// candidates are resolved with the seeded generator.
func (a *arena) donorGroup(skill Skill, exclude int, rng *rand.Rand) int {
	var candidates []int
	most := 1
	for g := range a.groups {
		if g == exclude {
			continue
		}
		n := a.skillHolders(g, skill)
		switch {
		case n > most:
			most, candidates = n, []int{g}
		case n == most && n > 1:
			candidates = append(candidates, g)
		}
	}
	switch len(candidates) {
	case 0:
		return -1
	case 1:
		return candidates[0]
	default:
		return candidates[rng.Intn(len(candidates))]
	}
}

// donateSkill swaps a holder of skill from a donor group into group m.
func (a *arena) donateSkill(skill Skill, m int, rng *rand.Rand) bool {
	d := a.donorGroup(skill, m, rng)
	if d < 0 {
		return false
	}

	holds := func(s *Student) bool { return s.Skills.Has(skill) }
	pos := a.bestMember(d, func(s *Student) bool { return holds(s) && s.Role == RoleMember }, higherScore)
	if pos < 0 {
		pos = a.bestMember(d, holds, higherScore)
	}
	donor := a.member(d, pos)

	for _, eligibleB := range []eligibility{plainMember, anyMember} {
		q := swapSearch{
			groupA:    d,
			groupB:    m,
			current:   math.Inf(1),
			objective: scoreDiffObjective(d, m),
			eligibleA: func(s *Student) bool { return s == donor },
			eligibleB: eligibleB,
		}
		if p, ok := a.bestSwap(q); ok {
			q.apply(a, p)
			return true
		}
	}
	return false
}
