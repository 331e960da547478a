package grouping

import "math"

// ══════════════════════════════════════════════════════════════════════════════
// TARGET BALANCER
// ══════════════════════════════════════════════════════════════════════════════

// goalShares is the fair number of holders of each goal per group. The
// remainder of the integer division goes to the lowest group indices.
type goalShares map[Goal][]int

func (a *arena) goalShares() goalShares {
	groups := len(a.groups)
	shares := make(goalShares, len(Goals))
	for _, goal := range Goals {
		total := 0
		for g := range a.groups {
			total += a.goalCount(g, goal)
		}
		per := make([]int, groups)
		for g := range per {
			per[g] = total / groups
			if g < total%groups {
				per[g]++
			}
		}
		shares[goal] = per
	}
	return shares
}

// accepts reports whether group g can take one more holder of goal without
// going over its share. Goals outside the catalog are not balanced.
func (s goalShares) accepts(a *arena, g int, goal Goal) bool {
	per, ok := s[goal]
	if !ok {
		return true
	}
	return a.goalCount(g, goal) < per[g]
}

func (s goalShares) hasSurplus(a *arena) bool {
	for _, goal := range Goals {
		for g := range a.groups {
			if a.goalCount(g, goal) > s[goal][g] {
				return true
			}
		}
	}
	return false
}

// balanceTargets swaps holders of over-represented goals into groups that
// lack them until no group exceeds its share.
func (a *arena) balanceTargets(maxIter int) stageStats {
	var st stageStats
	if len(a.groups) < 2 {
		return st
	}
	shares := a.goalShares()

	for {
		if !shares.hasSurplus(a) {
			return st
		}
		if st.Iterations >= maxIter {
			st.CapReached = true
			return st
		}
		st.Iterations++
		if !a.fixGoalSurplus(shares) {
			return st
		}
		st.Swaps++
	}
}

// fixGoalSurplus applies the first feasible corrective swap in goal, surplus
// group, deficit group order.
func (a *arena) fixGoalSurplus(shares goalShares) bool {
	for _, goal := range Goals {
		per := shares[goal]
		for g := range a.groups {
			if a.goalCount(g, goal) <= per[g] {
				continue
			}
			for h := range a.groups {
				if h == g || a.goalCount(h, goal) >= per[h] {
					continue
				}
				if a.swapGoal(goal, g, h, shares) {
					return true
				}
			}
		}
	}
	return false
}

// swapGoal moves one holder of goal from g to h in exchange for a member of h
// with a different goal, preferring members g can absorb without creating a
// new surplus.
func (a *arena) swapGoal(goal Goal, g, h int, shares goalShares) bool {
	holds := func(s *Student) bool { return s.Goal == goal }
	absorbable := func(s *Student) bool {
		return s.Goal != goal && shares.accepts(a, g, s.Goal)
	}
	different := func(s *Student) bool { return s.Goal != goal }

	for _, eligibleB := range []eligibility{absorbable, different} {
		q := swapSearch{
			groupA:    g,
			groupB:    h,
			current:   math.Inf(1),
			objective: scoreDiffObjective(g, h),
			eligibleA: holds,
			eligibleB: eligibleB,
		}
		if p, ok := a.bestSwap(q); ok {
			q.apply(a, p)
			return true
		}
	}
	return false
}
