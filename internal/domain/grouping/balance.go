package grouping

// ══════════════════════════════════════════════════════════════════════════════
// SCORE BALANCER FAMILY
// ══════════════════════════════════════════════════════════════════════════════

// scorePass configures one run of balanceScores.
type scorePass struct {
	maxIter  int
	eligible eligibility

	// threshold stops the pass once the gap is at or below it. Zero disables
	// the early stop.
	threshold float64
}

// balanceScores repeatedly swaps between the highest and lowest average
// groups while a swap strictly narrows the cohort-wide gap. The gap never
// grows during a pass.
func (a *arena) balanceScores(p scorePass) stageStats {
	var st stageStats
	for {
		hi, lo, ok := a.extremes()
		if !ok || hi == lo {
			return st
		}
		current := a.gap()
		if p.threshold > 0 && current <= p.threshold {
			return st
		}
		if st.Iterations >= p.maxIter {
			st.CapReached = true
			return st
		}
		st.Iterations++

		q := swapSearch{
			groupA:    hi,
			groupB:    lo,
			current:   current,
			objective: gapObjective,
			eligibleA: p.eligible,
			eligibleB: p.eligible,
		}
		pair, found := a.bestSwap(q)
		if !found {
			return st
		}
		q.apply(a, pair)
		st.Swaps++
	}
}

// balanceLeaderFairness moves official leaders out of groups that have more
// than one into groups that have none, exchanging them with a member of
// nearly the same score so averages barely move.
func (a *arena) balanceLeaderFairness(maxIter int, tolerance float64) stageStats {
	var st stageStats
	for {
		if st.Iterations >= maxIter {
			st.CapReached = a.leaderImbalance()
			return st
		}
		st.Iterations++
		if !a.spreadOneLeader(tolerance) {
			return st
		}
		st.Swaps++
	}
}

// leaderImbalance reports whether one group lacks an official leader while
// another has several.
func (a *arena) leaderImbalance() bool {
	none, many := false, false
	for g := range a.groups {
		if a.size(g) == 0 {
			continue
		}
		switch official, _ := a.leaderCounts(g); {
		case official == 0:
			none = true
		case official > 1:
			many = true
		}
	}
	return none && many
}

func (a *arena) spreadOneLeader(tolerance float64) bool {
	for many := range a.groups {
		if official, _ := a.leaderCounts(many); official < 2 {
			continue
		}
		for none := range a.groups {
			if a.size(none) == 0 {
				continue
			}
			if official, _ := a.leaderCounts(none); official > 0 {
				continue
			}
			q := swapSearch{
				groupA:    many,
				groupB:    none,
				current:   tolerance + scoreEpsilon,
				objective: scoreDiffObjective(many, none),
				eligibleA: isOfficialLeader,
				eligibleB: notOfficialLeader,
			}
			if p, ok := a.bestSwap(q); ok {
				q.apply(a, p)
				a.relabelLeaders(many)
				a.relabelLeaders(none)
				return true
			}
		}
	}
	return false
}

// scoreEpsilon makes a score difference equal to the tolerance acceptable.
const scoreEpsilon = 1e-9
