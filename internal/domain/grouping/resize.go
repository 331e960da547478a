package grouping

import "math"

// ══════════════════════════════════════════════════════════════════════════════
// GROUP-SIZE REBALANCER
// ══════════════════════════════════════════════════════════════════════════════

// rebalanceSizes moves at most one plain member from the largest group to the
// smallest one, choosing the move that leaves the lowest gap. It fires only
// when one group is over the target size while another is under it.
//
// Inside FormCohort it never fires: the serpentine seed keeps every group at
// or under the target and the earlier stages only swap. It moves members for
// arenas whose sizes were set another way.
func (a *arena) rebalanceSizes(target int) stageStats {
	var st stageStats
	if len(a.groups) < 2 {
		return st
	}

	largest, smallest := 0, 0
	for g := range a.groups {
		if a.size(g) > a.size(largest) {
			largest = g
		}
		if a.size(g) < a.size(smallest) {
			smallest = g
		}
	}

	if a.size(largest) <= target || a.size(smallest) >= target {
		return st
	}
	st.Iterations++

	best, bestPos := math.Inf(1), -1
	for pos := 0; pos < a.size(largest); pos++ {
		if a.member(largest, pos).Role != RoleMember {
			continue
		}
		a.move(largest, pos, smallest)
		v := a.gap()
		a.unmove(largest, pos, smallest)
		if v < best {
			best, bestPos = v, pos
		}
	}
	if bestPos < 0 {
		return st
	}

	a.move(largest, bestPos, smallest)
	st.Moves++
	return st
}
