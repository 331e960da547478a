package grouping

// ══════════════════════════════════════════════════════════════════════════════
// PAIRWISE SWAP PRIMITIVE
// ══════════════════════════════════════════════════════════════════════════════

// eligibility decides whether a member may take part in a swap.
type eligibility func(s *Student) bool

// objective scores the arena with the candidate swap already applied. Lower
// is better.
type objective func(a *arena, p swapPair) float64

// swapPair identifies one member position in each of the two groups.
type swapPair struct {
	posA int
	posB int
}

// swapSearch parametrises one call of bestSwap.
type swapSearch struct {
	groupA, groupB int

	// current is the value a candidate has to beat strictly.
	current float64

	objective objective
	eligibleA eligibility
	eligibleB eligibility
}

// bestSwap enumerates every eligible (A member, B member) pair, A positions
// in the outer loop, and returns the first pair reaching the lowest objective
// value strictly below q.current. Each candidate is applied, scored and
// reverted, so the arena is unchanged on return.
func (a *arena) bestSwap(q swapSearch) (swapPair, bool) {
	if q.groupA == q.groupB {
		return swapPair{}, false
	}

	best := q.current
	var found swapPair
	ok := false

	for i := 0; i < a.size(q.groupA); i++ {
		if q.eligibleA != nil && !q.eligibleA(a.member(q.groupA, i)) {
			continue
		}
		for j := 0; j < a.size(q.groupB); j++ {
			if q.eligibleB != nil && !q.eligibleB(a.member(q.groupB, j)) {
				continue
			}
			p := swapPair{posA: i, posB: j}

			a.swap(q.groupA, i, q.groupB, j)
			v := q.objective(a, p)
			a.swap(q.groupA, i, q.groupB, j)

			if v < best {
				best, found, ok = v, p, true
			}
		}
	}
	return found, ok
}

// apply commits the pair found by bestSwap.
func (q swapSearch) apply(a *arena, p swapPair) {
	a.swap(q.groupA, p.posA, q.groupB, p.posB)
}

// gapObjective minimises the spread between the best and worst group average
// over the whole cohort.
func gapObjective(a *arena, _ swapPair) float64 {
	return a.gap()
}

// scoreDiffObjective prefers exchanging members with close scores. With the
// swap applied the former A member sits at posB of group B and vice versa.
func scoreDiffObjective(ga, gb int) objective {
	return func(a *arena, p swapPair) float64 {
		return scoreDistance(a.member(ga, p.posA), a.member(gb, p.posB))
	}
}

func anyMember(*Student) bool { return true }

func notOfficialLeader(s *Student) bool { return s.Role != RoleOfficialLeader }

func isOfficialLeader(s *Student) bool { return s.Role == RoleOfficialLeader }

func plainMember(s *Student) bool { return s.Role == RoleMember }
