package grouping

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ──────────────────────────────────────────────────────────────────────────────
// swap primitive
// ──────────────────────────────────────────────────────────────────────────────

func TestBestSwap_FirstOfEqualCandidatesWins(t *testing.T) {
	a := testArena(
		[]Student{newTestStudent("a", 4), newTestStudent("b", 4)},
		[]Student{newTestStudent("c", 1), newTestStudent("d", 1)},
	)

	q := swapSearch{groupA: 0, groupB: 1, current: a.gap(), objective: gapObjective}
	p, ok := a.bestSwap(q)

	require.True(t, ok)
	assert.Equal(t, swapPair{posA: 0, posB: 0}, p)
	assert.Equal(t, []string{"a", "b"}, a.ids(0), "candidates must be reverted")
}

func TestBestSwap_RequiresStrictImprovement(t *testing.T) {
	a := testArena(
		[]Student{newTestStudent("a", 4), newTestStudent("b", 4)},
		[]Student{newTestStudent("c", 1), newTestStudent("d", 1)},
	)

	_, ok := a.bestSwap(swapSearch{groupA: 0, groupB: 1, current: 0, objective: gapObjective})
	assert.False(t, ok)

	_, ok = a.bestSwap(swapSearch{groupA: 1, groupB: 1, current: math.Inf(1), objective: gapObjective})
	assert.False(t, ok)
}

func TestBestSwap_RespectsEligibility(t *testing.T) {
	a := testArena(
		[]Student{newTestStudent("lead", 4, withRole(RoleOfficialLeader)), newTestStudent("b", 4)},
		[]Student{newTestStudent("c", 1), newTestStudent("d", 1)},
	)

	p, ok := a.bestSwap(swapSearch{
		groupA:    0,
		groupB:    1,
		current:   a.gap(),
		objective: gapObjective,
		eligibleA: notOfficialLeader,
		eligibleB: notOfficialLeader,
	})

	require.True(t, ok)
	assert.Equal(t, 1, p.posA)
}

// ──────────────────────────────────────────────────────────────────────────────
// leadership
// ──────────────────────────────────────────────────────────────────────────────

func TestEnsureLeaders_PrefersLeadershipSkill(t *testing.T) {
	a := testArena(
		[]Student{newTestStudent("top", 3.8), newTestStudent("mgr", 2.1, withSkills(SkillManagement))},
		[]Student{newTestStudent("off", 2.0, withRole(RoleOfficialLeader)), newTestStudent("x", 3.9)},
		[]Student{newTestStudent("p", 2.5), newTestStudent("q", 3.5)},
	)

	st := a.ensureLeaders()

	assert.Equal(t, 2, st.Changes)
	assert.Equal(t, RoleTemporaryLeader, a.member(0, 1).Role)
	assert.Equal(t, RoleMember, a.member(0, 0).Role)
	assert.Equal(t, RoleMember, a.member(1, 1).Role)
	assert.Equal(t, RoleTemporaryLeader, a.member(2, 1).Role)
}

func TestEnsureLeaders_ResetsStaleTemporary(t *testing.T) {
	a := testArena([]Student{
		newTestStudent("old", 1.0, withRole(RoleTemporaryLeader)),
		newTestStudent("new", 3.0),
	})

	st := a.ensureLeaders()

	assert.Equal(t, 1, st.Changes)
	assert.Equal(t, RoleMember, a.member(0, 0).Role)
	assert.Equal(t, RoleTemporaryLeader, a.member(0, 1).Role)

	assert.Zero(t, a.ensureLeaders().Changes)
}

func TestFinalizeLeaders_ExactlyOnePerGroup(t *testing.T) {
	a := testArena(
		[]Student{
			newTestStudent("o1", 3.0, withRole(RoleOfficialLeader)),
			newTestStudent("o2", 3.5, withRole(RoleOfficialLeader)),
			newTestStudent("t1", 3.9, withRole(RoleTemporaryLeader)),
		},
		[]Student{newTestStudent("m1", 1.0), newTestStudent("m2", 2.0)},
		[]Student{
			newTestStudent("t2", 1.0, withRole(RoleTemporaryLeader)),
			newTestStudent("t3", 2.0, withRole(RoleTemporaryLeader)),
		},
	)

	st := a.finalizeLeaders()

	assert.Equal(t, 4, st.Changes)
	assert.Equal(t, RoleMember, a.member(0, 0).Role)
	assert.Equal(t, RoleOfficialLeader, a.member(0, 1).Role)
	assert.Equal(t, RoleMember, a.member(0, 2).Role)
	assert.Equal(t, RoleTemporaryLeader, a.member(1, 1).Role)
	assert.Equal(t, RoleMember, a.member(2, 0).Role)
	assert.Equal(t, RoleTemporaryLeader, a.member(2, 1).Role)
	assert.NotPanics(t, func() { a.checkLeaders(StageFinalizeLeaders) })
}

func TestBalanceLeaderFairness_MovesSurplusOfficial(t *testing.T) {
	a := testArena(
		[]Student{
			newTestStudent("o1", 3.0, withRole(RoleOfficialLeader)),
			newTestStudent("o2", 2.0, withRole(RoleOfficialLeader)),
			newTestStudent("m", 1.0),
		},
		[]Student{
			newTestStudent("t", 2.9, withRole(RoleTemporaryLeader)),
			newTestStudent("n", 1.1),
		},
	)

	st := a.balanceLeaderFairness(10, 0.5)

	assert.Equal(t, 1, st.Swaps)
	assert.False(t, st.CapReached)
	assert.Equal(t, []string{"t", "o2", "m"}, a.ids(0))
	assert.Equal(t, []string{"o1", "n"}, a.ids(1))
	assert.Equal(t, RoleMember, a.member(0, 0).Role, "temporary steps down next to an official")

	for g := range a.groups {
		official, temporary := a.leaderCounts(g)
		assert.Equal(t, 1, official)
		assert.Zero(t, temporary)
	}
}

func TestBalanceLeaderFairness_ToleranceIsInclusive(t *testing.T) {
	build := func(candidate float64) *arena {
		return testArena(
			[]Student{
				newTestStudent("o1", 3.0, withRole(RoleOfficialLeader)),
				newTestStudent("o2", 3.0, withRole(RoleOfficialLeader)),
			},
			[]Student{newTestStudent("m", candidate)},
		)
	}

	assert.Equal(t, 1, build(2.5).balanceLeaderFairness(10, 0.5).Swaps)
	assert.Zero(t, build(2.4).balanceLeaderFairness(10, 0.5).Swaps)
}

// ──────────────────────────────────────────────────────────────────────────────
// target balancer
// ──────────────────────────────────────────────────────────────────────────────

func TestBalanceTargets_SplitsClusteredGoals(t *testing.T) {
	var high, pass []Student
	for i, score := range []float64{3.6, 3.2, 2.8, 2.4} {
		high = append(high, newTestStudent("h"+string(rune('1'+i)), score, withGoal(GoalHighGrade)))
		pass = append(pass, newTestStudent("p"+string(rune('1'+i)), score-0.1, withGoal(GoalPass)))
	}
	a := testArena(high, pass)

	st := a.balanceTargets(200)

	assert.False(t, st.CapReached)
	assert.Equal(t, 2, st.Swaps)
	for g := range a.groups {
		assert.Equal(t, 2, a.goalCount(g, GoalHighGrade))
		assert.Equal(t, 2, a.goalCount(g, GoalPass))
	}
}

func TestBalanceTargets_NoGroupExceedsShare(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		a := partition("Ca 1", randomRoster(27, seed), 4)

		st := a.balanceTargets(200)
		if st.CapReached {
			continue
		}

		shares := a.goalShares()
		for _, goal := range Goals {
			for g := range a.groups {
				assert.LessOrEqual(t, a.goalCount(g, goal), shares[goal][g], "seed=%d goal=%s group=%d", seed, goal, g)
			}
		}
	}
}

func TestGoalShares_RemainderToLowestIndices(t *testing.T) {
	a := testArena(
		[]Student{newTestStudent("a", 1, withGoal(GoalProduct)), newTestStudent("b", 1, withGoal(GoalProduct))},
		[]Student{newTestStudent("c", 1, withGoal(GoalProduct))},
		[]Student{newTestStudent("d", 1, withGoal(GoalProduct))},
		[]Student{newTestStudent("e", 1, withGoal(GoalPass))},
	)

	shares := a.goalShares()

	assert.Equal(t, []int{1, 1, 1, 1}, shares[GoalProduct])
	assert.Equal(t, []int{1, 0, 0, 0}, shares[GoalPass])
	assert.Equal(t, []int{0, 0, 0, 0}, shares[GoalLearn])
}

// ──────────────────────────────────────────────────────────────────────────────
// skill balancer
// ──────────────────────────────────────────────────────────────────────────────

func TestBalanceSkills_DonatesSpareHolder(t *testing.T) {
	a := testArena(
		[]Student{
			newTestStudent("A", 3.0, withSkills(SkillCoding)),
			newTestStudent("B", 2.0, withSkills(SkillCoding)),
			newTestStudent("C", 1.0),
		},
		[]Student{newTestStudent("D", 2.1), newTestStudent("E", 1.5)},
	)

	st := a.balanceSkills(100, rand.New(rand.NewSource(42)))

	assert.Equal(t, 1, st.Swaps)
	assert.False(t, st.CapReached)
	assert.Equal(t, []string{"D", "B", "C"}, a.ids(0))
	assert.Equal(t, []string{"A", "E"}, a.ids(1))
	assert.Equal(t, 1, a.skillHolders(0, SkillCoding))
	assert.Equal(t, 1, a.skillHolders(1, SkillCoding))
}

func TestBalanceSkills_SingleHolderStays(t *testing.T) {
	a := testArena(
		[]Student{newTestStudent("only", 3.0, withSkills(SkillDesign)), newTestStudent("x", 2.0)},
		[]Student{newTestStudent("y", 2.5), newTestStudent("z", 1.0)},
	)

	st := a.balanceSkills(100, rand.New(rand.NewSource(42)))

	assert.Zero(t, st.Swaps)
	assert.False(t, st.CapReached)
	assert.Equal(t, []string{"only", "x"}, a.ids(0))
}

// ──────────────────────────────────────────────────────────────────────────────
// score balancers
// ──────────────────────────────────────────────────────────────────────────────

func TestBalanceScores_GapNeverGrows(t *testing.T) {
	a := partition("Ca 1", randomRoster(33, 9), 5)
	a.ensureLeaders()

	prev := a.gap()
	for i := 0; i < 500; i++ {
		st := a.balanceScores(scorePass{maxIter: 1, eligible: anyMember})
		cur := a.gap()
		assert.LessOrEqual(t, cur, prev+1e-12, "step %d", i)
		prev = cur
		if st.Swaps == 0 {
			break
		}
	}
}

func TestBalanceScores_ProtectedKeepsOfficialLeaders(t *testing.T) {
	a := testArena(
		[]Student{newTestStudent("lead", 4.0, withRole(RoleOfficialLeader)), newTestStudent("b", 3.0)},
		[]Student{newTestStudent("c", 1.0), newTestStudent("d", 1.0)},
	)

	a.balanceScores(scorePass{maxIter: 50, eligible: notOfficialLeader})

	assert.Equal(t, "lead", a.member(0, 0).ID)
}

func TestBalanceScores_StopsAtThreshold(t *testing.T) {
	a := testArena(
		[]Student{newTestStudent("a", 3.0), newTestStudent("b", 3.04)},
		[]Student{newTestStudent("c", 3.0), newTestStudent("d", 3.0)},
	)

	st := a.balanceScores(scorePass{maxIter: 50, eligible: anyMember, threshold: 0.05})

	assert.Zero(t, st.Iterations)
}

func TestBalanceScores_CapReached(t *testing.T) {
	a := testArena(
		[]Student{newTestStudent("a", 4.0), newTestStudent("b", 4.0)},
		[]Student{newTestStudent("c", 1.0), newTestStudent("d", 1.0)},
	)

	st := a.balanceScores(scorePass{maxIter: 0, eligible: anyMember})

	assert.True(t, st.CapReached)
	assert.Zero(t, st.Swaps)
}

// ──────────────────────────────────────────────────────────────────────────────
// size rebalancer
// ──────────────────────────────────────────────────────────────────────────────

func TestRebalanceSizes_MovesBestPlainMember(t *testing.T) {
	a := testArena(
		[]Student{
			newTestStudent("lead", 3.0, withRole(RoleOfficialLeader)),
			newTestStudent("a", 2.0),
			newTestStudent("b", 2.5),
			newTestStudent("c", 1.0),
			newTestStudent("d", 3.5),
		},
		[]Student{newTestStudent("e", 2.0), newTestStudent("f", 2.0)},
	)

	st := a.rebalanceSizes(4)

	assert.Equal(t, 1, st.Moves)
	assert.Equal(t, []string{"lead", "a", "c", "d"}, a.ids(0))
	assert.Equal(t, []string{"e", "f", "b"}, a.ids(1))
	assert.NotPanics(t, func() { a.checkMembership(StageSizeRebalance) })

	assert.Zero(t, a.rebalanceSizes(4).Moves, "at most one transfer needed")
}

func TestRebalanceSizes_NoopWhenBalanced(t *testing.T) {
	a := testArena(
		[]Student{newTestStudent("a", 2), newTestStudent("b", 2), newTestStudent("c", 2)},
		[]Student{newTestStudent("d", 2), newTestStudent("e", 2)},
	)

	assert.Zero(t, a.rebalanceSizes(3).Moves)
}

func TestRebalanceSizes_NeedsGroupOverTarget(t *testing.T) {
	a := testArena(
		[]Student{newTestStudent("a", 3), newTestStudent("b", 2), newTestStudent("c", 1)},
		[]Student{newTestStudent("d", 2)},
	)

	assert.Zero(t, a.rebalanceSizes(3).Moves, "sizes differ by two but none is over the target")
	assert.Equal(t, 3, a.size(0))
}

func TestRebalanceSizes_IdleInPipeline(t *testing.T) {
	engine := NewEngine(Config{GroupSize: 4, Seed: 1})
	for n := 1; n <= 30; n++ {
		var roster []Student
		for i := 0; i < n; i++ {
			roster = append(roster, newTestStudent(fmt.Sprintf("s%02d", i), float64(i%7)))
		}

		res := engine.FormCohort(Cohort{Session: "Ca 1", Students: roster})

		for _, st := range res.Stages {
			if st.Stage == StageSizeRebalance {
				assert.Zero(t, st.Moves, "n=%d", n)
			}
		}
		for _, g := range res.Groups {
			assert.LessOrEqual(t, len(g.Members), 4, "n=%d", n)
		}
	}
}

func TestArena_MoveUnmoveRoundTrip(t *testing.T) {
	a := testArena(
		[]Student{newTestStudent("a", 1), newTestStudent("b", 2), newTestStudent("c", 3)},
		[]Student{newTestStudent("d", 4)},
	)

	a.move(0, 1, 1)
	assert.Equal(t, []string{"a", "c"}, a.ids(0))
	assert.Equal(t, []string{"d", "b"}, a.ids(1))

	a.unmove(0, 1, 1)
	assert.Equal(t, []string{"a", "b", "c"}, a.ids(0))
	assert.Equal(t, []string{"d"}, a.ids(1))
}

// ──────────────────────────────────────────────────────────────────────────────
// invariants
// ──────────────────────────────────────────────────────────────────────────────

func TestCheckMembership_PanicsOnDuplicate(t *testing.T) {
	a := testArena(
		[]Student{newTestStudent("a", 1), newTestStudent("b", 2)},
		[]Student{newTestStudent("c", 3)},
	)
	a.groups[1] = append(a.groups[1], a.groups[0][0])

	defer func() {
		r := recover()
		err, ok := r.(error)
		require.True(t, ok)
		assert.ErrorIs(t, err, ErrInvariant)
		assert.Contains(t, err.Error(), `"a"`)
	}()
	a.checkMembership(StageFreeBalance)
}

func TestCheckLeaders_PanicsOnLeaderlessGroup(t *testing.T) {
	a := testArena([]Student{newTestStudent("a", 1)})

	assert.Panics(t, func() { a.checkLeaders(StageFinalizeLeaders) })
}
