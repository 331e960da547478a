package grouping

import (
	"fmt"
	"math/rand"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config controls the pipeline. Zero fields fall back to DefaultConfig.
type Config struct {
	// GroupSize is the target number of members per group.
	GroupSize int

	// Seed feeds the generator used for last-resort tie-breaks.
	Seed int64

	// Iteration caps, one per stage.
	TargetIterations    int
	SkillIterations     int
	FreeIterations      int
	FairnessIterations  int
	ProtectedIterations int
	StrictIterations    int
	TightIterations     int

	// LeaderSwapTolerance is the largest score difference accepted when an
	// official leader is exchanged for a member.
	LeaderSwapTolerance float64

	// GapTolerance ends the threshold-strict passes.
	GapTolerance float64
}

// DefaultConfig returns the settings used by the registration site.
func DefaultConfig() Config {
	return Config{
		GroupSize:           5,
		Seed:                42,
		TargetIterations:    200,
		SkillIterations:     100,
		FreeIterations:      500,
		FairnessIterations:  100,
		ProtectedIterations: 500,
		StrictIterations:    200,
		TightIterations:     1000,
		LeaderSwapTolerance: 0.5,
		GapTolerance:        0.05,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.GroupSize <= 0 {
		c.GroupSize = d.GroupSize
	}
	if c.TargetIterations <= 0 {
		c.TargetIterations = d.TargetIterations
	}
	if c.SkillIterations <= 0 {
		c.SkillIterations = d.SkillIterations
	}
	if c.FreeIterations <= 0 {
		c.FreeIterations = d.FreeIterations
	}
	if c.FairnessIterations <= 0 {
		c.FairnessIterations = d.FairnessIterations
	}
	if c.ProtectedIterations <= 0 {
		c.ProtectedIterations = d.ProtectedIterations
	}
	if c.StrictIterations <= 0 {
		c.StrictIterations = d.StrictIterations
	}
	if c.TightIterations <= 0 {
		c.TightIterations = d.TightIterations
	}
	if c.LeaderSwapTolerance <= 0 {
		c.LeaderSwapTolerance = d.LeaderSwapTolerance
	}
	if c.GapTolerance <= 0 {
		c.GapTolerance = d.GapTolerance
	}
	return c
}

// ══════════════════════════════════════════════════════════════════════════════
// STAGES
// ══════════════════════════════════════════════════════════════════════════════

// Stage names used in reports and metrics.
const (
	StagePartition       = "partition"
	StageEnsureLeaders   = "ensure_leaders"
	StageTargetBalance   = "target_balance"
	StageSkillBalance    = "skill_balance"
	StageFreeBalance     = "free_balance"
	StageReensureLeaders = "reensure_leaders"
	StageLeaderFairness  = "leader_fairness"
	StageProtected       = "protected_balance"
	StageSizeRebalance   = "size_rebalance"
	StageStrict          = "strict_balance"
	StageStrictTight     = "strict_balance_tight"
	StageFinalizeLeaders = "finalize_leaders"
)

type stageStats struct {
	Iterations int
	Swaps      int
	Moves      int
	Changes    int
	CapReached bool
}

// StageReport summarises one pipeline stage for a cohort.
type StageReport struct {
	Stage       string
	Iterations  int
	Swaps       int
	Moves       int
	RoleChanges int

	// CapReached is set when the stage stopped on its iteration cap with work
	// left. This is an accepted outcome.
	CapReached bool

	// Gap is the max-min group average spread after the stage.
	Gap float64
}

// ══════════════════════════════════════════════════════════════════════════════
// ENGINE
// ══════════════════════════════════════════════════════════════════════════════

// Engine runs the group-formation pipeline. It performs no I/O and is safe
// for concurrent use; each call works on its own copy of the roster.
type Engine struct {
	cfg Config
}

// NewEngine creates an engine. Zero config fields take default values.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg.withDefaults()}
}

// Config returns the effective configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Form splits the roster into cohorts and groups each one independently.
// It panics with *InvariantError if a stage breaks membership or leadership
// invariants.
func (e *Engine) Form(roster []Student) Result {
	cohorts := SplitCohorts(roster)
	res := Result{
		GroupSize: e.cfg.GroupSize,
		Seed:      e.cfg.Seed,
		Cohorts:   make([]CohortResult, 0, len(cohorts)),
	}
	for _, c := range cohorts {
		res.Cohorts = append(res.Cohorts, e.FormCohort(c))
	}
	return res
}

// FormCohort runs the fixed stage sequence on one cohort.
func (e *Engine) FormCohort(c Cohort) CohortResult {
	cfg := e.cfg
	rng := rand.New(rand.NewSource(cfg.Seed))

	a := partition(c.Session, c.Students, cfg.GroupSize)
	out := CohortResult{Session: c.Session}

	run := func(stage string, fn func() stageStats) {
		st := fn()
		a.checkMembership(stage)
		out.Stages = append(out.Stages, StageReport{
			Stage:       stage,
			Iterations:  st.Iterations,
			Swaps:       st.Swaps,
			Moves:       st.Moves,
			RoleChanges: st.Changes,
			CapReached:  st.CapReached,
			Gap:         a.gap(),
		})
	}

	protected := scorePass{maxIter: cfg.ProtectedIterations, eligible: notOfficialLeader}
	strict := scorePass{maxIter: cfg.StrictIterations, eligible: notOfficialLeader, threshold: cfg.GapTolerance}
	tight := scorePass{maxIter: cfg.TightIterations, eligible: notOfficialLeader, threshold: cfg.GapTolerance}

	run(StagePartition, func() stageStats { return stageStats{} })
	run(StageEnsureLeaders, a.ensureLeaders)
	run(StageTargetBalance, func() stageStats { return a.balanceTargets(cfg.TargetIterations) })
	run(StageSkillBalance, func() stageStats { return a.balanceSkills(cfg.SkillIterations, rng) })
	run(StageFreeBalance, func() stageStats {
		return a.balanceScores(scorePass{maxIter: cfg.FreeIterations, eligible: anyMember})
	})
	run(StageReensureLeaders, a.ensureLeaders)
	run(StageLeaderFairness, func() stageStats {
		return a.balanceLeaderFairness(cfg.FairnessIterations, cfg.LeaderSwapTolerance)
	})
	run(StageProtected, func() stageStats { return a.balanceScores(protected) })
	run(StageSizeRebalance, func() stageStats { return a.rebalanceSizes(cfg.GroupSize) })
	run(StageStrict, func() stageStats { return a.balanceScores(strict) })
	run(StageStrictTight, func() stageStats { return a.balanceScores(tight) })
	run(StageFinalizeLeaders, a.finalizeLeaders)
	a.checkLeaders(StageFinalizeLeaders)

	out.Groups = a.export()
	return out
}

// export copies the arena into output groups and stamps group identifiers.
func (a *arena) export() []Group {
	groups := make([]Group, len(a.groups))
	for g, members := range a.groups {
		grp := Group{
			Number:  g + 1,
			Session: a.session,
			ID:      GroupID(a.session, g+1),
			Members: make([]Student, len(members)),
		}
		for i, idx := range members {
			s := a.students[idx]
			s.GroupID = grp.ID
			grp.Members[i] = s
		}
		groups[g] = grp
	}
	return groups
}

// GroupID formats the identifier of the n-th group (1-based) of a session.
func GroupID(session string, n int) string {
	return fmt.Sprintf("%s_G%d", session, n)
}
