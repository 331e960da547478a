// Package grouping forms balanced working groups from a scored roster.
//
// The package is the core of TLU Group Hub. It has no I/O and depends only on
// the standard library and gonum/stat. It defines:
//
//   - Student, Role, Goal, Skill: the roster model and its fixed catalogs
//   - Engine: the multi-stage pipeline that turns a roster into groups
//   - Result, CohortResult, Group: the output together with summary helpers
//
// # Pipeline
//
// The roster is split by session tag and each cohort is processed on its
// own, in this order:
//
//  1. partition: stable sort by composite score, serpentine assignment
//  2. ensure_leaders: a temporary leader in every group without an official one
//  3. target_balance: even out declared goals
//  4. skill_balance: spread every skill tag over the groups
//  5. free_balance: narrow the gap between group averages
//  6. reensure_leaders: swaps may have displaced leaders
//  7. leader_fairness: move surplus official leaders to leaderless groups
//  8. protected_balance: narrow the gap without touching official leaders
//  9. size_rebalance: at most one member transfer
//  10. strict_balance, strict_balance_tight: stop at a gap of 0.05
//  11. finalize_leaders: exactly one leader per group
//
// Every balancing stage is built on one pairwise swap search (bestSwap) that
// differs only by objective, eligibility and the two groups it is given.
// Each stage has an iteration cap, so Form always returns; missing a
// tolerance is reported in StageReport.CapReached, never as an error.
//
// # Determinism
//
// Given the same roster order and Config.Seed, Form produces the same
// groups. Ties go to the first candidate in enumeration order: students
// sorted by descending score (roster order on equal scores), then group
// member order. The seeded generator is only consulted when several donor
// groups are equally good in the skill balancer.
//
// # Example
//
//	engine := grouping.NewEngine(grouping.Config{GroupSize: 5, Seed: 42})
//	res := engine.Form(roster)
//	for _, cohort := range res.Cohorts {
//	    for _, g := range cohort.Groups {
//	        fmt.Println(g.ID, g.Size(), g.Average())
//	    }
//	}
package grouping
