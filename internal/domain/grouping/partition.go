package grouping

import "sort"

// ══════════════════════════════════════════════════════════════════════════════
// COHORT SPLITTER & INITIAL PARTITIONER
// ══════════════════════════════════════════════════════════════════════════════

// Cohort is every student sharing one session tag.
type Cohort struct {
	Session  string
	Students []Student
}

// SplitCohorts groups the roster by session tag. Cohorts come out in order of
// first appearance and keep roster order inside.
func SplitCohorts(roster []Student) []Cohort {
	index := make(map[string]int)
	var cohorts []Cohort
	for _, s := range roster {
		i, ok := index[s.Session]
		if !ok {
			i = len(cohorts)
			index[s.Session] = i
			cohorts = append(cohorts, Cohort{Session: s.Session})
		}
		cohorts[i].Students = append(cohorts[i].Students, s)
	}
	return cohorts
}

// GroupCount is ceil(n / size). A non-positive size is treated as one.
func GroupCount(n, size int) int {
	if n <= 0 {
		return 0
	}
	if size <= 0 {
		size = 1
	}
	return (n + size - 1) / size
}

// partition seeds the arena: a stable descending sort by score, then a
// serpentine walk 0,1,...,k-1,k-1,...,0,0,1,... over the groups.
func partition(session string, students []Student, size int) *arena {
	sorted := make([]Student, len(students))
	copy(sorted, students)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	a := newArena(session, sorted, GroupCount(len(sorted), size))
	count := len(a.groups)

	g, dir := 0, 1
	for idx := range sorted {
		a.groups[g] = append(a.groups[g], idx)
		if count == 1 {
			continue
		}
		if next := g + dir; next < 0 || next >= count {
			dir = -dir
		} else {
			g = next
		}
	}
	return a
}
