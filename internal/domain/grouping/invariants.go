package grouping

import (
	"errors"
	"fmt"
)

// ErrInvariant marks a broken engine invariant. It is a programming error,
// never a data problem.
var ErrInvariant = errors.New("grouping: invariant violated")

// InvariantError describes which invariant broke and where.
type InvariantError struct {
	Session string
	Stage   string
	Detail  string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("grouping: invariant violated in session %q after %s: %s", e.Session, e.Stage, e.Detail)
}

// Is matches ErrInvariant.
func (e *InvariantError) Is(target error) bool {
	return target == ErrInvariant
}

// checkMembership panics unless every student index sits in exactly one group.
func (a *arena) checkMembership(stage string) {
	seen := make([]int, len(a.students))
	for _, members := range a.groups {
		for _, idx := range members {
			seen[idx]++
		}
	}
	for idx, n := range seen {
		if n != 1 {
			panic(&InvariantError{
				Session: a.session,
				Stage:   stage,
				Detail:  fmt.Sprintf("student %q appears in %d groups", a.students[idx].ID, n),
			})
		}
	}
}

// checkLeaders panics unless every non-empty group has exactly one leader.
func (a *arena) checkLeaders(stage string) {
	for g := range a.groups {
		if a.size(g) == 0 {
			continue
		}
		official, temporary := a.leaderCounts(g)
		if official+temporary != 1 {
			panic(&InvariantError{
				Session: a.session,
				Stage:   stage,
				Detail:  fmt.Sprintf("group %d has %d leaders", g+1, official+temporary),
			})
		}
	}
}
