package grouping

// ══════════════════════════════════════════════════════════════════════════════
// LEADERSHIP RESOLVER
// ══════════════════════════════════════════════════════════════════════════════

// leaderAffinity orders candidates by (holds the leadership skill, score).
func leaderAffinity(x, y *Student) bool {
	xs, ys := x.Skills.Has(LeadershipSkill), y.Skills.Has(LeadershipSkill)
	if xs != ys {
		return xs
	}
	return x.Score > y.Score
}

// ensureLeaders appoints a temporary leader in every group without an
// official leader. A previous temporary appointment in such a group is
// reset first so the choice always reflects the current membership.
func (a *arena) ensureLeaders() stageStats {
	var st stageStats
	for g := range a.groups {
		if a.ensureGroupLeader(g) {
			st.Changes++
		}
	}
	return st
}

// ensureGroupLeader reports whether the temporary leader of g changed.
func (a *arena) ensureGroupLeader(g int) bool {
	if a.size(g) == 0 {
		return false
	}
	official, _ := a.leaderCounts(g)
	if official > 0 {
		return false
	}

	previous := -1
	for pos := range a.groups[g] {
		s := a.member(g, pos)
		if s.Role == RoleTemporaryLeader {
			if previous < 0 {
				previous = pos
			}
			s.Role = RoleMember
		}
	}

	pick := a.bestMember(g, nil, leaderAffinity)
	a.member(g, pick).Role = RoleTemporaryLeader
	return pick != previous
}

// relabelLeaders restores a single leader in g after its membership changed:
// temporary leaders step down next to an official one, otherwise a
// temporary leader is (re)appointed.
func (a *arena) relabelLeaders(g int) {
	official, _ := a.leaderCounts(g)
	if official == 0 {
		a.ensureGroupLeader(g)
		return
	}
	for pos := range a.groups[g] {
		if s := a.member(g, pos); s.Role == RoleTemporaryLeader {
			s.Role = RoleMember
		}
	}
}

// finalizeLeaders leaves exactly one leader in every non-empty group. Surplus
// official leaders (more requests than groups) keep their desired-role text
// but lead no group; the highest scoring one stays leader.
func (a *arena) finalizeLeaders() stageStats {
	var st stageStats
	for g := range a.groups {
		if a.size(g) == 0 {
			continue
		}
		official, temporary := a.leaderCounts(g)

		switch {
		case official > 0:
			keep := a.bestMember(g, isOfficialLeader, higherScore)
			for pos := range a.groups[g] {
				s := a.member(g, pos)
				if pos != keep && s.Role.IsLeader() {
					s.Role = RoleMember
					st.Changes++
				}
			}
		case temporary == 0:
			a.member(g, a.bestMember(g, nil, higherScore)).Role = RoleTemporaryLeader
			st.Changes++
		case temporary > 1:
			keep := a.bestMember(g, func(s *Student) bool { return s.Role == RoleTemporaryLeader }, higherScore)
			for pos := range a.groups[g] {
				s := a.member(g, pos)
				if pos != keep && s.Role == RoleTemporaryLeader {
					s.Role = RoleMember
					st.Changes++
				}
			}
		}
	}
	return st
}
