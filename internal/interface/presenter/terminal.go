package presenter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ══════════════════════════════════════════════════════════════════════════════
// TERMINAL REPORT
// ══════════════════════════════════════════════════════════════════════════════

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF"))

	cohortStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginTop(1)

	groupStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	leaderStyle = lipgloss.NewStyle().Bold(true)
)

// TerminalOptions tunes RenderTerminal.
type TerminalOptions struct {
	// Members lists every member under its group.
	Members bool

	// Stages prints the per-stage report of each cohort.
	Stages bool
}

// RenderTerminal renders the summary for a terminal.
func RenderTerminal(s Summary, opts TerminalOptions) string {
	var blocks []string

	head := titleStyle.Render(s.Title)
	meta := mutedStyle.Render(fmt.Sprintf("%d sinh viên | kích thước nhóm %d | seed %d", s.Students, s.GroupSize, s.Seed))
	blocks = append(blocks, lipgloss.JoinVertical(lipgloss.Left, head, meta))

	if len(s.Cohorts) == 0 {
		blocks = append(blocks, mutedStyle.Render("Không có sinh viên."))
	}

	for _, c := range s.Cohorts {
		blocks = append(blocks, cohortStyle.Render(
			fmt.Sprintf("CA: %s | Số nhóm = %d | chênh lệch = %s", c.Session, c.GroupCount, c.Gap)))

		for _, g := range c.Groups {
			blocks = append(blocks, groupStyle.Render(renderGroup(g, opts.Members)))
		}
		if opts.Stages {
			blocks = append(blocks, renderStages(c.Stages))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, blocks...)
}

func renderGroup(g GroupView, members bool) string {
	lines := []string{
		fmt.Sprintf("Nhóm %d (%s): n=%d | Điểm TB = %s | Leaders = %d", g.Number, g.ID, g.Size, g.Average, g.Leaders),
		mutedStyle.Render("Mục tiêu: " + g.Goals),
		mutedStyle.Render("Kỹ năng có: " + g.Skills),
	}
	if members {
		for _, m := range g.Members {
			line := fmt.Sprintf("%2d. %-12s %-28s %5s  %s", m.STT, m.ID, m.Name, m.Score, m.Role)
			if m.Leader {
				line = leaderStyle.Render(line)
			}
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func renderStages(stages []StageView) string {
	lines := make([]string, 0, len(stages))
	for _, st := range stages {
		note := ""
		if st.CapReached {
			note = " (cap)"
		}
		lines = append(lines, fmt.Sprintf("  %-22s it=%-4d swaps=%-4d moves=%-3d roles=%-3d gap=%s%s",
			st.Stage, st.Iterations, st.Swaps, st.Moves, st.RoleChanges, st.Gap, note))
	}
	return mutedStyle.Render(strings.Join(lines, "\n"))
}
