package format

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/wasm-coverage/cover"
)

var (
	summaryTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#FAFAFA")).
				Background(lipgloss.Color("#7D56F4")).
				Padding(0, 1)

	coveredStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	taintedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500"))

	incompleteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)

	summaryBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)
)

// TerminalSummary renders a styled one-screen summary of the report.
func TerminalSummary(r *cover.Report) string {
	s := r.Summary()

	var b strings.Builder
	b.WriteString(summaryTitleStyle.Render("coverage " + r.RunID))
	b.WriteByte('\n')

	line := fmt.Sprintf("%.1f%%  %d/%d blocks", s.Percent, s.CoveredBlocks, s.TotalBlocks)
	b.WriteString(coveredStyle.Render(line))
	b.WriteByte('\n')

	if s.TaintedBlocks > 0 {
		b.WriteString(taintedStyle.Render(fmt.Sprintf("%d tainted", s.TaintedBlocks)))
		b.WriteByte('\n')
	}
	if !s.Complete {
		b.WriteString(incompleteStyle.Render("incomplete run"))
		b.WriteByte('\n')
	}

	return summaryBoxStyle.Render(strings.TrimRight(b.String(), "\n")) + "\n"
}
