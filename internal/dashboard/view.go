package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/swarm/internal/swarm"
	"github.com/rileyhilliard/swarm/internal/ui"
	"github.com/rileyhilliard/swarm/internal/view"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(ui.ColorPrimary).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(ui.ColorMuted)

	errorStyle = lipgloss.NewStyle().
			Foreground(ui.ColorError)

	footerStyle = lipgloss.NewStyle().
			Foreground(ui.ColorMuted).
			Padding(0, 1)
)

func (m Model) render() string {
	sections := []string{
		m.renderHeader(),
		ui.RenderTotals(m.totals, m.count),
	}
	if m.filtering || m.filter.Value() != "" {
		sections = append(sections, m.filter.View())
	}
	sections = append(sections, m.renderBody())
	if m.lastErr != nil {
		sections = append(sections, errorStyle.Render(firstLine(m.lastErr.Error())))
	}
	sections = append(sections, m.renderFooter())
	return strings.Join(sections, "\n")
}

func (m Model) renderHeader() string {
	left := titleStyle.Render("swarm")
	if act := m.activity.View(); act != "" {
		left += "  " + act
	}
	if m.status != "" && !m.activity.Running {
		left += "  " + mutedStyle.Render(m.status)
	}

	right := mutedStyle.Render(m.countdown())
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 2 {
		gap = 2
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m Model) countdown() string {
	switch {
	case m.engine.Busy():
		return "busy"
	case m.count == 0:
		return "no devices"
	}
	return fmt.Sprintf("refresh in %ds", m.policy.Remaining())
}

func (m Model) renderBody() string {
	if m.grid {
		return ui.RenderGrid(m.rows, m.width)
	}
	if len(m.rows) == 0 {
		return ui.RenderFleetTable(nil)
	}

	rows := make([]table.Row, len(m.rows))
	for i, d := range m.rows {
		rows[i] = table.Row(ui.FleetRow(d))
	}
	t := ui.NewTable(ui.FleetColumns, rows)
	t.SetCursor(m.selected)
	if h := m.height - 10; h > 3 && h < len(rows)+1 {
		t.SetHeight(h)
	}
	return t.View()
}

func (m Model) renderFooter() string {
	sort := fmt.Sprintf("sort: %s %s", view.Display(m.spec.Field), m.spec.Direction)
	mode := "list"
	if m.grid {
		mode = "grid"
	}
	hints := "r refresh  s scan  g " + mode + "  o sort  / filter  ? help  q quit"
	return footerStyle.Render(sort + "   " + hints)
}

// summarize describes a finished batch in one line.
func summarize(kind swarm.EventKind, s swarm.Summary) string {
	switch kind {
	case swarm.EventScan:
		return fmt.Sprintf("scanned %d, found %d, %d new", s.Probed, s.Found, s.Added)
	case swarm.EventRefresh:
		if s.Degraded > 0 {
			return fmt.Sprintf("refreshed %d, %d offline", s.Probed, s.Degraded)
		}
		return fmt.Sprintf("refreshed %d", s.Probed)
	}
	return ""
}

func firstLine(s string) string {
	s = strings.TrimPrefix(s, ui.SymbolFail+" ")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
