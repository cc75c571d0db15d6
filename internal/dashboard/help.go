package dashboard

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/swarm/internal/ui"
)

// HelpBinding represents a single keyboard shortcut entry.
type HelpBinding struct {
	Key  string
	Desc string
}

// helpBindings defines all keyboard shortcuts shown in the help overlay.
var helpBindings = []HelpBinding{
	{Key: "q / Ctrl+C", Desc: "Quit"},
	{Key: "r", Desc: "Refresh now"},
	{Key: "s", Desc: "Scan the subnet"},
	{Key: "g", Desc: "Toggle grid / list"},
	{Key: "o", Desc: "Next sort order"},
	{Key: "O", Desc: "Flip sort direction"},
	{Key: "/", Desc: "Filter devices"},
	{Key: "up / k", Desc: "Select previous device"},
	{Key: "down / j", Desc: "Select next device"},
	{Key: "Esc", Desc: "Clear filter / close"},
	{Key: "?", Desc: "Toggle this help"},
}

var (
	helpBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ui.ColorInfo).
			Padding(1, 2)

	helpTitleStyle = lipgloss.NewStyle().
			Foreground(ui.ColorInfo).
			Bold(true).
			MarginBottom(1)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(ui.ColorPrimary).
			Bold(true).
			Width(14)
)

// renderHelpOverlay renders a centered help box with keyboard shortcuts.
func (m Model) renderHelpOverlay() string {
	lines := []string{helpTitleStyle.Render("Keyboard Shortcuts")}
	for _, b := range helpBindings {
		lines = append(lines, helpKeyStyle.Render(b.Key)+mutedStyle.Render(b.Desc))
	}
	lines = append(lines, "", mutedStyle.Render("Press ? to close"))

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		helpBoxStyle.Render(strings.Join(lines, "\n")),
	)
}
