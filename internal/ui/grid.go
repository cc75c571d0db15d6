package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/swarm/internal/device"
)

// CardWidth is the outer width of one grid card, border included.
const CardWidth = 30

var (
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1).
			Width(CardWidth - 2)

	cardLabelStyle = lipgloss.NewStyle().Foreground(ColorMuted)
)

// RenderCard renders one device as a bordered card tinted by its swarm
// color. Degraded devices get a muted border.
func RenderCard(d device.Device) string {
	accent := SwarmColor(d.SwarmColor)
	if d.Degraded {
		accent = ColorMuted
	}

	title := lipgloss.NewStyle().Foreground(accent).Bold(true).Render(DisplayName(d))
	status := lipgloss.NewStyle().Foreground(ColorSuccess).Render(SymbolOnline)
	if d.Degraded {
		status = lipgloss.NewStyle().Foreground(ColorError).Render(SymbolDegraded)
	}

	lines := []string{
		status + " " + title,
		cardLabelStyle.Render(d.IP),
		cardLabelStyle.Render(d.Label()),
		cardLine("Hash", FormatHashRate(d.HashRate)),
		cardLine("Power", FormatPower(d.Power)+"  "+FormatTemp(d.Temp)),
		cardLine("Best", FormatDiff(d.BestDiff)),
		cardLine("Up", FormatUptime(d.UptimeSeconds)),
	}

	return cardStyle.BorderForeground(accent).Render(strings.Join(lines, "\n"))
}

func cardLine(label, value string) string {
	return cardLabelStyle.Render(padRight(label, 6)) + value
}

// RenderGrid lays cards out in as many columns as fit in width.
func RenderGrid(devices []device.Device, width int) string {
	if len(devices) == 0 {
		return "No devices yet. Run 'swarm scan' or 'swarm add <ip>'."
	}

	perRow := width / CardWidth
	if perRow < 1 {
		perRow = 1
	}

	var rows []string
	for start := 0; start < len(devices); start += perRow {
		end := min(start+perRow, len(devices))
		cards := make([]string, 0, end-start)
		for _, d := range devices[start:end] {
			cards = append(cards, RenderCard(d))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// DisplayName is the hostname, or the address when the device has none.
func DisplayName(d device.Device) string {
	if d.Hostname != "" {
		return d.Hostname
	}
	return d.IP
}
