package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/swarm/internal/aggregate"
	"github.com/rileyhilliard/swarm/internal/device"
)

// TableColumn defines a table column with name and width.
type TableColumn struct {
	Title string
	Width int
}

// NewTable creates a new Bubbles table with default styling.
func NewTable(columns []TableColumn, rows []table.Row) table.Model {
	cols := make([]table.Column, len(columns))
	for i, c := range columns {
		cols[i] = table.Column{
			Title: c.Title,
			Width: c.Width,
		}
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithFocused(false),
		table.WithHeight(len(rows)+1), // +1 for header
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorMuted).
		BorderBottom(true).
		Bold(true).
		Foreground(ColorPrimary)
	s.Cell = s.Cell.
		Foreground(ColorPrimary)
	s.Selected = s.Selected.
		Foreground(ColorPrimary).
		Background(ColorMuted).
		Bold(false)

	t.SetStyles(s)
	return t
}

// RenderSimpleTable renders a non-interactive table string.
func RenderSimpleTable(columns []TableColumn, rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	tableRows := make([]table.Row, len(rows))
	for i, row := range rows {
		tableRows[i] = table.Row(row)
	}

	t := NewTable(columns, tableRows)
	return t.View()
}

// FleetColumns are the columns of the device list.
var FleetColumns = []TableColumn{
	{Title: " ", Width: 1},
	{Title: "Hostname", Width: 16},
	{Title: "IP", Width: 15},
	{Title: "Model", Width: 10},
	{Title: "ASIC", Width: 8},
	{Title: "Hashrate", Width: 12},
	{Title: "Power", Width: 8},
	{Title: "Temp", Width: 6},
	{Title: "Best Diff", Width: 9},
	{Title: "Uptime", Width: 10},
	{Title: "Version", Width: 10},
}

// FleetRow turns a device into a device-list row. The status cell is
// plain so the bubbles table can size it.
func FleetRow(d device.Device) []string {
	status := SymbolOnline
	if d.Degraded {
		status = SymbolDegraded
	}
	return []string{
		status,
		d.Hostname,
		d.IP,
		d.DeviceModel,
		d.ASICModel,
		FormatHashRate(d.HashRate),
		FormatPower(d.Power),
		FormatTemp(d.Temp),
		FormatDiff(d.BestDiff),
		FormatUptime(d.UptimeSeconds),
		d.Version,
	}
}

// RenderFleetTable renders the device list in the given order.
func RenderFleetTable(devices []device.Device) string {
	if len(devices) == 0 {
		return "No devices yet. Run 'swarm scan' or 'swarm add <ip>'."
	}
	rows := make([][]string, len(devices))
	for i, d := range devices {
		rows[i] = FleetRow(d)
	}
	return RenderSimpleTable(FleetColumns, rows)
}

// RenderTotals renders the fleet totals as a labelled panel.
func RenderTotals(t aggregate.Totals, count int) string {
	label := lipgloss.NewStyle().Foreground(ColorMuted)
	value := lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)

	cells := []string{
		label.Render("Devices ") + value.Render(strconv.Itoa(count)),
		label.Render("Hashrate ") + value.Render(FormatHashRate(t.HashRate)),
		label.Render("Power ") + value.Render(FormatPower(t.Power)),
		label.Render("Efficiency ") + value.Render(FormatEfficiency(t.Power, t.HashRate)),
		label.Render("Best Diff ") + value.Render(FormatDiff(t.BestDiff)),
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorMuted).
		Padding(0, 1).
		Render(strings.Join(cells, "   "))
}

// RenderFamilies renders one line per device family with a colored count.
func RenderFamilies(families []aggregate.Family) string {
	if len(families) == 0 {
		return ""
	}
	var b strings.Builder
	for _, f := range families {
		dot := lipgloss.NewStyle().Foreground(SwarmColor(device.DeriveColor(f.DeviceModel))).Render(SymbolOnline)
		fmt.Fprintf(&b, "%s %s %s\n", dot, padRight(f.Label, 28), lipgloss.NewStyle().Bold(true).Render(strconv.Itoa(f.Count)))
	}
	return b.String()
}

// padRight pads a string to the specified width.
func padRight(s string, width int) string {
	// Account for ANSI codes when calculating visible length
	visibleLen := lipgloss.Width(s)
	if visibleLen >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visibleLen)
}
