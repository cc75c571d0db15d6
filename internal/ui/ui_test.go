package ui

import (
	"bytes"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/swarm/internal/aggregate"
	"github.com/rileyhilliard/swarm/internal/device"
)

func miner(ip, host string, hashRate float64) device.Device {
	return device.Device{
		IP:            ip,
		Hostname:      host,
		DeviceModel:   device.ModelGamma,
		ASICModel:     "BM1370",
		SwarmColor:    device.ColorGreen,
		HashRate:      hashRate,
		Power:         18.5,
		Temp:          61,
		BestDiff:      "4.1G",
		UptimeSeconds: 7200,
		Version:       "v2.4.0",
	}
}

func TestSwarmColor(t *testing.T) {
	assert.Equal(t, lipgloss.Color("#39D353"), SwarmColor(device.ColorGreen))
	assert.Equal(t, ColorMuted, SwarmColor("chartreuse"))
	assert.Equal(t, ColorMuted, SwarmColor(""))
}

func TestFormatHashRate(t *testing.T) {
	tests := []struct {
		ghs  float64
		want string
	}{
		{0, "0 H/s"},
		{-3, "0 H/s"},
		{512.3, "512.3 GH/s"},
		{1200, "1.2 TH/s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatHashRate(tt.ghs), "%v", tt.ghs)
	}
}

func TestFormatters(t *testing.T) {
	assert.Equal(t, "18.5 W", FormatPower(18.5))
	assert.Equal(t, "61°C", FormatTemp(61.2))
	assert.Equal(t, "-", FormatTemp(0))
	assert.Equal(t, "15.4 J/TH", FormatEfficiency(18.5, 1200))
	assert.Equal(t, "-", FormatEfficiency(0, 1200))
	assert.Equal(t, "1,234,567", FormatCount(1234567))
	assert.Equal(t, "-", FormatDiff("0"))
	assert.Equal(t, "-", FormatDiff(""))
	assert.Equal(t, "1.2T", FormatDiff("1.2T"))
	assert.Equal(t, "-", FormatUptime(0))
	assert.Equal(t, "3 days", FormatUptime(3*86400+100))
}

func TestRenderFleetTable(t *testing.T) {
	t.Run("empty fleet", func(t *testing.T) {
		assert.Contains(t, RenderFleetTable(nil), "swarm scan")
	})

	t.Run("rows in given order", func(t *testing.T) {
		offline := miner("192.168.1.9", "bitaxe-b", 0).Placeholder()
		out := RenderFleetTable([]device.Device{miner("192.168.1.20", "bitaxe-a", 1200), offline})

		assert.Contains(t, out, "Hostname")
		assert.Contains(t, out, "bitaxe-a")
		assert.Contains(t, out, "1.2 TH/s")
		assert.Contains(t, out, SymbolDegraded)
		assert.Less(t, strings.Index(out, "192.168.1.20"), strings.Index(out, "192.168.1.9"))
	})
}

func TestFleetRow(t *testing.T) {
	row := FleetRow(miner("10.0.0.2", "a", 500))
	require.Len(t, row, len(FleetColumns))
	assert.Equal(t, SymbolOnline, row[0])
	assert.Equal(t, "10.0.0.2", row[2])
	assert.Equal(t, "2 hours", row[9])
}

func TestRenderTotals(t *testing.T) {
	out := RenderTotals(aggregate.Totals{HashRate: 1200, Power: 25, BestDiff: "1.2T"}, 2)
	assert.Contains(t, out, "Devices 2")
	assert.Contains(t, out, "1.2 TH/s")
	assert.Contains(t, out, "25.0 W")
	assert.Contains(t, out, "1.2T")
}

func TestRenderFamilies(t *testing.T) {
	assert.Empty(t, RenderFamilies(nil))

	out := RenderFamilies([]aggregate.Family{
		{DeviceModel: device.ModelGamma, Label: "Gamma BM1370", Count: 3},
		{DeviceModel: device.ModelMax, Label: "Max BM1397", Count: 1},
	})
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Gamma BM1370")
	assert.True(t, strings.HasSuffix(lines[0], "3"))
}

func TestRenderGrid(t *testing.T) {
	devices := []device.Device{
		miner("10.0.0.1", "one", 100),
		miner("10.0.0.2", "two", 200),
		miner("10.0.0.3", "three", 300),
	}

	wide := RenderGrid(devices, CardWidth*3)
	narrow := RenderGrid(devices, 10)

	for _, out := range []string{wide, narrow} {
		assert.Contains(t, out, "one")
		assert.Contains(t, out, "three")
	}
	assert.Less(t, lipgloss.Height(wide), lipgloss.Height(narrow), "one row beats three")
	assert.Contains(t, RenderGrid(nil, 80), "swarm scan")
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "one", DisplayName(miner("10.0.0.1", "one", 1)))
	assert.Equal(t, "10.0.0.1", DisplayName(device.Device{IP: "10.0.0.1"}))
}

func TestRenderCard(t *testing.T) {
	d := miner("10.0.0.1", "one", 100)
	d.ASICCount = 4
	out := RenderCard(d)
	assert.Contains(t, out, "one")
	assert.Contains(t, out, "Gamma (4x BM1370)")
	assert.Contains(t, out, "100 GH/s")
}

func TestActivity(t *testing.T) {
	a := NewActivity()
	assert.Empty(t, a.View())

	cmd := a.Start("Scanning")
	assert.NotNil(t, cmd)
	assert.Contains(t, a.View(), "Scanning...")

	a.Finish(false)
	assert.Contains(t, a.View(), SymbolSuccess)

	a.Start("Refreshing")
	a.Finish(true)
	assert.Contains(t, a.View(), SymbolFail)
}

func TestPickDevice(t *testing.T) {
	t.Run("no devices", func(t *testing.T) {
		_, err := PickDeviceWithIO("Pick", nil, &bytes.Buffer{}, strings.NewReader(""))
		assert.Error(t, err)
	})

	t.Run("single device skips the picker", func(t *testing.T) {
		d, err := PickDeviceWithIO("Pick", []device.Device{miner("10.0.0.1", "one", 1)}, &bytes.Buffer{}, strings.NewReader(""))
		require.NoError(t, err)
		require.NotNil(t, d)
		assert.Equal(t, "10.0.0.1", d.IP)
	})
}

func TestDevicePickerModel(t *testing.T) {
	devices := []device.Device{miner("10.0.0.1", "one", 1), miner("10.0.0.2", "two", 2)}

	t.Run("enter selects", func(t *testing.T) {
		var m tea.Model = NewDevicePickerModel("Pick", devices)
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
		m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		assert.NotNil(t, cmd)

		picked := m.(DevicePickerModel).Selected()
		require.NotNil(t, picked)
		assert.Equal(t, "10.0.0.2", picked.IP)
	})

	t.Run("esc cancels", func(t *testing.T) {
		var m tea.Model = NewDevicePickerModel("Pick", devices)
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		assert.Nil(t, m.(DevicePickerModel).Selected())
		assert.Empty(t, m.View())
	})
}
