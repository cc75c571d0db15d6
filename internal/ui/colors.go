package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/rileyhilliard/swarm/internal/device"
)

// Semantic colors for status indication
const (
	ColorSuccess lipgloss.Color = "2" // Green
	ColorError   lipgloss.Color = "1" // Red
	ColorWarning lipgloss.Color = "3" // Yellow
	ColorInfo    lipgloss.Color = "6" // Cyan
)

// Text colors for content hierarchy
const (
	ColorPrimary   lipgloss.Color = "7" // White/default
	ColorSecondary lipgloss.Color = "4" // Blue
	ColorMuted     lipgloss.Color = "8" // Gray (bright black)
)

// swarmColors maps a device's swarm color to a terminal color.
var swarmColors = map[string]lipgloss.Color{
	device.ColorRed:    "#FF4D4D",
	device.ColorPurple: "#B266FF",
	device.ColorBlue:   "#4D94FF",
	device.ColorOrange: "#FF9933",
	device.ColorGreen:  "#39D353",
	device.ColorCyan:   "#33E0E0",
	device.ColorGray:   "#8C8C8C",
}

// SwarmColor returns the terminal color for a swarm color name. Unknown
// names render muted.
func SwarmColor(name string) lipgloss.Color {
	if c, ok := swarmColors[name]; ok {
		return c
	}
	return ColorMuted
}

// Color modes accepted by SetColorMode.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// SetColorMode picks the lipgloss color profile. "auto" keeps color only
// when tty is true.
func SetColorMode(mode string, tty bool) {
	switch mode {
	case ColorNever:
		DisableColors()
	case ColorAlways:
		lipgloss.SetColorProfile(termenv.TrueColor)
	default:
		if !tty {
			DisableColors()
		}
	}
}

// DisableColors switches all rendering to monochrome (for --no-color).
func DisableColors() {
	lipgloss.SetColorProfile(termenv.Ascii)
}
