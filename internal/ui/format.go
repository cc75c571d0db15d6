package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// FormatHashRate renders a rate reported in GH/s with an SI prefix,
// e.g. 1200 becomes "1.2 TH/s".
func FormatHashRate(ghs float64) string {
	if ghs <= 0 {
		return "0 H/s"
	}
	return humanize.SIWithDigits(ghs*1e9, 2, "H/s")
}

// FormatPower renders watts with one decimal.
func FormatPower(watts float64) string {
	return fmt.Sprintf("%.1f W", watts)
}

// FormatTemp renders a chip temperature in Celsius.
func FormatTemp(celsius float64) string {
	if celsius <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.0f°C", celsius)
}

// FormatEfficiency renders joules per terahash, or "-" when either side
// is zero.
func FormatEfficiency(watts, ghs float64) string {
	if watts <= 0 || ghs <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f J/TH", watts/(ghs/1000))
}

// FormatCount renders an integer with thousands separators.
func FormatCount(n int64) string {
	return humanize.Comma(n)
}

// FormatUptime renders seconds of uptime as a coarse duration like
// "3 days". Zero renders "-".
func FormatUptime(seconds int64) string {
	if seconds <= 0 {
		return "-"
	}
	now := time.Now()
	return strings.TrimSpace(humanize.RelTime(now.Add(-time.Duration(seconds)*time.Second), now, "", ""))
}

// FormatDiff renders a best-difficulty string, "-" when unset.
func FormatDiff(diff string) string {
	if diff == "" || diff == "0" {
		return "-"
	}
	return diff
}

// formatDuration formats a duration for display (e.g., "0.3s", "1.2s", "1m30s").
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return d.Round(time.Second).String()
}
