// Package aggregate computes fleet-wide totals from a device snapshot.
package aggregate

import (
	"strconv"
	"strings"

	"github.com/rileyhilliard/swarm/internal/device"
)

// units is the magnitude scale for best-difficulty strings, lowest first.
const units = "kMGTPE"

// Totals are the derived fleet statistics.
type Totals struct {
	HashRate float64 `json:"hashRate"`
	Power    float64 `json:"power"`
	BestDiff string  `json:"bestDiff"`
}

// Compute sums hashrate and power and folds the best difficulty.
func Compute(devices []device.Device) Totals {
	t := Totals{BestDiff: "0"}
	for _, d := range devices {
		t.HashRate += d.HashRate
		t.Power += d.Power
		t.BestDiff = CompareBestDiff(t.BestDiff, d.BestDiff)
	}
	return t
}

// CompareBestDiff returns the larger of two magnitude-suffixed difficulty
// strings such as "800G" and "1.2T". An empty or "0" value always loses.
func CompareBestDiff(a, b string) string {
	if isZero(a) {
		if isZero(b) {
			return "0"
		}
		return b
	}
	if isZero(b) {
		return a
	}

	rankA, valA := parseDiff(a)
	rankB, valB := parseDiff(b)
	if rankA != rankB {
		if rankA > rankB {
			return a
		}
		return b
	}
	if valA >= valB {
		return a
	}
	return b
}

// DiffCmp orders two difficulty strings: negative when a < b, zero when
// they are equivalent, positive when a > b.
func DiffCmp(a, b string) int {
	za, zb := isZero(a), isZero(b)
	switch {
	case za && zb:
		return 0
	case za:
		return -1
	case zb:
		return 1
	}
	rankA, valA := parseDiff(a)
	rankB, valB := parseDiff(b)
	switch {
	case rankA != rankB:
		return rankA - rankB
	case valA < valB:
		return -1
	case valA > valB:
		return 1
	}
	return 0
}

func isZero(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || s == "0"
}

// parseDiff splits "1.2T" into (rank of T, 1.2). No recognized suffix
// ranks -1 and the whole string is the mantissa.
func parseDiff(s string) (int, float64) {
	s = strings.TrimSpace(s)
	rank := strings.IndexByte(units, s[len(s)-1])
	mantissa := s
	if rank >= 0 {
		mantissa = s[:len(s)-1]
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(mantissa), 64)
	if err != nil {
		v = 0
	}
	return rank, v
}
