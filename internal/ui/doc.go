// Package ui renders swarm's terminal output: the device table, grid
// cards, fleet totals and interactive pickers.
//
// # Color Scheme
//
// Status colors are ANSI codes for broad terminal compatibility:
//
//	ColorSuccess   (green)  - Device online, operation succeeded
//	ColorError     (red)    - Device degraded, operation failed
//	ColorWarning   (yellow) - Warnings
//	ColorMuted     (gray)   - Labels, timing info
//
// Devices are tinted by their swarm color (SwarmColor). SetColorMode
// applies the output.color setting; DisableColors backs --no-color.
//
// # Formatting
//
// Hashrates arrive in GH/s and are printed with SI prefixes
// (FormatHashRate), uptimes as coarse durations (FormatUptime).
package ui
