package util //nolint:revive // package name util hosts shared helpers used by the CLI and adapters

import "time"

// FormatDuration formats a time.Duration for CLI output.
// Returns "—" for zero or negative durations, truncates to milliseconds for readability.
func FormatDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "—"
	case d < time.Millisecond:
		return d.String()
	default:
		return d.Truncate(time.Millisecond).String()
	}
}
