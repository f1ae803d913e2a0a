package output

import (
	"fmt"
	"time"
)

// FormatSize renders a byte count as "500B", "1.5K" or "2.3M" using
// decimal units. A nil size renders as "-".
func FormatSize(size *int64) string {
	if size == nil {
		return "-"
	}
	b := *size
	switch {
	case b >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(b)/1_000_000)
	case b >= 1_000:
		return fmt.Sprintf("%.1fK", float64(b)/1_000)
	default:
		return fmt.Sprintf("%dB", b)
	}
}

// FormatDateShort renders a unix timestamp the way `ls -l` does
// ("Jan  5 12:34"), in UTC. A nil timestamp renders as blanks of the same
// width.
func FormatDateShort(ts *int64) string {
	if ts == nil {
		return "            "
	}
	return time.Unix(*ts, 0).UTC().Format("Jan _2 15:04")
}
