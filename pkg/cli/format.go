package cli

import "fmt"

// FormatDuration renders a millisecond count the way the recorder
// stamps captions: "850ms", "12.5s", "1m30.0s".
func FormatDuration(ms int) string {
	switch {
	case ms < 1000:
		return fmt.Sprintf("%dms", ms)
	case ms < 60_000:
		return fmt.Sprintf("%.1fs", float64(ms)/1000)
	}
	return fmt.Sprintf("%dm%.1fs", ms/60_000, float64(ms%60_000)/1000)
}

// FormatBytes renders a byte count with a binary unit, two decimals
// from KB up.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	v, suffix := float64(n)/unit, "KB"
	for _, s := range []string{"MB", "GB"} {
		if v < unit {
			break
		}
		v, suffix = v/unit, s
	}
	return fmt.Sprintf("%.2f %s", v, suffix)
}
