package progress

import "fmt"

const (
	ki = 1024
	mi = 1024 * ki
	gi = 1024 * mi
)

// ToUnit scales a byte count to Ki, Mi or Gi. Values below one Mi are
// always expressed in Ki.
func ToUnit(n float64) (float64, string) {
	switch {
	case n >= gi:
		return n / gi, "Gi"
	case n >= mi:
		return n / mi, "Mi"
	default:
		return n / ki, "Ki"
	}
}

// FormatETA formats seconds as HH:MM:SS, or as whole hours once the value
// reaches a day
func FormatETA(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	if seconds >= 86400 {
		return fmt.Sprintf("%d hours", seconds/3600)
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds/60)%60, seconds%60)
}
