package timer

import (
	"fmt"
	"time"
)

// Format renders hours, minutes and seconds as zero-padded HH:MM:SS.
// Hours are not bounded: 100 hours renders as "100:00:00".
func Format(hours, minutes, seconds int64) string {
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

// Decompose splits whole seconds into hours, minutes and seconds.
func Decompose(totalSeconds int64) (hours, minutes, seconds int64) {
	if totalSeconds < 0 {
		totalSeconds = 0
	}
	hours = totalSeconds / 3600
	minutes = (totalSeconds % 3600) / 60
	seconds = (totalSeconds % 3600) % 60
	return hours, minutes, seconds
}

// FormatSeconds renders whole seconds as HH:MM:SS.
func FormatSeconds(totalSeconds int64) string {
	return Format(Decompose(totalSeconds))
}

// FormatDuration truncates d to whole seconds and renders it as HH:MM:SS.
func FormatDuration(d time.Duration) string {
	return FormatSeconds(int64(d / time.Second))
}

// Zero is the label shown while idle.
var Zero = FormatSeconds(0)
