package ritual

import "fmt"

// Progress reports elapsed/total clamped into [0, 1]. Over-elapsed sessions
// report exactly 1, never more.
func Progress(totalSeconds, elapsedSeconds int) float64 {
	if elapsedSeconds >= totalSeconds {
		return 1
	}
	if elapsedSeconds <= 0 {
		return 0
	}
	return float64(elapsedSeconds) / float64(totalSeconds)
}

// FormatDuration renders a duration the way session pickers label it:
// "45s", "2m", or "1m 30s".
func FormatDuration(seconds int) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	minutes := seconds / 60
	rest := seconds % 60
	if rest == 0 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dm %ds", minutes, rest)
}

// FormatClock renders a countdown as "M:SS" with zero-padded seconds and
// unpadded minutes.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
