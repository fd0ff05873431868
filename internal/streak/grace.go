package streak

import "time"

// GraceWindow is the rolling window within which at most one grace day may
// be consumed.
const GraceWindow = 7 * 24 * time.Hour

// GraceResult extends Result with grace-day state.
type GraceResult struct {
	Result
	// StreakProtected is true only while a grace day is actively bridging a
	// single missed day.
	StreakProtected bool
	// GraceDayAvailable reports whether a grace day could be consumed right
	// now. Consuming one is the caller's write, not this package's.
	GraceDayAvailable bool
}

// ComputeStreakWithGrace derives streak state with the once-per-rolling-week
// grace day applied.
//
// A grace day bridges exactly one missed day: when the base streak is broken,
// the last activity sits exactly two day buckets before now, and no grace day
// was consumed inside GraceWindow, the missed day is treated as practiced and
// the streak recomputed over the bridged history. Any wider gap, or an
// unavailable grace day, returns the base result unchanged.
//
// The function only reports eligibility; recording that a grace day was used
// is the caller's responsibility.
func ComputeStreakWithGrace(events []Event, lastGraceDayUsedAt *time.Time, now time.Time) GraceResult {
	base := ComputeStreak(events, now)

	available := lastGraceDayUsedAt == nil || lastGraceDayUsedAt.IsZero() ||
		now.Sub(*lastGraceDayUsedAt) >= GraceWindow

	result := GraceResult{Result: base, GraceDayAvailable: available}

	if base.CurrentStreak > 0 {
		return result
	}
	if base.LastActivatedAt == nil || !available {
		return result
	}
	if dayIndex(now)-dayIndex(*base.LastActivatedAt) != 2 {
		return result
	}

	virtual := Event{OccurredAt: dayStart(dayIndex(now) - 1)}
	bridged := ComputeStreak(append(append([]Event(nil), events...), virtual), now)

	result.CurrentStreak = bridged.CurrentStreak
	if bridged.CurrentStreak > result.LongestStreak {
		result.LongestStreak = bridged.CurrentStreak
	}
	result.StreakProtected = true
	return result
}
