package streak

import (
	"sort"
	"time"
)

// millisPerDay is the size of one UTC day bucket in milliseconds.
const millisPerDay = 24 * 60 * 60 * 1000

// Event represents one completed practice session. Only the timestamp
// matters to this package; identity and payload stay with the caller.
type Event struct {
	OccurredAt time.Time
}

// Result is the derived streak state for an event history.
type Result struct {
	// CurrentStreak counts consecutive practiced days ending today or
	// yesterday. Zero when the most recent practiced day is older than that.
	CurrentStreak int
	// LongestStreak is the longest run of consecutive practiced days across
	// the whole history. Always at least CurrentStreak.
	LongestStreak int
	// LastActivatedAt is the latest valid event timestamp, nil when the
	// history holds no valid events.
	LastActivatedAt *time.Time
}

// ComputeStreak derives streak state from events as of now.
//
// Events with a zero timestamp are dropped rather than reported; an empty or
// all-invalid history yields a zero Result. The current streak stays alive
// when today has not been practiced yet, as long as yesterday was.
func ComputeStreak(events []Event, now time.Time) Result {
	var latest time.Time
	daySet := make(map[int64]struct{}, len(events))
	for _, event := range events {
		if event.OccurredAt.IsZero() {
			continue
		}
		if event.OccurredAt.After(latest) {
			latest = event.OccurredAt
		}
		daySet[dayIndex(event.OccurredAt)] = struct{}{}
	}
	if len(daySet) == 0 {
		return Result{}
	}

	days := make([]int64, 0, len(daySet))
	for day := range daySet {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] > days[j] })

	today := dayIndex(now)
	current := 0
	if days[0] == today || days[0] == today-1 {
		current = 1
		for i := 1; i < len(days); i++ {
			if days[i] != days[i-1]-1 {
				break
			}
			current++
		}
	}

	longest := 1
	run := 1
	for i := 1; i < len(days); i++ {
		if days[i] == days[i-1]-1 {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	if current > longest {
		longest = current
	}

	lastActivatedAt := latest
	return Result{
		CurrentStreak:   current,
		LongestStreak:   longest,
		LastActivatedAt: &lastActivatedAt,
	}
}

// dayIndex returns the UTC day bucket for t, counted from the Unix epoch.
// Floor division keeps pre-epoch timestamps in the correct bucket.
func dayIndex(t time.Time) int64 {
	ms := t.UnixMilli()
	day := ms / millisPerDay
	if ms%millisPerDay != 0 && ms < 0 {
		day--
	}
	return day
}

// dayStart returns the UTC instant at which the given day bucket begins.
func dayStart(day int64) time.Time {
	return time.UnixMilli(day * millisPerDay).UTC()
}
