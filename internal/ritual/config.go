package ritual

import (
	"fmt"
	"math"
	"time"
)

const (
	// MinDurationSeconds is the shortest schedulable session.
	MinDurationSeconds = 30
	// MaxDurationSeconds is the longest schedulable session.
	MaxDurationSeconds = 1800

	// canonicalRitualSeconds is the reference duration the ritual phase
	// table is written against. Custom durations scale from it.
	canonicalRitualSeconds = 300

	// focusRotationFloor and focusHapticFloor stop very short focus
	// sessions from flickering instructions or buzzing constantly.
	focusRotationFloor = 6 * time.Second
	focusHapticFloor   = 5 * time.Second

	// ritualIntervalFloor is the minimum rotation or haptic cadence for
	// scaled ritual phases.
	ritualIntervalFloor = 10 * time.Second

	focusSealSeconds  = 5
	ritualSealSeconds = 10
)

// phaseSpec is one row of the canonical ritual table: durations and cadences
// at the 300-second reference, scaled proportionally for custom durations.
type phaseSpec struct {
	key              string
	title            string
	canonicalSeconds int
	rotation         time.Duration
	haptic           time.Duration
	style            HapticStyle
}

// ritualPhaseTable is the canonical 30:60:90:30:90 ceremony. The haptic
// style escalates from light to medium at the transfer phase regardless of
// duration.
var ritualPhaseTable = []phaseSpec{
	{key: "breathwork", title: "Breathwork", canonicalSeconds: 30, rotation: 10 * time.Second, haptic: 12 * time.Second, style: HapticLight},
	{key: "mantra", title: "Mantra", canonicalSeconds: 60, rotation: 12 * time.Second, haptic: 10 * time.Second, style: HapticLight},
	{key: "visualization", title: "Visualization", canonicalSeconds: 90, rotation: 15 * time.Second, haptic: 12 * time.Second, style: HapticLight},
	{key: "transfer", title: "Transfer", canonicalSeconds: 30, rotation: 10 * time.Second, haptic: 10 * time.Second, style: HapticMedium},
	{key: "seal", title: "Seal", canonicalSeconds: 90, rotation: 18 * time.Second, haptic: 15 * time.Second, style: HapticMedium},
}

// focusSpec is the single-phase focus session.
var focusSpec = phaseSpec{
	key:   "focus",
	title: "Focused Charging",
	style: HapticLight,
}

// DefaultConfig returns the fixed schedule for a mode at the canonical
// duration.
func DefaultConfig(mode Mode) (Config, error) {
	return NewConfig(mode, canonicalRitualSeconds)
}

// NewConfig expands a mode and requested duration into a phase schedule.
//
// The duration is clamped into [MinDurationSeconds, MaxDurationSeconds] and
// never rejected; a non-positive duration falls back to the mode default.
// Phase durations are each rounded independently from their canonical ratio
// so rounding error cannot compound, and the sub-second residue is folded
// into the seal phase to keep the total exact.
func NewConfig(mode Mode, requestedDurationSeconds int) (Config, error) {
	if requestedDurationSeconds <= 0 {
		requestedDurationSeconds = canonicalRitualSeconds
	}
	total := clampDuration(requestedDurationSeconds)

	switch mode {
	case ModeFocus:
		return focusConfig(total), nil
	case ModeRitual:
		return ritualConfig(total), nil
	default:
		return Config{}, ErrUnknownMode
	}
}

func clampDuration(seconds int) int {
	if seconds < MinDurationSeconds {
		return MinDurationSeconds
	}
	if seconds > MaxDurationSeconds {
		return MaxDurationSeconds
	}
	return seconds
}

func focusConfig(total int) Config {
	rotation := maxDuration(time.Duration(total)*time.Second/6, focusRotationFloor)
	haptic := maxDuration(time.Duration(total)*time.Second/5, focusHapticFloor)

	phase := Phase{
		Index:               0,
		Key:                 focusSpec.key,
		Title:               focusSpec.title,
		DurationSeconds:     total,
		Instructions:        defaultInstructions(focusSpec.key),
		InstructionRotation: rotation,
		HapticInterval:      haptic,
		Haptic:              focusSpec.style,
	}

	return Config{
		ID:                   fmt.Sprintf("focus-%d", total),
		Name:                 "Focused Charging",
		TotalDurationSeconds: total,
		Phases:               []Phase{phase},
		SealDurationSeconds:  focusSealSeconds,
	}
}

func ritualConfig(total int) Config {
	ratio := float64(total) / float64(canonicalRitualSeconds)

	phases := make([]Phase, 0, len(ritualPhaseTable))
	sum := 0
	for i, spec := range ritualPhaseTable {
		duration := int(math.Round(float64(spec.canonicalSeconds) * ratio))
		sum += duration
		phases = append(phases, Phase{
			Index:               i,
			Key:                 spec.key,
			Title:               spec.title,
			DurationSeconds:     duration,
			Instructions:        defaultInstructions(spec.key),
			InstructionRotation: maxDuration(scaleDuration(spec.rotation, ratio), ritualIntervalFloor),
			HapticInterval:      maxDuration(scaleDuration(spec.haptic, ratio), ritualIntervalFloor),
			Haptic:              spec.style,
		})
	}

	// Independent rounding can leave the sum a second or two off the
	// clamped total; the seal phase absorbs the residue.
	phases[len(phases)-1].DurationSeconds += total - sum

	return Config{
		ID:                   fmt.Sprintf("ritual-%d", total),
		Name:                 "Charging Ritual",
		TotalDurationSeconds: total,
		Phases:               phases,
		SealDurationSeconds:  ritualSealSeconds,
	}
}

func scaleDuration(d time.Duration, ratio float64) time.Duration {
	return time.Duration(math.Round(float64(d) * ratio))
}

func maxDuration(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}
