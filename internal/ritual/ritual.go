package ritual

import (
	"errors"
	"strings"
	"time"
)

// Mode selects the shape of a practice session.
type Mode int

const (
	// ModeUnspecified represents an invalid mode value.
	ModeUnspecified Mode = iota
	// ModeFocus is a single-phase focused charging session.
	ModeFocus
	// ModeRitual is the full five-phase charging ceremony.
	ModeRitual
)

func (m Mode) String() string {
	switch m {
	case ModeFocus:
		return "focus"
	case ModeRitual:
		return "ritual"
	default:
		return "unspecified"
	}
}

// ErrUnknownMode indicates a mode value this package cannot schedule.
var ErrUnknownMode = errors.New("unknown ritual mode")

// ParseMode parses a mode name. Matching is case-insensitive.
func ParseMode(value string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "focus":
		return ModeFocus, nil
	case "ritual":
		return ModeRitual, nil
	default:
		return ModeUnspecified, ErrUnknownMode
	}
}

// HapticStyle describes the strength of haptic feedback during a phase.
type HapticStyle int

const (
	// HapticUnspecified represents an invalid haptic style value.
	HapticUnspecified HapticStyle = iota
	// HapticLight is a gentle pulse for settling phases.
	HapticLight
	// HapticMedium is a firmer pulse for the transfer and seal phases.
	HapticMedium
)

func (h HapticStyle) String() string {
	switch h {
	case HapticLight:
		return "light"
	case HapticMedium:
		return "medium"
	default:
		return "unspecified"
	}
}

// Phase is one titled, timed segment of a session.
type Phase struct {
	// Index is the phase position within the config, starting at zero.
	Index int
	// Key is the stable phase identifier used by instruction catalogs.
	Key string
	// Title is the display name for the phase.
	Title string
	// DurationSeconds is how long the phase lasts.
	DurationSeconds int
	// Instructions rotate on screen while the phase runs.
	Instructions []string
	// InstructionRotation is how often the displayed instruction changes.
	InstructionRotation time.Duration
	// HapticInterval is the cadence of haptic pulses during the phase.
	HapticInterval time.Duration
	// Haptic is the pulse strength for the phase.
	Haptic HapticStyle
}

// Config is a fully expanded phase schedule for one session.
//
// The phase durations always sum to TotalDurationSeconds.
type Config struct {
	ID                   string
	Name                 string
	TotalDurationSeconds int
	Phases               []Phase
	// SealDurationSeconds is the post-session hold the client keeps the
	// artifact on screen after the last phase ends.
	SealDurationSeconds int
}

// PhaseLookup locates the active phase for an elapsed-time value.
type PhaseLookup struct {
	Phase               Phase
	PhaseIndex          int
	PhaseElapsedSeconds int
}
