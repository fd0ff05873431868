// Package luapack loads custom ritual definitions written as Lua scripts.
//
// A pack script returns a single table describing the schedule:
//
//	return {
//	    id = "moon-rite",
//	    name = "Moon Rite",
//	    seal_duration = 12,
//	    phases = {
//	        {
//	            key = "breathwork",
//	            title = "Breathwork",
//	            duration = 45,
//	            rotation = 12,
//	            haptic = 10,
//	            style = "light",
//	            instructions = { "Inhale slowly", "Exhale fully" },
//	        },
//	    },
//	}
//
// Durations and cadences are in seconds. Decoded packs are validated against
// the same duration bounds as built-in configs.
package luapack

import (
	"fmt"
	"time"

	"github.com/Shopify/go-lua"

	"github.com/emberflow/emberflow/internal/ritual"
)

// defaultInterval backs omitted rotation and haptic cadences.
const defaultInterval = 10 * time.Second

// Load parses a ritual pack script and returns its expanded config.
func Load(script string) (ritual.Config, error) {
	state := lua.NewState()
	lua.OpenLibraries(state)

	if err := lua.LoadString(state, script); err != nil {
		return ritual.Config{}, fmt.Errorf("load lua: %w", err)
	}
	if err := state.ProtectedCall(0, 1, 0); err != nil {
		return ritual.Config{}, fmt.Errorf("run lua: %w", err)
	}

	if state.TypeOf(-1) != lua.TypeTable {
		state.Pop(1)
		return ritual.Config{}, fmt.Errorf("pack script must return a table")
	}

	cfg, err := decodeConfig(state)
	state.Pop(1)
	if err != nil {
		return ritual.Config{}, err
	}
	if err := validate(cfg); err != nil {
		return ritual.Config{}, err
	}
	return cfg, nil
}

// decodeConfig reads the pack table at the top of the stack.
func decodeConfig(state *lua.State) (ritual.Config, error) {
	cfg := ritual.Config{
		ID:                  stringField(state, "id"),
		Name:                stringField(state, "name"),
		SealDurationSeconds: intField(state, "seal_duration"),
	}

	state.Field(-1, "phases")
	if state.TypeOf(-1) != lua.TypeTable {
		state.Pop(1)
		return ritual.Config{}, fmt.Errorf("pack %q: phases table is required", cfg.ID)
	}

	count := state.RawLength(-1)
	for i := 1; i <= count; i++ {
		state.RawGetInt(-1, i)
		if state.TypeOf(-1) != lua.TypeTable {
			state.Pop(2)
			return ritual.Config{}, fmt.Errorf("pack %q: phase %d is not a table", cfg.ID, i)
		}
		phase, err := decodePhase(state, i-1)
		state.Pop(1)
		if err != nil {
			state.Pop(1)
			return ritual.Config{}, fmt.Errorf("pack %q: %w", cfg.ID, err)
		}
		cfg.Phases = append(cfg.Phases, phase)
		cfg.TotalDurationSeconds += phase.DurationSeconds
	}
	state.Pop(1)

	return cfg, nil
}

// decodePhase reads the phase table at the top of the stack.
func decodePhase(state *lua.State, index int) (ritual.Phase, error) {
	phase := ritual.Phase{
		Index:               index,
		Key:                 stringField(state, "key"),
		Title:               stringField(state, "title"),
		DurationSeconds:     intField(state, "duration"),
		InstructionRotation: durationField(state, "rotation"),
		HapticInterval:      durationField(state, "haptic"),
	}

	style := stringField(state, "style")
	switch style {
	case "", "light":
		phase.Haptic = ritual.HapticLight
	case "medium":
		phase.Haptic = ritual.HapticMedium
	default:
		return ritual.Phase{}, fmt.Errorf("phase %d: unknown haptic style %q", index, style)
	}

	state.Field(-1, "instructions")
	if state.TypeOf(-1) == lua.TypeTable {
		count := state.RawLength(-1)
		for i := 1; i <= count; i++ {
			state.RawGetInt(-1, i)
			if text, ok := state.ToString(-1); ok {
				phase.Instructions = append(phase.Instructions, text)
			}
			state.Pop(1)
		}
	}
	state.Pop(1)

	if phase.Instructions == nil {
		phase.Instructions = ritual.InstructionsFor(ritual.BaseLocale, phase.Key)
	}
	if phase.InstructionRotation == 0 {
		phase.InstructionRotation = defaultInterval
	}
	if phase.HapticInterval == 0 {
		phase.HapticInterval = defaultInterval
	}

	return phase, nil
}

func validate(cfg ritual.Config) error {
	if cfg.ID == "" {
		return fmt.Errorf("pack id is required")
	}
	if cfg.Name == "" {
		return fmt.Errorf("pack %q: name is required", cfg.ID)
	}
	if len(cfg.Phases) == 0 {
		return fmt.Errorf("pack %q: at least one phase is required", cfg.ID)
	}
	for _, phase := range cfg.Phases {
		if phase.Key == "" || phase.Title == "" {
			return fmt.Errorf("pack %q: phase %d needs a key and title", cfg.ID, phase.Index)
		}
		if phase.DurationSeconds <= 0 {
			return fmt.Errorf("pack %q: phase %q duration must be positive", cfg.ID, phase.Key)
		}
	}
	if cfg.TotalDurationSeconds < ritual.MinDurationSeconds || cfg.TotalDurationSeconds > ritual.MaxDurationSeconds {
		return fmt.Errorf("pack %q: total duration %ds is outside [%d, %d]",
			cfg.ID, cfg.TotalDurationSeconds, ritual.MinDurationSeconds, ritual.MaxDurationSeconds)
	}
	return nil
}

// stringField reads a string field from the table at the top of the stack.
func stringField(state *lua.State, name string) string {
	state.Field(-1, name)
	defer state.Pop(1)
	if state.TypeOf(-1) != lua.TypeString {
		return ""
	}
	value, _ := state.ToString(-1)
	return value
}

// intField reads a numeric field from the table at the top of the stack.
func intField(state *lua.State, name string) int {
	state.Field(-1, name)
	defer state.Pop(1)
	value, ok := state.ToNumber(-1)
	if !ok {
		return 0
	}
	return int(value)
}

func durationField(state *lua.State, name string) time.Duration {
	return time.Duration(intField(state, name)) * time.Second
}
