package ritual

// CurrentPhase resolves elapsed time to the active phase of a config.
//
// Each phase occupies the half-open interval [start, start+duration). The
// second return value is false once elapsed time reaches the sum of all
// phase durations; that is the canonical "session complete" signal and the
// only completion flag this package exposes.
//
// Negative elapsed values are the caller's to validate; no tick source in
// this layer produces them.
func CurrentPhase(cfg Config, elapsedSeconds int) (PhaseLookup, bool) {
	start := 0
	for i, phase := range cfg.Phases {
		end := start + phase.DurationSeconds
		if elapsedSeconds < end {
			return PhaseLookup{
				Phase:               phase,
				PhaseIndex:          i,
				PhaseElapsedSeconds: elapsedSeconds - start,
			}, true
		}
		start = end
	}
	return PhaseLookup{}, false
}
