// Package ritual expands a practice mode and duration into a timed phase
// schedule and resolves elapsed time against it.
//
// The package is organized around three pure operations:
//   - NewConfig builds a Config for a mode, scaling the canonical phase
//     table to a requested duration.
//   - CurrentPhase resolves an elapsed-seconds value to the active phase.
//   - Progress, FormatDuration, and FormatClock are formatting helpers for
//     callers that render countdowns.
//
// Nothing here reads a clock or holds state; callers feed elapsed time in on
// every tick and identical inputs always produce identical outputs.
package ritual
