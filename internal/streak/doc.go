// Package streak computes consecutive-practice streaks from activity
// history.
//
// All functions are pure: the caller supplies the event history, the grace
// state, and the current time, and receives a freshly derived result. The
// package never reads a clock, never mutates its inputs, and never persists
// anything, which makes repeated calls with the same arguments referentially
// transparent.
//
// Days are bucketed in UTC. An event counts toward the calendar day that
// contains its timestamp, and multiple events on the same day collapse into
// one.
package streak
