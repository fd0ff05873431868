// Package domain defines the practice entities: activity events recorded
// when a user completes a session, and ritual runs tracking one timed
// ceremony from start to completion.
//
// Constructors take explicit clock and id-generator functions so the entities
// stay deterministic under test.
package domain
