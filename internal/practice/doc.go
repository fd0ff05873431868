// Package practice serves as an umbrella for practice tracking
// functionality, including activity history, ritual run lifecycle, and the
// application service the transports call into.
//
// The package is organized into two primary subpackages:
//   - domain: Defines activity events and ritual runs with their lifecycle
//     rules.
//   - service: Implements the application layer that combines the pure
//     streak and ritual engines with durable storage.
package practice
