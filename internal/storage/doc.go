// Package storage defines the persistence interfaces for the Emberflow
// practice service.
//
// It provides a high-level abstraction for storing activity history, grace
// day consumption, ritual runs, and operational telemetry. Implementations
// of these interfaces (e.g., using SQLite) can be found in subpackages.
//
// # Error Types
//
// The package defines common error types used across storage implementations:
//   - ErrNotFound: Indicates a requested record is missing.
package storage
