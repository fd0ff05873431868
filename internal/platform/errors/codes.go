// Package errors provides structured, coded error handling for the
// Emberflow practice service.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Activity errors
	CodeActivityEmptyUserID     Code = "ACTIVITY_EMPTY_USER_ID"
	CodeActivityInvalidKind     Code = "ACTIVITY_INVALID_KIND"
	CodeActivityInvalidOccurred Code = "ACTIVITY_INVALID_OCCURRED_AT"

	// Grace-day errors
	CodeGraceDayUnavailable Code = "GRACE_DAY_UNAVAILABLE"
	CodeGraceDayNotNeeded   Code = "GRACE_DAY_NOT_NEEDED"

	// Ritual run errors
	CodeRitualInvalidMode     Code = "RITUAL_INVALID_MODE"
	CodeRitualRunNotFound     Code = "RITUAL_RUN_NOT_FOUND"
	CodeRitualRunAlreadyEnded Code = "RITUAL_RUN_ALREADY_ENDED"

	// Sync grant errors
	CodeSyncGrantInvalid  Code = "SYNC_GRANT_INVALID"
	CodeSyncGrantExpired  Code = "SYNC_GRANT_EXPIRED"
	CodeSyncGrantMismatch Code = "SYNC_GRANT_MISMATCH"

	// Storage errors
	CodeNotFound       Code = "NOT_FOUND"
	CodeStorageFailure Code = "STORAGE_FAILURE"
)
