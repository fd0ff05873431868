package storage

import (
	"context"
	"errors"
	"time"

	"github.com/emberflow/emberflow/internal/practice/domain"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// ActivityStore persists completed practice events.
type ActivityStore interface {
	// AppendActivity records one completed practice event.
	AppendActivity(ctx context.Context, activity domain.Activity) error
	// ListActivities returns a user's history, newest first. The filter is
	// an optional AIP-160 expression over kind and occurred_at; empty means
	// everything.
	ListActivities(ctx context.Context, userID, filter string) ([]domain.Activity, error)
}

// GraceStore persists grace-day consumption per user.
type GraceStore interface {
	// GraceDayUsedAt returns when the user last consumed a grace day, nil
	// when never.
	GraceDayUsedAt(ctx context.Context, userID string) (*time.Time, error)
	// PutGraceDayUsedAt records a grace-day consumption.
	PutGraceDayUsedAt(ctx context.Context, userID string, usedAt time.Time) error
}

// RitualRunStore persists ritual run records.
type RitualRunStore interface {
	PutRitualRun(ctx context.Context, run domain.RitualRun) error
	GetRitualRun(ctx context.Context, id string) (domain.RitualRun, error)
}

// TelemetryEvent is one operational event worth keeping around.
type TelemetryEvent struct {
	Timestamp time.Time
	Kind      string
	UserID    string
	Metadata  map[string]string
}

// TelemetryStore persists operational telemetry events.
type TelemetryStore interface {
	AppendTelemetryEvent(ctx context.Context, event TelemetryEvent) error
}
