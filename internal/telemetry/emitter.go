package telemetry

import (
	"context"
	"time"

	"github.com/emberflow/emberflow/internal/storage"
)

// Event kinds emitted by the practice service.
const (
	KindActivityRecorded = "activity_recorded"
	KindGraceDayUsed     = "grace_day_used"
	KindRitualStarted    = "ritual_started"
	KindRitualCompleted  = "ritual_completed"
)

// Emitter records operational telemetry events.
type Emitter struct {
	store storage.TelemetryStore
	clock func() time.Time
}

// NewEmitter creates a new telemetry emitter.
func NewEmitter(store storage.TelemetryStore) *Emitter {
	return &Emitter{store: store, clock: time.Now}
}

// Emit records a telemetry event. It is a no-op when the store is nil.
func (e *Emitter) Emit(ctx context.Context, evt storage.TelemetryEvent) error {
	if e == nil || e.store == nil {
		return nil
	}
	if evt.Timestamp.IsZero() {
		if e.clock == nil {
			evt.Timestamp = time.Now().UTC()
		} else {
			evt.Timestamp = e.clock().UTC()
		}
	}
	return e.store.AppendTelemetryEvent(ctx, evt)
}
