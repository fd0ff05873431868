package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/emberflow/emberflow/internal/practice/domain"
	"github.com/emberflow/emberflow/internal/ritual"
	"github.com/emberflow/emberflow/internal/storage"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "practice.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("Open with blank path succeeded, want error")
	}
}

func TestActivityRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)
	events := []domain.Activity{
		{ID: "a1", UserID: "user-1", Kind: domain.ActivityKindActivation, OccurredAt: base},
		{ID: "a2", UserID: "user-1", Kind: domain.ActivityKindRitual, OccurredAt: base.AddDate(0, 0, 1)},
		{ID: "a3", UserID: "user-2", Kind: domain.ActivityKindActivation, OccurredAt: base},
	}
	for _, event := range events {
		if err := store.AppendActivity(ctx, event); err != nil {
			t.Fatalf("append %s: %v", event.ID, err)
		}
	}

	got, err := store.ListActivities(ctx, "user-1", "")
	if err != nil {
		t.Fatalf("list activities: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d activities, want 2", len(got))
	}
	// Newest first.
	if got[0].ID != "a2" || got[1].ID != "a1" {
		t.Errorf("order = [%s %s], want [a2 a1]", got[0].ID, got[1].ID)
	}
	if got[0].Kind != domain.ActivityKindRitual {
		t.Errorf("kind = %v, want ritual", got[0].Kind)
	}
	if !got[1].OccurredAt.Equal(base) {
		t.Errorf("occurred at = %v, want %v", got[1].OccurredAt, base)
	}
}

func TestListActivitiesWithFilter(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)
	events := []domain.Activity{
		{ID: "a1", UserID: "user-1", Kind: domain.ActivityKindActivation, OccurredAt: base},
		{ID: "a2", UserID: "user-1", Kind: domain.ActivityKindRitual, OccurredAt: base.AddDate(0, 0, 1)},
		{ID: "a3", UserID: "user-1", Kind: domain.ActivityKindRitual, OccurredAt: base.AddDate(0, 0, 2)},
	}
	for _, event := range events {
		if err := store.AppendActivity(ctx, event); err != nil {
			t.Fatalf("append %s: %v", event.ID, err)
		}
	}

	got, err := store.ListActivities(ctx, "user-1", `kind = "ritual"`)
	if err != nil {
		t.Fatalf("list with kind filter: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d ritual activities, want 2", len(got))
	}

	got, err = store.ListActivities(ctx, "user-1", `occurred_at >= timestamp("2025-03-12T00:00:00Z")`)
	if err != nil {
		t.Fatalf("list with timestamp filter: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a3" {
		t.Errorf("timestamp filter got %v, want only a3", got)
	}

	if _, err := store.ListActivities(ctx, "user-1", `anchor = "x"`); err == nil {
		t.Error("unknown filter field succeeded, want error")
	}
}

func TestGraceDayRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	got, err := store.GraceDayUsedAt(ctx, "user-1")
	if err != nil {
		t.Fatalf("grace day lookup: %v", err)
	}
	if got != nil {
		t.Errorf("unused grace day = %v, want nil", got)
	}

	usedAt := time.Date(2025, time.March, 12, 9, 30, 0, 0, time.UTC)
	if err := store.PutGraceDayUsedAt(ctx, "user-1", usedAt); err != nil {
		t.Fatalf("put grace day: %v", err)
	}

	got, err = store.GraceDayUsedAt(ctx, "user-1")
	if err != nil {
		t.Fatalf("grace day lookup: %v", err)
	}
	if got == nil || !got.Equal(usedAt) {
		t.Errorf("grace day = %v, want %v", got, usedAt)
	}

	// Re-consumption replaces the previous timestamp.
	later := usedAt.AddDate(0, 0, 8)
	if err := store.PutGraceDayUsedAt(ctx, "user-1", later); err != nil {
		t.Fatalf("put grace day again: %v", err)
	}
	got, err = store.GraceDayUsedAt(ctx, "user-1")
	if err != nil {
		t.Fatalf("grace day lookup: %v", err)
	}
	if got == nil || !got.Equal(later) {
		t.Errorf("grace day = %v, want %v", got, later)
	}
}

func TestRitualRunRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	cfg, err := ritual.NewConfig(ritual.ModeRitual, 600)
	if err != nil {
		t.Fatalf("new config: %v", err)
	}
	startedAt := time.Date(2025, time.March, 14, 21, 0, 0, 0, time.UTC)
	run := domain.RitualRun{
		ID:        "run-1",
		UserID:    "user-1",
		Mode:      ritual.ModeRitual,
		Config:    cfg,
		StartedAt: startedAt,
	}

	if err := store.PutRitualRun(ctx, run); err != nil {
		t.Fatalf("put run: %v", err)
	}

	got, err := store.GetRitualRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if got.Mode != ritual.ModeRitual {
		t.Errorf("mode = %v, want ritual", got.Mode)
	}
	if got.Config.TotalDurationSeconds != 600 {
		t.Errorf("config total = %d, want 600", got.Config.TotalDurationSeconds)
	}
	if len(got.Config.Phases) != 5 {
		t.Errorf("config phases = %d, want 5", len(got.Config.Phases))
	}
	if !got.StartedAt.Equal(startedAt) {
		t.Errorf("started at = %v, want %v", got.StartedAt, startedAt)
	}
	if got.CompletedAt != nil {
		t.Errorf("completed at = %v, want nil", got.CompletedAt)
	}

	completedAt := startedAt.Add(10 * time.Minute)
	completed, err := run.Complete(completedAt)
	if err != nil {
		t.Fatalf("complete run: %v", err)
	}
	if err := store.PutRitualRun(ctx, completed); err != nil {
		t.Fatalf("put completed run: %v", err)
	}

	got, err = store.GetRitualRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if got.CompletedAt == nil || !got.CompletedAt.Equal(completedAt) {
		t.Errorf("completed at = %v, want %v", got.CompletedAt, completedAt)
	}
}

func TestGetRitualRunNotFound(t *testing.T) {
	store := openTestStore(t)

	_, err := store.GetRitualRun(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestAppendTelemetryEvent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	err := store.AppendTelemetryEvent(ctx, storage.TelemetryEvent{
		Timestamp: time.Date(2025, time.March, 15, 7, 0, 0, 0, time.UTC),
		Kind:      "ritual_started",
		UserID:    "user-1",
		Metadata:  map[string]string{"mode": "ritual"},
	})
	if err != nil {
		t.Fatalf("append telemetry: %v", err)
	}

	var count int
	if err := store.sqlDB.QueryRow("SELECT COUNT(*) FROM telemetry_events").Scan(&count); err != nil {
		t.Fatalf("count telemetry: %v", err)
	}
	if count != 1 {
		t.Errorf("telemetry rows = %d, want 1", count)
	}
}
