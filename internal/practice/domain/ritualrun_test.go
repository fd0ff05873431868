package domain

import (
	"testing"
	"time"

	apperrors "github.com/emberflow/emberflow/internal/platform/errors"
	"github.com/emberflow/emberflow/internal/ritual"
)

func testConfig(t *testing.T) ritual.Config {
	t.Helper()
	cfg, err := ritual.NewConfig(ritual.ModeRitual, 300)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	return cfg
}

func TestStartRitualRun(t *testing.T) {
	run, err := StartRitualRun(StartRitualRunInput{
		UserID: "user-1",
		Mode:   ritual.ModeRitual,
		Config: testConfig(t),
	}, fixedClock, staticID("run-1"))
	if err != nil {
		t.Fatalf("StartRitualRun: %v", err)
	}

	if run.ID != "run-1" {
		t.Errorf("ID = %q", run.ID)
	}
	if !run.StartedAt.Equal(fixedNow) {
		t.Errorf("StartedAt = %v, want %v", run.StartedAt, fixedNow)
	}
	if run.CompletedAt != nil {
		t.Error("new run already completed")
	}
}

func TestStartRitualRunValidation(t *testing.T) {
	if _, err := StartRitualRun(StartRitualRunInput{Mode: ritual.ModeFocus}, fixedClock, staticID("x")); !apperrors.IsCode(err, apperrors.CodeActivityEmptyUserID) {
		t.Errorf("missing user id: code = %q", apperrors.CodeOf(err))
	}
	if _, err := StartRitualRun(StartRitualRunInput{UserID: "user-1"}, fixedClock, staticID("x")); !apperrors.IsCode(err, apperrors.CodeRitualInvalidMode) {
		t.Errorf("missing mode: code = %q", apperrors.CodeOf(err))
	}
}

func TestRitualRunComplete(t *testing.T) {
	run, err := StartRitualRun(StartRitualRunInput{
		UserID: "user-1",
		Mode:   ritual.ModeFocus,
		Config: testConfig(t),
	}, fixedClock, staticID("run-1"))
	if err != nil {
		t.Fatalf("StartRitualRun: %v", err)
	}

	endedAt := fixedNow.Add(5 * time.Minute)
	completed, err := run.Complete(endedAt)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if completed.CompletedAt == nil || !completed.CompletedAt.Equal(endedAt) {
		t.Errorf("CompletedAt = %v, want %v", completed.CompletedAt, endedAt)
	}

	// Completion is at most once.
	if _, err := completed.Complete(endedAt.Add(time.Minute)); !apperrors.IsCode(err, apperrors.CodeRitualRunAlreadyEnded) {
		t.Errorf("second Complete: code = %q, want CodeRitualRunAlreadyEnded", apperrors.CodeOf(err))
	}
}

func TestRitualRunElapsedSeconds(t *testing.T) {
	run := RitualRun{StartedAt: fixedNow}

	tests := []struct {
		name string
		now  time.Time
		want int
	}{
		{"at start", fixedNow, 0},
		{"mid run", fixedNow.Add(92 * time.Second), 92},
		{"sub-second truncates", fixedNow.Add(1500 * time.Millisecond), 1},
		{"before start clamps to zero", fixedNow.Add(-10 * time.Second), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := run.ElapsedSeconds(tt.now); got != tt.want {
				t.Errorf("ElapsedSeconds = %d, want %d", got, tt.want)
			}
		})
	}
}
