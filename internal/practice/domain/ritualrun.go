package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/emberflow/emberflow/internal/id"
	apperrors "github.com/emberflow/emberflow/internal/platform/errors"
	"github.com/emberflow/emberflow/internal/ritual"
)

// RitualRun tracks one timed ceremony from start to completion.
type RitualRun struct {
	ID          string
	UserID      string
	Mode        ritual.Mode
	Config      ritual.Config
	StartedAt   time.Time
	CompletedAt *time.Time // nil while the run is in progress
}

// StartRitualRunInput describes the data needed to start a run.
type StartRitualRunInput struct {
	UserID string
	Config ritual.Config
	Mode   ritual.Mode
}

// StartRitualRun creates an in-progress run with a generated ID.
func StartRitualRun(input StartRitualRunInput, now func() time.Time, idGenerator func() (string, error)) (RitualRun, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	input.UserID = strings.TrimSpace(input.UserID)
	if input.UserID == "" {
		return RitualRun{}, apperrors.New(apperrors.CodeActivityEmptyUserID, "user id is required")
	}
	if input.Mode == ritual.ModeUnspecified {
		return RitualRun{}, apperrors.New(apperrors.CodeRitualInvalidMode, "ritual mode is required")
	}

	runID, err := idGenerator()
	if err != nil {
		return RitualRun{}, fmt.Errorf("generate run id: %w", err)
	}

	return RitualRun{
		ID:        runID,
		UserID:    input.UserID,
		Mode:      input.Mode,
		Config:    input.Config,
		StartedAt: now().UTC(),
	}, nil
}

// Complete marks the run completed at the given time. Completing an already
// completed run is an error; completion happens at most once.
func (r RitualRun) Complete(completedAt time.Time) (RitualRun, error) {
	if r.CompletedAt != nil {
		return RitualRun{}, apperrors.New(apperrors.CodeRitualRunAlreadyEnded, "ritual run already completed")
	}
	ended := completedAt.UTC()
	r.CompletedAt = &ended
	return r, nil
}

// ElapsedSeconds reports whole seconds since the run started, never negative.
func (r RitualRun) ElapsedSeconds(now time.Time) int {
	elapsed := int(now.Sub(r.StartedAt) / time.Second)
	if elapsed < 0 {
		return 0
	}
	return elapsed
}
