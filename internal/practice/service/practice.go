// Package service coordinates practice state on top of the pure streak and
// ritual engines: recording activity, grace-day consumption, and the
// lifecycle of timed ritual runs.
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/emberflow/emberflow/internal/id"
	apperrors "github.com/emberflow/emberflow/internal/platform/errors"
	"github.com/emberflow/emberflow/internal/practice/domain"
	"github.com/emberflow/emberflow/internal/ritual"
	"github.com/emberflow/emberflow/internal/storage"
	"github.com/emberflow/emberflow/internal/streak"
	"github.com/emberflow/emberflow/internal/telemetry"
)

// Stores bundles the persistence dependencies of the practice service.
type Stores struct {
	Activity  storage.ActivityStore
	Grace     storage.GraceStore
	RitualRun storage.RitualRunStore
}

// Service owns the stateful choreography around the pure engines.
type Service struct {
	stores      Stores
	emitter     *telemetry.Emitter
	clock       func() time.Time
	idGenerator func() (string, error)
	tracer      trace.Tracer
}

// New creates a practice service with default clock and id generator.
func New(stores Stores, emitter *telemetry.Emitter) *Service {
	return &Service{
		stores:      stores,
		emitter:     emitter,
		clock:       time.Now,
		idGenerator: id.NewID,
		tracer:      otel.Tracer("emberflow/practice"),
	}
}

func (s *Service) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if s.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return s.tracer.Start(ctx, name)
}

func (s *Service) now() time.Time {
	if s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock().UTC()
}

// RecordActivity validates, creates, and persists one practice event.
func (s *Service) RecordActivity(ctx context.Context, input domain.CreateActivityInput) (domain.Activity, error) {
	ctx, span := s.startSpan(ctx, "practice.RecordActivity")
	defer span.End()

	if s.stores.Activity == nil {
		return domain.Activity{}, apperrors.New(apperrors.CodeStorageFailure, "activity store is not configured")
	}

	activity, err := domain.CreateActivity(input, s.clock, s.idGenerator)
	if err != nil {
		return domain.Activity{}, err
	}
	if err := s.stores.Activity.AppendActivity(ctx, activity); err != nil {
		return domain.Activity{}, apperrors.Wrap(apperrors.CodeStorageFailure, "persist activity", err)
	}

	_ = s.emitter.Emit(ctx, storage.TelemetryEvent{
		Kind:     telemetry.KindActivityRecorded,
		UserID:   activity.UserID,
		Metadata: map[string]string{"kind": activity.Kind.String()},
	})

	return activity, nil
}

// History returns a user's practice events, newest first, optionally narrowed
// by an AIP-160 filter over kind and occurred_at.
func (s *Service) History(ctx context.Context, userID, filter string) ([]domain.Activity, error) {
	ctx, span := s.startSpan(ctx, "practice.History")
	defer span.End()

	if s.stores.Activity == nil {
		return nil, apperrors.New(apperrors.CodeStorageFailure, "activity store is not configured")
	}
	return s.stores.Activity.ListActivities(ctx, userID, filter)
}

// StreakSummary derives the user's streak state with grace applied.
func (s *Service) StreakSummary(ctx context.Context, userID string) (streak.GraceResult, error) {
	ctx, span := s.startSpan(ctx, "practice.StreakSummary")
	defer span.End()

	return s.summarize(ctx, userID)
}

func (s *Service) summarize(ctx context.Context, userID string) (streak.GraceResult, error) {
	if s.stores.Activity == nil {
		return streak.GraceResult{}, apperrors.New(apperrors.CodeStorageFailure, "activity store is not configured")
	}
	if s.stores.Grace == nil {
		return streak.GraceResult{}, apperrors.New(apperrors.CodeStorageFailure, "grace store is not configured")
	}

	activities, err := s.stores.Activity.ListActivities(ctx, userID, "")
	if err != nil {
		return streak.GraceResult{}, apperrors.Wrap(apperrors.CodeStorageFailure, "load activity history", err)
	}
	graceUsedAt, err := s.stores.Grace.GraceDayUsedAt(ctx, userID)
	if err != nil {
		return streak.GraceResult{}, apperrors.Wrap(apperrors.CodeStorageFailure, "load grace day", err)
	}

	events := make([]streak.Event, 0, len(activities))
	for _, activity := range activities {
		events = append(events, streak.Event{OccurredAt: activity.OccurredAt})
	}

	return streak.ComputeStreakWithGrace(events, graceUsedAt, s.now()), nil
}

// UseGraceDay consumes the user's grace day when one is both available and
// currently bridging a missed day. The consumption timestamp is the only
// write; streak state stays derived.
func (s *Service) UseGraceDay(ctx context.Context, userID string) (streak.GraceResult, error) {
	ctx, span := s.startSpan(ctx, "practice.UseGraceDay")
	defer span.End()

	summary, err := s.summarize(ctx, userID)
	if err != nil {
		return streak.GraceResult{}, err
	}
	if !summary.GraceDayAvailable {
		return streak.GraceResult{}, apperrors.New(apperrors.CodeGraceDayUnavailable, "grace day already used this week")
	}
	if !summary.StreakProtected {
		return streak.GraceResult{}, apperrors.New(apperrors.CodeGraceDayNotNeeded, "no missed day to bridge")
	}

	usedAt := s.now()
	if err := s.stores.Grace.PutGraceDayUsedAt(ctx, userID, usedAt); err != nil {
		return streak.GraceResult{}, apperrors.Wrap(apperrors.CodeStorageFailure, "persist grace day", err)
	}

	_ = s.emitter.Emit(ctx, storage.TelemetryEvent{
		Kind:   telemetry.KindGraceDayUsed,
		UserID: userID,
	})

	summary.GraceDayAvailable = false
	return summary, nil
}

// StartRitual builds a phase schedule for the requested mode and duration and
// persists an in-progress run.
func (s *Service) StartRitual(ctx context.Context, userID string, mode ritual.Mode, durationSeconds int) (domain.RitualRun, error) {
	ctx, span := s.startSpan(ctx, "practice.StartRitual")
	defer span.End()

	if s.stores.RitualRun == nil {
		return domain.RitualRun{}, apperrors.New(apperrors.CodeStorageFailure, "ritual run store is not configured")
	}

	cfg, err := ritual.NewConfig(mode, durationSeconds)
	if err != nil {
		return domain.RitualRun{}, apperrors.Wrap(apperrors.CodeRitualInvalidMode, "build ritual schedule", err)
	}

	run, err := domain.StartRitualRun(domain.StartRitualRunInput{
		UserID: userID,
		Mode:   mode,
		Config: cfg,
	}, s.clock, s.idGenerator)
	if err != nil {
		return domain.RitualRun{}, err
	}
	if err := s.stores.RitualRun.PutRitualRun(ctx, run); err != nil {
		return domain.RitualRun{}, apperrors.Wrap(apperrors.CodeStorageFailure, "persist ritual run", err)
	}

	_ = s.emitter.Emit(ctx, storage.TelemetryEvent{
		Kind:   telemetry.KindRitualStarted,
		UserID: run.UserID,
		Metadata: map[string]string{
			"mode":     run.Mode.String(),
			"duration": strconv.Itoa(cfg.TotalDurationSeconds),
		},
	})

	return run, nil
}

// Progress describes where a ritual run stands at a point in time.
type Progress struct {
	Run            domain.RitualRun
	ElapsedSeconds int
	Fraction       float64
	// Phase is meaningful only while Completed is false.
	Phase     ritual.PhaseLookup
	Completed bool
}

// RitualProgress resolves the active phase of a run against the clock. A run
// past the end of its schedule, or one already marked complete, reports
// completion.
func (s *Service) RitualProgress(ctx context.Context, runID string) (Progress, error) {
	ctx, span := s.startSpan(ctx, "practice.RitualProgress")
	defer span.End()

	run, err := s.getRun(ctx, runID)
	if err != nil {
		return Progress{}, err
	}

	reference := s.now()
	if run.CompletedAt != nil {
		reference = *run.CompletedAt
	}
	elapsed := run.ElapsedSeconds(reference)

	progress := Progress{
		Run:            run,
		ElapsedSeconds: elapsed,
		Fraction:       ritual.Progress(run.Config.TotalDurationSeconds, elapsed),
	}
	if run.CompletedAt != nil {
		progress.Completed = true
		return progress, nil
	}

	lookup, active := ritual.CurrentPhase(run.Config, elapsed)
	progress.Phase = lookup
	progress.Completed = !active
	return progress, nil
}

// CompleteRitual marks a run complete, at most once, and records the matching
// ritual activity event.
func (s *Service) CompleteRitual(ctx context.Context, runID string) (domain.RitualRun, error) {
	ctx, span := s.startSpan(ctx, "practice.CompleteRitual")
	defer span.End()

	run, err := s.getRun(ctx, runID)
	if err != nil {
		return domain.RitualRun{}, err
	}

	completed, err := run.Complete(s.now())
	if err != nil {
		return domain.RitualRun{}, err
	}
	if err := s.stores.RitualRun.PutRitualRun(ctx, completed); err != nil {
		return domain.RitualRun{}, apperrors.Wrap(apperrors.CodeStorageFailure, "persist ritual run", err)
	}

	if s.stores.Activity != nil {
		activity, err := domain.CreateActivity(domain.CreateActivityInput{
			UserID:     completed.UserID,
			Kind:       domain.ActivityKindRitual,
			OccurredAt: *completed.CompletedAt,
		}, s.clock, s.idGenerator)
		if err != nil {
			return domain.RitualRun{}, fmt.Errorf("create ritual activity: %w", err)
		}
		if err := s.stores.Activity.AppendActivity(ctx, activity); err != nil {
			return domain.RitualRun{}, apperrors.Wrap(apperrors.CodeStorageFailure, "persist ritual activity", err)
		}
	}

	_ = s.emitter.Emit(ctx, storage.TelemetryEvent{
		Kind:     telemetry.KindRitualCompleted,
		UserID:   completed.UserID,
		Metadata: map[string]string{"mode": completed.Mode.String()},
	})

	return completed, nil
}

func (s *Service) getRun(ctx context.Context, runID string) (domain.RitualRun, error) {
	if s.stores.RitualRun == nil {
		return domain.RitualRun{}, apperrors.New(apperrors.CodeStorageFailure, "ritual run store is not configured")
	}
	run, err := s.stores.RitualRun.GetRitualRun(ctx, runID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.RitualRun{}, apperrors.WithMetadata(
				apperrors.CodeRitualRunNotFound,
				"ritual run not found",
				map[string]string{"RunID": runID},
			)
		}
		return domain.RitualRun{}, apperrors.Wrap(apperrors.CodeStorageFailure, "load ritual run", err)
	}
	return run, nil
}
