// Package sqlite provides a SQLite-backed practice storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/emberflow/emberflow/internal/platform/storage/sqlitemigrate"
	"github.com/emberflow/emberflow/internal/practice/domain"
	"github.com/emberflow/emberflow/internal/ritual"
	"github.com/emberflow/emberflow/internal/storage"
	"github.com/emberflow/emberflow/internal/storage/filter"
	"github.com/emberflow/emberflow/internal/storage/sqlite/migrations"
)

// Store persists practice state in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite practice store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// AppendActivity records one completed practice event.
func (s *Store) AppendActivity(ctx context.Context, activity domain.Activity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(activity.ID) == "" {
		return fmt.Errorf("activity id is required")
	}
	if strings.TrimSpace(activity.UserID) == "" {
		return fmt.Errorf("user id is required")
	}
	if activity.OccurredAt.IsZero() {
		return fmt.Errorf("occurred at is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO activities (id, user_id, kind, occurred_at_ms) VALUES (?, ?, ?, ?)`,
		activity.ID,
		activity.UserID,
		activity.Kind.String(),
		toMillis(activity.OccurredAt),
	)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

// ListActivities returns a user's history, newest first, optionally narrowed
// by an AIP-160 filter over kind and occurred_at.
func (s *Store) ListActivities(ctx context.Context, userID, filterStr string) ([]domain.Activity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	condition, err := filter.ParseActivityFilter(filterStr)
	if err != nil {
		return nil, err
	}

	query := `SELECT id, user_id, kind, occurred_at_ms FROM activities WHERE user_id = ?`
	params := []any{userID}
	if condition.Clause != "" {
		query += " AND " + condition.Clause
		params = append(params, condition.Params...)
	}
	query += " ORDER BY occurred_at_ms DESC"

	rows, err := s.sqlDB.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query activities: %w", err)
	}
	defer rows.Close()

	var activities []domain.Activity
	for rows.Next() {
		var (
			activity domain.Activity
			kind     string
			millis   int64
		)
		if err := rows.Scan(&activity.ID, &activity.UserID, &kind, &millis); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		activity.Kind, _ = domain.ParseActivityKind(kind)
		activity.OccurredAt = fromMillis(millis)
		activities = append(activities, activity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activities: %w", err)
	}
	return activities, nil
}

// GraceDayUsedAt returns when the user last consumed a grace day, nil when
// never.
func (s *Store) GraceDayUsedAt(ctx context.Context, userID string) (*time.Time, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	var millis int64
	row := s.sqlDB.QueryRowContext(ctx, `SELECT used_at_ms FROM grace_days WHERE user_id = ?`, userID)
	if err := row.Scan(&millis); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query grace day: %w", err)
	}
	usedAt := fromMillis(millis)
	return &usedAt, nil
}

// PutGraceDayUsedAt records a grace-day consumption, replacing any prior one.
func (s *Store) PutGraceDayUsedAt(ctx context.Context, userID string, usedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	if usedAt.IsZero() {
		return fmt.Errorf("used at is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO grace_days (user_id, used_at_ms) VALUES (?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET used_at_ms = excluded.used_at_ms`,
		userID,
		toMillis(usedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert grace day: %w", err)
	}
	return nil
}

// PutRitualRun inserts or replaces a ritual run record.
func (s *Store) PutRitualRun(ctx context.Context, run domain.RitualRun) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(run.ID) == "" {
		return fmt.Errorf("run id is required")
	}
	if strings.TrimSpace(run.UserID) == "" {
		return fmt.Errorf("user id is required")
	}

	configJSON, err := json.Marshal(run.Config)
	if err != nil {
		return fmt.Errorf("marshal run config: %w", err)
	}

	var completedAt any
	if run.CompletedAt != nil {
		completedAt = toMillis(*run.CompletedAt)
	}

	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO ritual_runs (id, user_id, mode, config_json, started_at_ms, completed_at_ms)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET completed_at_ms = excluded.completed_at_ms`,
		run.ID,
		run.UserID,
		run.Mode.String(),
		string(configJSON),
		toMillis(run.StartedAt),
		completedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert ritual run: %w", err)
	}
	return nil
}

// GetRitualRun fetches a ritual run by id.
func (s *Store) GetRitualRun(ctx context.Context, id string) (domain.RitualRun, error) {
	if err := ctx.Err(); err != nil {
		return domain.RitualRun{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.RitualRun{}, fmt.Errorf("storage is not configured")
	}

	var (
		run         domain.RitualRun
		mode        string
		configJSON  string
		startedMs   int64
		completedMs sql.NullInt64
	)
	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, user_id, mode, config_json, started_at_ms, completed_at_ms FROM ritual_runs WHERE id = ?`,
		id,
	)
	if err := row.Scan(&run.ID, &run.UserID, &mode, &configJSON, &startedMs, &completedMs); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.RitualRun{}, storage.ErrNotFound
		}
		return domain.RitualRun{}, fmt.Errorf("query ritual run: %w", err)
	}

	run.Mode, _ = ritual.ParseMode(mode)
	if err := json.Unmarshal([]byte(configJSON), &run.Config); err != nil {
		return domain.RitualRun{}, fmt.Errorf("unmarshal run config: %w", err)
	}
	run.StartedAt = fromMillis(startedMs)
	if completedMs.Valid {
		completedAt := fromMillis(completedMs.Int64)
		run.CompletedAt = &completedAt
	}
	return run, nil
}

// AppendTelemetryEvent records one operational telemetry event.
func (s *Store) AppendTelemetryEvent(ctx context.Context, event storage.TelemetryEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(event.Kind) == "" {
		return fmt.Errorf("telemetry kind is required")
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	metadataJSON := "{}"
	if len(event.Metadata) > 0 {
		raw, err := json.Marshal(event.Metadata)
		if err != nil {
			return fmt.Errorf("marshal telemetry metadata: %w", err)
		}
		metadataJSON = string(raw)
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO telemetry_events (ts_ms, kind, user_id, metadata_json) VALUES (?, ?, ?, ?)`,
		toMillis(event.Timestamp),
		event.Kind,
		event.UserID,
		metadataJSON,
	)
	if err != nil {
		return fmt.Errorf("insert telemetry event: %w", err)
	}
	return nil
}

var (
	_ storage.ActivityStore  = (*Store)(nil)
	_ storage.GraceStore     = (*Store)(nil)
	_ storage.RitualRunStore = (*Store)(nil)
	_ storage.TelemetryStore = (*Store)(nil)
)
