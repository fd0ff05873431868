// Package seed populates a local database with demo practice history.
package seed

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"

	practicedomain "github.com/emberflow/emberflow/internal/practice/domain"
	practicesvc "github.com/emberflow/emberflow/internal/practice/service"
	"github.com/emberflow/emberflow/internal/ritual"
	"github.com/emberflow/emberflow/internal/storage/sqlite"
	"github.com/emberflow/emberflow/internal/telemetry"
)

// Config holds seed command configuration.
type Config struct {
	DBPath string
	UserID string
	// Days is how many consecutive days of history to backfill, ending today.
	Days int
	// Skip lists day offsets (0 = today) left without activity, so streak
	// gaps can be demonstrated.
	Skip string
	// Ritual also records one completed ritual run for today.
	Ritual bool
}

// ParseConfig parses flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	fs.StringVar(&cfg.DBPath, "db", "emberflow.db", "SQLite database path")
	fs.StringVar(&cfg.UserID, "user", "demo-user", "user to seed history for")
	fs.IntVar(&cfg.Days, "days", 14, "days of history to backfill")
	fs.StringVar(&cfg.Skip, "skip", "", "comma-separated day offsets to leave empty (0 = today)")
	fs.BoolVar(&cfg.Ritual, "ritual", true, "record a completed ritual run for today")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run seeds the database and prints the resulting streak summary.
func Run(ctx context.Context, cfg Config) error {
	if cfg.Days <= 0 {
		return fmt.Errorf("days must be positive, got %d", cfg.Days)
	}
	skip, err := parseSkip(cfg.Skip)
	if err != nil {
		return err
	}

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	practice := practicesvc.New(practicesvc.Stores{
		Activity:  store,
		Grace:     store,
		RitualRun: store,
	}, telemetry.NewEmitter(store))

	now := time.Now().UTC()
	recorded := 0
	for offset := cfg.Days - 1; offset >= 0; offset-- {
		if skip[offset] {
			continue
		}
		_, err := practice.RecordActivity(ctx, practicedomain.CreateActivityInput{
			UserID:     cfg.UserID,
			Kind:       practicedomain.ActivityKindActivation,
			OccurredAt: now.AddDate(0, 0, -offset),
		})
		if err != nil {
			return fmt.Errorf("record day -%d: %w", offset, err)
		}
		recorded++
	}

	if cfg.Ritual {
		run, err := practice.StartRitual(ctx, cfg.UserID, ritual.ModeRitual, 300)
		if err != nil {
			return fmt.Errorf("start ritual: %w", err)
		}
		if _, err := practice.CompleteRitual(ctx, run.ID); err != nil {
			return fmt.Errorf("complete ritual: %w", err)
		}
	}

	summary, err := practice.StreakSummary(ctx, cfg.UserID)
	if err != nil {
		return fmt.Errorf("streak summary: %w", err)
	}

	fmt.Printf("Seeded %d activation days for %s\n", recorded, cfg.UserID)
	fmt.Printf("Current streak: %d\n", summary.CurrentStreak)
	fmt.Printf("Longest streak: %d\n", summary.LongestStreak)
	fmt.Printf("Grace day available: %t\n", summary.GraceDayAvailable)
	return nil
}

// parseSkip parses comma-separated day offsets into a set.
func parseSkip(value string) (map[int]bool, error) {
	skip := make(map[int]bool)
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		offset, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("parse skip offset %q: %w", part, err)
		}
		if offset < 0 {
			return nil, fmt.Errorf("skip offset %d is negative", offset)
		}
		skip[offset] = true
	}
	return skip, nil
}
