// Package domain defines the MCP tool and resource surface for the practice
// service: schemas, handlers, and payload shaping.
package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	practicedomain "github.com/emberflow/emberflow/internal/practice/domain"
	"github.com/emberflow/emberflow/internal/practice/service"
	"github.com/emberflow/emberflow/internal/streak"
)

// ActivityRecordInput represents the MCP tool input for recording practice.
type ActivityRecordInput struct {
	UserID string `json:"user_id" jsonschema:"user identifier"`
	Kind   string `json:"kind" jsonschema:"activity kind (activation, ritual)"`
	// OccurredAt is optional RFC3339; empty means now.
	OccurredAt string `json:"occurred_at,omitempty" jsonschema:"optional RFC3339 timestamp"`
}

// ActivityRecordResult represents the MCP tool output for recording practice.
type ActivityRecordResult struct {
	ID         string `json:"id" jsonschema:"activity identifier"`
	UserID     string `json:"user_id" jsonschema:"user identifier"`
	Kind       string `json:"kind" jsonschema:"activity kind"`
	OccurredAt string `json:"occurred_at" jsonschema:"RFC3339 timestamp"`
}

// StreakGetInput represents the MCP tool input for streak lookups.
type StreakGetInput struct {
	UserID string `json:"user_id" jsonschema:"user identifier"`
}

// StreakResult represents streak state in MCP tool outputs.
type StreakResult struct {
	CurrentStreak     int    `json:"current_streak" jsonschema:"consecutive days ending today or yesterday"`
	LongestStreak     int    `json:"longest_streak" jsonschema:"longest run ever recorded"`
	LastActivatedAt   string `json:"last_activated_at,omitempty" jsonschema:"RFC3339 timestamp of the latest activity"`
	StreakProtected   bool   `json:"streak_protected" jsonschema:"whether a grace day is bridging a missed day"`
	GraceDayAvailable bool   `json:"grace_day_available" jsonschema:"whether a grace day can be consumed now"`
}

// GraceUseInput represents the MCP tool input for consuming a grace day.
type GraceUseInput struct {
	UserID string `json:"user_id" jsonschema:"user identifier"`
}

// ActivityRecordTool defines the MCP tool schema for recording practice.
func ActivityRecordTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "activity_record",
		Description: "Records one completed practice event for a user",
	}
}

// StreakGetTool defines the MCP tool schema for streak lookups.
func StreakGetTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "streak_get",
		Description: "Returns the user's current and longest streak with grace-day state",
	}
}

// GraceUseTool defines the MCP tool schema for consuming a grace day.
func GraceUseTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "grace_use",
		Description: "Consumes the user's weekly grace day to bridge a single missed day",
	}
}

// ActivityRecordHandler executes an activity recording request.
func ActivityRecordHandler(svc *service.Service) mcp.ToolHandlerFor[ActivityRecordInput, ActivityRecordResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ActivityRecordInput) (*mcp.CallToolResult, ActivityRecordResult, error) {
		if svc == nil {
			return nil, ActivityRecordResult{}, fmt.Errorf("practice service is not configured")
		}

		kind, err := practicedomain.ParseActivityKind(input.Kind)
		if err != nil {
			return nil, ActivityRecordResult{}, fmt.Errorf("activity record failed: %w", err)
		}

		var occurredAt time.Time
		if strings.TrimSpace(input.OccurredAt) != "" {
			occurredAt, err = time.Parse(time.RFC3339, input.OccurredAt)
			if err != nil {
				return nil, ActivityRecordResult{}, fmt.Errorf("parse occurred_at: %w", err)
			}
		}

		runCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		activity, err := svc.RecordActivity(runCtx, practicedomain.CreateActivityInput{
			UserID:     input.UserID,
			Kind:       kind,
			OccurredAt: occurredAt,
		})
		if err != nil {
			return nil, ActivityRecordResult{}, fmt.Errorf("activity record failed: %w", err)
		}

		return nil, ActivityRecordResult{
			ID:         activity.ID,
			UserID:     activity.UserID,
			Kind:       activity.Kind.String(),
			OccurredAt: activity.OccurredAt.Format(time.RFC3339),
		}, nil
	}
}

// StreakGetHandler executes a streak lookup request.
func StreakGetHandler(svc *service.Service) mcp.ToolHandlerFor[StreakGetInput, StreakResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input StreakGetInput) (*mcp.CallToolResult, StreakResult, error) {
		if svc == nil {
			return nil, StreakResult{}, fmt.Errorf("practice service is not configured")
		}

		runCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		summary, err := svc.StreakSummary(runCtx, input.UserID)
		if err != nil {
			return nil, StreakResult{}, fmt.Errorf("streak get failed: %w", err)
		}

		return nil, streakResult(summary), nil
	}
}

// GraceUseHandler executes a grace-day consumption request.
func GraceUseHandler(svc *service.Service) mcp.ToolHandlerFor[GraceUseInput, StreakResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input GraceUseInput) (*mcp.CallToolResult, StreakResult, error) {
		if svc == nil {
			return nil, StreakResult{}, fmt.Errorf("practice service is not configured")
		}

		runCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		summary, err := svc.UseGraceDay(runCtx, input.UserID)
		if err != nil {
			return nil, StreakResult{}, fmt.Errorf("grace use failed: %w", err)
		}

		return nil, streakResult(summary), nil
	}
}

func streakResult(summary streak.GraceResult) StreakResult {
	result := StreakResult{
		CurrentStreak:     summary.CurrentStreak,
		LongestStreak:     summary.LongestStreak,
		StreakProtected:   summary.StreakProtected,
		GraceDayAvailable: summary.GraceDayAvailable,
	}
	if summary.LastActivatedAt != nil {
		result.LastActivatedAt = summary.LastActivatedAt.Format(time.RFC3339)
	}
	return result
}
