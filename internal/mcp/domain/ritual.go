package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/emberflow/emberflow/internal/practice/service"
	"github.com/emberflow/emberflow/internal/ritual"
)

// RitualStartInput represents the MCP tool input for starting a ritual.
type RitualStartInput struct {
	UserID          string `json:"user_id" jsonschema:"user identifier"`
	Mode            string `json:"mode" jsonschema:"session mode (focus, ritual)"`
	DurationSeconds int    `json:"duration_seconds,omitempty" jsonschema:"requested duration in seconds, clamped to 30..1800; 0 uses the mode default"`
}

// RitualStartResult represents the MCP tool output for starting a ritual.
type RitualStartResult struct {
	RunID     string        `json:"run_id" jsonschema:"ritual run identifier"`
	Mode      string        `json:"mode" jsonschema:"session mode"`
	StartedAt string        `json:"started_at" jsonschema:"RFC3339 timestamp"`
	Config    ConfigPayload `json:"config" jsonschema:"expanded phase schedule"`
}

// RitualProgressInput represents the MCP tool input for progress lookups.
type RitualProgressInput struct {
	RunID string `json:"run_id" jsonschema:"ritual run identifier"`
}

// RitualProgressResult represents the MCP tool output for progress lookups.
type RitualProgressResult struct {
	RunID          string       `json:"run_id" jsonschema:"ritual run identifier"`
	ElapsedSeconds int          `json:"elapsed_seconds" jsonschema:"whole seconds since the run started"`
	Progress       float64      `json:"progress" jsonschema:"elapsed fraction in 0..1"`
	Clock          string       `json:"clock" jsonschema:"remaining time as M:SS"`
	Completed      bool         `json:"completed" jsonschema:"whether the schedule is exhausted"`
	Phase          *PhaseLookup `json:"phase,omitempty" jsonschema:"active phase, absent when completed"`
}

// PhaseLookup represents the active phase in progress outputs.
type PhaseLookup struct {
	Key                 string `json:"key" jsonschema:"phase key"`
	Title               string `json:"title" jsonschema:"phase title"`
	PhaseIndex          int    `json:"phase_index" jsonschema:"zero-based phase position"`
	PhaseElapsedSeconds int    `json:"phase_elapsed_seconds" jsonschema:"seconds spent inside the phase"`
	RemainingSeconds    int    `json:"remaining_seconds" jsonschema:"seconds left in the phase"`
}

// RitualCompleteInput represents the MCP tool input for completing a ritual.
type RitualCompleteInput struct {
	RunID string `json:"run_id" jsonschema:"ritual run identifier"`
}

// RitualCompleteResult represents the MCP tool output for completing a ritual.
type RitualCompleteResult struct {
	RunID       string `json:"run_id" jsonschema:"ritual run identifier"`
	Mode        string `json:"mode" jsonschema:"session mode"`
	StartedAt   string `json:"started_at" jsonschema:"RFC3339 timestamp"`
	CompletedAt string `json:"completed_at" jsonschema:"RFC3339 timestamp"`
}

// RitualConfigPreviewInput represents the MCP tool input for previewing a
// phase schedule without starting a run.
type RitualConfigPreviewInput struct {
	Mode            string `json:"mode" jsonschema:"session mode (focus, ritual)"`
	DurationSeconds int    `json:"duration_seconds,omitempty" jsonschema:"requested duration in seconds; 0 uses the mode default"`
	Locale          string `json:"locale,omitempty" jsonschema:"BCP 47 instruction locale, defaults to en-US"`
}

// RitualConfigPreviewResult represents the MCP tool output for schedule
// previews.
type RitualConfigPreviewResult struct {
	Config         ConfigPayload `json:"config" jsonschema:"expanded phase schedule"`
	TotalFormatted string        `json:"total_formatted" jsonschema:"total duration as a picker label"`
}

// ConfigPayload represents an expanded phase schedule in tool outputs.
type ConfigPayload struct {
	ID                   string         `json:"id"`
	Name                 string         `json:"name"`
	TotalDurationSeconds int            `json:"total_duration_seconds"`
	Phases               []PhasePayload `json:"phases"`
	SealDurationSeconds  int            `json:"seal_duration_seconds"`
}

// PhasePayload represents one phase in tool outputs.
type PhasePayload struct {
	Index                      int      `json:"index"`
	Key                        string   `json:"key"`
	Title                      string   `json:"title"`
	DurationSeconds            int      `json:"duration_seconds"`
	Instructions               []string `json:"instructions"`
	InstructionRotationSeconds int      `json:"instruction_rotation_seconds"`
	HapticIntervalSeconds      int      `json:"haptic_interval_seconds"`
	Haptic                     string   `json:"haptic"`
}

// RitualStartTool defines the MCP tool schema for starting a ritual.
func RitualStartTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "ritual_start",
		Description: "Starts a timed charging session and returns its phase schedule",
	}
}

// RitualProgressTool defines the MCP tool schema for progress lookups.
func RitualProgressTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "ritual_progress",
		Description: "Resolves the active phase of a running session against the clock",
	}
}

// RitualCompleteTool defines the MCP tool schema for completing a ritual.
func RitualCompleteTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "ritual_complete",
		Description: "Marks a session complete and records the matching practice event",
	}
}

// RitualConfigPreviewTool defines the MCP tool schema for schedule previews.
func RitualConfigPreviewTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "ritual_config_preview",
		Description: "Expands a mode and duration into a phase schedule without starting a run",
	}
}

// RitualStartHandler executes a ritual start request.
func RitualStartHandler(svc *service.Service) mcp.ToolHandlerFor[RitualStartInput, RitualStartResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RitualStartInput) (*mcp.CallToolResult, RitualStartResult, error) {
		if svc == nil {
			return nil, RitualStartResult{}, fmt.Errorf("practice service is not configured")
		}

		mode, err := ritual.ParseMode(input.Mode)
		if err != nil {
			return nil, RitualStartResult{}, fmt.Errorf("ritual start failed: %w", err)
		}

		runCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		run, err := svc.StartRitual(runCtx, input.UserID, mode, input.DurationSeconds)
		if err != nil {
			return nil, RitualStartResult{}, fmt.Errorf("ritual start failed: %w", err)
		}

		return nil, RitualStartResult{
			RunID:     run.ID,
			Mode:      run.Mode.String(),
			StartedAt: run.StartedAt.Format(time.RFC3339),
			Config:    configPayload(run.Config),
		}, nil
	}
}

// RitualProgressHandler executes a progress lookup request.
func RitualProgressHandler(svc *service.Service) mcp.ToolHandlerFor[RitualProgressInput, RitualProgressResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RitualProgressInput) (*mcp.CallToolResult, RitualProgressResult, error) {
		if svc == nil {
			return nil, RitualProgressResult{}, fmt.Errorf("practice service is not configured")
		}

		runCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		progress, err := svc.RitualProgress(runCtx, input.RunID)
		if err != nil {
			return nil, RitualProgressResult{}, fmt.Errorf("ritual progress failed: %w", err)
		}

		remaining := progress.Run.Config.TotalDurationSeconds - progress.ElapsedSeconds
		result := RitualProgressResult{
			RunID:          progress.Run.ID,
			ElapsedSeconds: progress.ElapsedSeconds,
			Progress:       progress.Fraction,
			Clock:          ritual.FormatClock(remaining),
			Completed:      progress.Completed,
		}
		if !progress.Completed {
			phase := progress.Phase
			result.Phase = &PhaseLookup{
				Key:                 phase.Phase.Key,
				Title:               phase.Phase.Title,
				PhaseIndex:          phase.PhaseIndex,
				PhaseElapsedSeconds: phase.PhaseElapsedSeconds,
				RemainingSeconds:    phase.Phase.DurationSeconds - phase.PhaseElapsedSeconds,
			}
		}
		return nil, result, nil
	}
}

// RitualCompleteHandler executes a ritual completion request.
func RitualCompleteHandler(svc *service.Service) mcp.ToolHandlerFor[RitualCompleteInput, RitualCompleteResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RitualCompleteInput) (*mcp.CallToolResult, RitualCompleteResult, error) {
		if svc == nil {
			return nil, RitualCompleteResult{}, fmt.Errorf("practice service is not configured")
		}

		runCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		run, err := svc.CompleteRitual(runCtx, input.RunID)
		if err != nil {
			return nil, RitualCompleteResult{}, fmt.Errorf("ritual complete failed: %w", err)
		}

		result := RitualCompleteResult{
			RunID:     run.ID,
			Mode:      run.Mode.String(),
			StartedAt: run.StartedAt.Format(time.RFC3339),
		}
		if run.CompletedAt != nil {
			result.CompletedAt = run.CompletedAt.Format(time.RFC3339)
		}
		return nil, result, nil
	}
}

// RitualConfigPreviewHandler expands a schedule without persisting anything.
func RitualConfigPreviewHandler() mcp.ToolHandlerFor[RitualConfigPreviewInput, RitualConfigPreviewResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RitualConfigPreviewInput) (*mcp.CallToolResult, RitualConfigPreviewResult, error) {
		mode, err := ritual.ParseMode(input.Mode)
		if err != nil {
			return nil, RitualConfigPreviewResult{}, fmt.Errorf("ritual config preview failed: %w", err)
		}

		cfg, err := ritual.NewConfig(mode, input.DurationSeconds)
		if err != nil {
			return nil, RitualConfigPreviewResult{}, fmt.Errorf("ritual config preview failed: %w", err)
		}
		if input.Locale != "" {
			cfg = ritual.LocalizeConfig(cfg, input.Locale)
		}

		return nil, RitualConfigPreviewResult{
			Config:         configPayload(cfg),
			TotalFormatted: ritual.FormatDuration(cfg.TotalDurationSeconds),
		}, nil
	}
}

func configPayload(cfg ritual.Config) ConfigPayload {
	payload := ConfigPayload{
		ID:                   cfg.ID,
		Name:                 cfg.Name,
		TotalDurationSeconds: cfg.TotalDurationSeconds,
		Phases:               make([]PhasePayload, 0, len(cfg.Phases)),
		SealDurationSeconds:  cfg.SealDurationSeconds,
	}
	for _, phase := range cfg.Phases {
		payload.Phases = append(payload.Phases, PhasePayload{
			Index:                      phase.Index,
			Key:                        phase.Key,
			Title:                      phase.Title,
			DurationSeconds:            phase.DurationSeconds,
			Instructions:               phase.Instructions,
			InstructionRotationSeconds: int(phase.InstructionRotation / time.Second),
			HapticIntervalSeconds:      int(phase.HapticInterval / time.Second),
			Haptic:                     phase.Haptic.String(),
		})
	}
	return payload
}
