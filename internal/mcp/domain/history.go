package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/emberflow/emberflow/internal/practice/service"
)

// HistoryEntry represents one practice event in the history resource.
type HistoryEntry struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	Kind       string `json:"kind"`
	OccurredAt string `json:"occurred_at"`
}

// HistoryPayload represents the MCP resource payload for practice history.
type HistoryPayload struct {
	Activities []HistoryEntry `json:"activities"`
}

// HistoryListResource defines the MCP resource for practice history. The URI
// carries user_id and an optional AIP-160 filter as query parameters.
func HistoryListResource() *mcp.Resource {
	return &mcp.Resource{
		Name:        "history_list",
		Title:       "Practice History",
		Description: "Readable listing of a user's practice events, newest first",
		MIMEType:    "application/json",
		URI:         "history://list",
	}
}

// HistoryListResourceHandler returns a readable practice history resource.
func HistoryListResourceHandler(svc *service.Service) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if svc == nil {
			return nil, fmt.Errorf("practice service is not configured")
		}

		uri := HistoryListResource().URI
		if req != nil && req.Params != nil && req.Params.URI != "" {
			uri = req.Params.URI
		}

		parsed, err := url.Parse(uri)
		if err != nil {
			return nil, fmt.Errorf("parse history uri: %w", err)
		}
		userID := parsed.Query().Get("user_id")
		if userID == "" {
			return nil, fmt.Errorf("history uri requires a user_id query parameter")
		}
		filter := parsed.Query().Get("filter")

		runCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		activities, err := svc.History(runCtx, userID, filter)
		if err != nil {
			return nil, fmt.Errorf("history list failed: %w", err)
		}

		payload := HistoryPayload{}
		for _, activity := range activities {
			payload.Activities = append(payload.Activities, HistoryEntry{
				ID:         activity.ID,
				UserID:     activity.UserID,
				Kind:       activity.Kind.String(),
				OccurredAt: activity.OccurredAt.Format(time.RFC3339),
			})
		}

		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal history list: %w", err)
		}

		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{
					URI:      uri,
					MIMEType: "application/json",
					Text:     string(data),
				},
			},
		}, nil
	}
}
