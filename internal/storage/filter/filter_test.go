package filter

import (
	"strings"
	"testing"
	"time"
)

func TestParseActivityFilter(t *testing.T) {
	cutoff := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		filter     string
		wantClause string
		wantParams []any
	}{
		{
			name:       "empty filter",
			filter:     "",
			wantClause: "",
			wantParams: nil,
		},
		{
			name:       "kind equality",
			filter:     `kind = "ritual"`,
			wantClause: "kind = ?",
			wantParams: []any{"ritual"},
		},
		{
			name:       "kind inequality",
			filter:     `kind != "activation"`,
			wantClause: "kind != ?",
			wantParams: []any{"activation"},
		},
		{
			name:       "timestamp comparison",
			filter:     `occurred_at >= timestamp("2025-03-01T00:00:00Z")`,
			wantClause: "occurred_at_ms >= ?",
			wantParams: []any{cutoff.UnixMilli()},
		},
		{
			name:       "conjunction",
			filter:     `kind = "ritual" AND occurred_at < timestamp("2025-03-01T00:00:00Z")`,
			wantClause: "(kind = ? AND occurred_at_ms < ?)",
			wantParams: []any{"ritual", cutoff.UnixMilli()},
		},
		{
			name:       "disjunction",
			filter:     `kind = "ritual" OR kind = "activation"`,
			wantClause: "(kind = ? OR kind = ?)",
			wantParams: []any{"ritual", "activation"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseActivityFilter(tt.filter)
			if err != nil {
				t.Fatalf("ParseActivityFilter: %v", err)
			}
			if got.Clause != tt.wantClause {
				t.Errorf("Clause = %q, want %q", got.Clause, tt.wantClause)
			}
			if len(got.Params) != len(tt.wantParams) {
				t.Fatalf("got %d params, want %d", len(got.Params), len(tt.wantParams))
			}
			for i := range got.Params {
				if got.Params[i] != tt.wantParams[i] {
					t.Errorf("param %d = %v, want %v", i, got.Params[i], tt.wantParams[i])
				}
			}
		})
	}
}

func TestParseActivityFilterErrors(t *testing.T) {
	tests := []struct {
		name    string
		filter  string
		wantErr string
	}{
		{"unknown field", `anchor = "x"`, "parse filter"},
		{"malformed expression", `kind = `, "parse filter"},
		{"bad timestamp", `occurred_at > timestamp("not-a-time")`, "timestamp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseActivityFilter(tt.filter)
			if err == nil {
				t.Fatal("ParseActivityFilter succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}
