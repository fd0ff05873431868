// Package service tests the MCP server wiring.
package service

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	practicedomain "github.com/emberflow/emberflow/internal/practice/domain"
	practicesvc "github.com/emberflow/emberflow/internal/practice/service"
	"github.com/emberflow/emberflow/internal/storage"
	"github.com/emberflow/emberflow/internal/syncgrant"
	"github.com/emberflow/emberflow/internal/telemetry"
)

type stubActivityStore struct{}

func (stubActivityStore) AppendActivity(context.Context, practicedomain.Activity) error {
	return nil
}

func (stubActivityStore) ListActivities(context.Context, string, string) ([]practicedomain.Activity, error) {
	return nil, nil
}

type stubGraceStore struct{}

func (stubGraceStore) GraceDayUsedAt(context.Context, string) (*time.Time, error) { return nil, nil }
func (stubGraceStore) PutGraceDayUsedAt(context.Context, string, time.Time) error { return nil }

type stubRunStore struct{}

func (stubRunStore) PutRitualRun(context.Context, practicedomain.RitualRun) error { return nil }
func (stubRunStore) GetRitualRun(context.Context, string) (practicedomain.RitualRun, error) {
	return practicedomain.RitualRun{}, storage.ErrNotFound
}

func newStubPracticeService() *practicesvc.Service {
	return practicesvc.New(practicesvc.Stores{
		Activity:  stubActivityStore{},
		Grace:     stubGraceStore{},
		RitualRun: stubRunStore{},
	}, telemetry.NewEmitter(nil))
}

func TestNewRequiresPracticeService(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("New(nil) succeeded, want error")
	}
}

func TestNewRegistersSurface(t *testing.T) {
	server, err := New(newStubPracticeService())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if server.mcpServer == nil {
		t.Fatal("mcp server is nil")
	}
}

func TestServeRequiresConfiguredServer(t *testing.T) {
	tests := []struct {
		name   string
		server *Server
	}{
		{"nil server", nil},
		{"empty server", &Server{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.server.Serve(context.Background()); err == nil {
				t.Error("Serve succeeded, want error")
			}
		})
	}
}

func TestRunRejectsUnknownTransport(t *testing.T) {
	err := Run(context.Background(), newStubPracticeService(), Config{Transport: "carrier-pigeon"})
	if err == nil {
		t.Fatal("Run with unknown transport succeeded, want error")
	}
}

func TestAuthorizeWithoutGrantsAllowsAll(t *testing.T) {
	transport := NewHTTPTransport("localhost:0", nil)

	req, err := http.NewRequest(http.MethodPost, "/mcp/messages", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if err := transport.authorize(req); err != nil {
		t.Errorf("authorize without grants: %v", err)
	}
}

func TestAuthorizeWithGrants(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	cfg := syncgrant.Config{
		Issuer:   "issuer",
		Audience: "emberflow-sync",
		Key:      pub,
		Now:      func() time.Time { return now },
	}
	transport := NewHTTPTransport("localhost:0", nil)
	transport.grants = &cfg

	grant := signTestGrant(t, priv, map[string]any{
		"iss":     "issuer",
		"aud":     "emberflow-sync",
		"exp":     now.Add(time.Hour).Unix(),
		"jti":     "jti-1",
		"user_id": "user-1",
	})

	tests := []struct {
		name    string
		bearer  string
		user    string
		wantErr bool
	}{
		{"valid grant", grant, "user-1", false},
		{"missing bearer", "", "user-1", true},
		{"missing user header", grant, "", true},
		{"user mismatch", grant, "user-2", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodPost, "/mcp/messages", nil)
			if err != nil {
				t.Fatalf("new request: %v", err)
			}
			if tt.bearer != "" {
				req.Header.Set("Authorization", "Bearer "+tt.bearer)
			}
			if tt.user != "" {
				req.Header.Set(userHeader, tt.user)
			}

			err = transport.authorize(req)
			if tt.wantErr && err == nil {
				t.Error("authorize succeeded, want error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("authorize: %v", err)
			}
		})
	}
}

func signTestGrant(t *testing.T, privateKey ed25519.PrivateKey, payload map[string]any) string {
	t.Helper()

	headerJSON, err := json.Marshal(map[string]any{"alg": "EdDSA", "typ": "JWT"})
	if err != nil {
		t.Fatalf("marshal header: %v", err)
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}

	encodedHeader := base64.RawURLEncoding.EncodeToString(headerJSON)
	encodedPayload := base64.RawURLEncoding.EncodeToString(payloadJSON)
	signingInput := encodedHeader + "." + encodedPayload
	signature := ed25519.Sign(privateKey, []byte(signingInput))
	return signingInput + "." + base64.RawURLEncoding.EncodeToString(signature)
}
