// Package service hosts the MCP server exposing practice tools and
// resources over stdio or HTTP transports.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/emberflow/emberflow/internal/mcp/domain"
	practicesvc "github.com/emberflow/emberflow/internal/practice/service"
	"github.com/emberflow/emberflow/internal/syncgrant"
)

const (
	// serverName identifies this MCP server to clients.
	serverName = "Emberflow Practice MCP"
	// serverVersion identifies the MCP server version.
	serverVersion = "0.1.0"
)

// TransportKind identifies the MCP transport implementation.
type TransportKind string

const (
	// TransportStdio uses standard input/output for MCP.
	TransportStdio TransportKind = "stdio"
	// TransportHTTP serves MCP over HTTP with optional sync-grant auth.
	TransportHTTP TransportKind = "http"
)

// Config configures the MCP server.
type Config struct {
	Transport TransportKind
	// HTTPAddr is the HTTP listen address. Defaults to localhost:8081 for
	// the HTTP transport.
	HTTPAddr string
	// Grants enables bearer-token authentication on the HTTP transport when
	// set. Stdio is always unauthenticated.
	Grants *syncgrant.Config
}

// Server hosts the MCP server.
type Server struct {
	mcpServer *mcp.Server
}

// New creates a configured MCP server backed by the practice service.
func New(practice *practicesvc.Service) (*Server, error) {
	if practice == nil {
		return nil, fmt.Errorf("practice service is required")
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, &mcp.ServerOptions{
		CompletionHandler: completionHandler,
	})

	registerPracticeTools(mcpServer, practice)
	registerRitualTools(mcpServer, practice)
	registerHistoryResources(mcpServer, practice)

	return &Server{mcpServer: mcpServer}, nil
}

// completionHandler handles completion/complete requests with empty results.
func completionHandler(ctx context.Context, req *mcp.CompleteRequest) (*mcp.CompleteResult, error) {
	return &mcp.CompleteResult{
		Completion: mcp.CompletionResultDetails{
			Values: []string{},
		},
	}, nil
}

// Run creates and serves the MCP server until the context ends.
func Run(ctx context.Context, practice *practicesvc.Service, cfg Config) error {
	if cfg.Transport == "" {
		cfg.Transport = TransportStdio
	}

	server, err := New(practice)
	if err != nil {
		return err
	}

	switch cfg.Transport {
	case TransportStdio:
		return server.Serve(ctx)
	case TransportHTTP:
		httpAddr := cfg.HTTPAddr
		if httpAddr == "" {
			httpAddr = "localhost:8081"
		}
		transport := NewHTTPTransport(httpAddr, server.mcpServer)
		transport.grants = cfg.Grants
		return transport.Start(ctx)
	default:
		return fmt.Errorf("transport %q is not supported", cfg.Transport)
	}
}

// Serve starts the MCP server on stdio and blocks until it stops or the
// context ends.
func (s *Server) Serve(ctx context.Context) error {
	return s.serveWithTransport(ctx, &mcp.StdioTransport{})
}

// serveWithTransport starts the MCP server using the provided transport.
func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}

func registerPracticeTools(mcpServer *mcp.Server, practice *practicesvc.Service) {
	mcp.AddTool(mcpServer, domain.ActivityRecordTool(), domain.ActivityRecordHandler(practice))
	mcp.AddTool(mcpServer, domain.StreakGetTool(), domain.StreakGetHandler(practice))
	mcp.AddTool(mcpServer, domain.GraceUseTool(), domain.GraceUseHandler(practice))
}

func registerRitualTools(mcpServer *mcp.Server, practice *practicesvc.Service) {
	mcp.AddTool(mcpServer, domain.RitualStartTool(), domain.RitualStartHandler(practice))
	mcp.AddTool(mcpServer, domain.RitualProgressTool(), domain.RitualProgressHandler(practice))
	mcp.AddTool(mcpServer, domain.RitualCompleteTool(), domain.RitualCompleteHandler(practice))
	mcp.AddTool(mcpServer, domain.RitualConfigPreviewTool(), domain.RitualConfigPreviewHandler())
}

// registerHistoryResources registers readable practice history resources.
func registerHistoryResources(mcpServer *mcp.Server, practice *practicesvc.Service) {
	mcpServer.AddResource(domain.HistoryListResource(), domain.HistoryListResourceHandler(practice))
}
