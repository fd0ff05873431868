// Package server parses server command flags and starts the practice MCP
// runtime.
package server

import (
	"context"
	"flag"
	"fmt"

	mcpsvc "github.com/emberflow/emberflow/internal/mcp/service"
	"github.com/emberflow/emberflow/internal/platform/config"
	platformotel "github.com/emberflow/emberflow/internal/platform/otel"
	practicesvc "github.com/emberflow/emberflow/internal/practice/service"
	"github.com/emberflow/emberflow/internal/storage/sqlite"
	"github.com/emberflow/emberflow/internal/syncgrant"
	"github.com/emberflow/emberflow/internal/telemetry"
)

// serviceName identifies the server in trace exports.
const serviceName = "emberflow-practice"

// Config holds server command configuration.
type Config struct {
	DBPath        string `env:"EMBERFLOW_DB_PATH" envDefault:"emberflow.db"`
	Transport     string `env:"EMBERFLOW_MCP_TRANSPORT" envDefault:"stdio"`
	HTTPAddr      string `env:"EMBERFLOW_MCP_HTTP_ADDR" envDefault:"localhost:8081"`
	RequireGrants bool   `env:"EMBERFLOW_SYNC_GRANTS_REQUIRED" envDefault:"false"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path")
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "MCP transport (stdio, http)")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address for the http transport")
	fs.BoolVar(&cfg.RequireGrants, "require-grants", cfg.RequireGrants, "require sync grants on the http transport")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the practice MCP server and blocks until the context ends.
func Run(ctx context.Context, cfg Config) error {
	shutdown, err := platformotel.Setup(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

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

	mcpCfg := mcpsvc.Config{
		Transport: mcpsvc.TransportKind(cfg.Transport),
		HTTPAddr:  cfg.HTTPAddr,
	}
	if cfg.RequireGrants {
		grants, err := syncgrant.LoadConfigFromEnv(nil)
		if err != nil {
			return fmt.Errorf("load sync grant config: %w", err)
		}
		mcpCfg.Grants = &grants
	}

	return mcpsvc.Run(ctx, practice, mcpCfg)
}
