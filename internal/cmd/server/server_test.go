package server

import (
	"flag"
	"os"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	// Setenv registers the restore cleanup; Unsetenv clears the variable so
	// the envDefault applies.
	for _, key := range []string{
		"EMBERFLOW_DB_PATH",
		"EMBERFLOW_MCP_TRANSPORT",
		"EMBERFLOW_MCP_HTTP_ADDR",
		"EMBERFLOW_SYNC_GRANTS_REQUIRED",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.DBPath != "emberflow.db" {
		t.Errorf("db path = %q, want emberflow.db", cfg.DBPath)
	}
	if cfg.Transport != "stdio" {
		t.Errorf("transport = %q, want stdio", cfg.Transport)
	}
	if cfg.RequireGrants {
		t.Error("grants required by default, want optional")
	}
}

func TestParseConfigFlagsOverrideEnv(t *testing.T) {
	t.Setenv("EMBERFLOW_DB_PATH", "env.db")
	t.Setenv("EMBERFLOW_MCP_TRANSPORT", "stdio")

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-db", "flag.db", "-transport", "http"})
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.DBPath != "flag.db" {
		t.Errorf("db path = %q, want flag.db", cfg.DBPath)
	}
	if cfg.Transport != "http" {
		t.Errorf("transport = %q, want http", cfg.Transport)
	}
}
