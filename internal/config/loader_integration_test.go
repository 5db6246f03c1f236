package config

import (
	"os"
	"path/filepath"
	"testing"
)

// Tests that run the whole pipeline: defaults < YAML < env < CLI.

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "agilepulse.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func strPtr(s string) *string { return &s }

func TestPipelinePrecedence(t *testing.T) {
	tests := []struct {
		name      string
		yaml      string
		env       map[string]string
		flags     CLIFlags
		wantPort  string
		wantLevel string
	}{
		{
			name:      "defaults",
			wantPort:  "8080",
			wantLevel: "info",
		},
		{
			name:      "yaml over defaults",
			yaml:      "server:\n  port: \"9090\"\nlogging:\n  level: debug\n",
			wantPort:  "9090",
			wantLevel: "debug",
		},
		{
			name:      "env over yaml",
			yaml:      "server:\n  port: \"9090\"\nlogging:\n  level: debug\n",
			env:       map[string]string{"AGILEPULSE_PORT": "7070", "AGILEPULSE_LOG_LEVEL": "warn"},
			wantPort:  "7070",
			wantLevel: "warn",
		},
		{
			name:      "cli over env",
			yaml:      "server:\n  port: \"9090\"\n",
			env:       map[string]string{"AGILEPULSE_PORT": "7070"},
			flags:     CLIFlags{Port: strPtr("6060"), LogLevel: strPtr("error")},
			wantPort:  "6060",
			wantLevel: "error",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			flags := tt.flags
			flags.ConfigPath = strPtr(writeYAML(t, tt.yaml))

			cfg, _, err := LoadWithCLI(flags)
			if err != nil {
				t.Fatalf("LoadWithCLI: %v", err)
			}
			if cfg.Server.Port != tt.wantPort {
				t.Errorf("port = %q, want %q", cfg.Server.Port, tt.wantPort)
			}
			if cfg.Logging.Level != tt.wantLevel {
				t.Errorf("level = %q, want %q", cfg.Logging.Level, tt.wantLevel)
			}
		})
	}
}

func TestLoadFrom_EnvInvalidValuesIgnored(t *testing.T) {
	t.Setenv("AGILEPULSE_PG_MAX_CONNS", "notanumber")
	t.Setenv("AGILEPULSE_BREAKER_TIMEOUT", "invalid-duration")
	t.Setenv("AGILEPULSE_RATE_RPS", "abc")

	cfg, err := LoadFrom(writeYAML(t, ""))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Postgres.MaxConns != 15 {
		t.Errorf("max_conns = %d, want default 15", cfg.Postgres.MaxConns)
	}
	if cfg.Breaker.Timeout.String() != "30s" {
		t.Errorf("breaker timeout = %v, want default 30s", cfg.Breaker.Timeout)
	}
	if cfg.Rate.RequestsPerSecond != 10 {
		t.Errorf("rps = %v, want default 10", cfg.Rate.RequestsPerSecond)
	}
}

func TestLoadFrom_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"malformed yaml", "{{{invalid yaml"},
		{"empty port", "server:\n  port: \"\"\n"},
		{"zero warm concurrency", "refresh:\n  warm_concurrency: 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadFrom(writeYAML(t, tt.yaml)); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestLoadFrom_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFrom("/nonexistent/path/to/config.yaml")
	if err != nil {
		t.Fatalf("missing YAML should not error, got %v", err)
	}
	if cfg.Server.Port != "8080" || cfg.Logging.Level != "info" {
		t.Errorf("expected defaults, got port %q level %q", cfg.Server.Port, cfg.Logging.Level)
	}
}

func TestLoadFrom_ReportSections(t *testing.T) {
	cfg, err := LoadFrom(writeYAML(t, `
server:
  request_timeout: 12s
cache:
  aggregate_ttl: 2m
reports:
  sprint_policies:
    current-sprint-progress: reject
refresh:
  schedule: ""
mcp:
  enabled: true
`))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Server.RequestTimeout.String() != "12s" {
		t.Errorf("request_timeout = %v, want 12s", cfg.Server.RequestTimeout)
	}
	if cfg.Cache.AggregateTTL.String() != "2m0s" {
		t.Errorf("aggregate_ttl = %v, want 2m", cfg.Cache.AggregateTTL)
	}
	if cfg.Reports.SprintPolicies["current-sprint-progress"] != "reject" {
		t.Errorf("policies = %v", cfg.Reports.SprintPolicies)
	}
	if cfg.Refresh.Schedule != "" {
		t.Errorf("empty schedule should disable refresh, got %q", cfg.Refresh.Schedule)
	}
	if !cfg.MCP.Enabled || cfg.MCP.Name != "agilepulse" {
		t.Errorf("mcp = %+v", cfg.MCP)
	}
	if cfg.Cache.RealtimeTTL.String() != "1m0s" {
		t.Errorf("realtime_ttl default = %v, want 1m", cfg.Cache.RealtimeTTL)
	}
}

func TestHolderReload(t *testing.T) {
	path := writeYAML(t, "logging:\n  level: info\nrate:\n  burst: 50\n")
	flags := CLIFlags{ConfigPath: &path, Port: strPtr("6060")}
	cfg, _, err := LoadWithCLI(flags)
	if err != nil {
		t.Fatal(err)
	}
	holder := NewHolder(cfg, path, flags)

	if err := os.WriteFile(path, []byte("server:\n  port: \"9090\"\nlogging:\n  level: debug\nrate:\n  burst: 200\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := holder.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	got := holder.Get()
	if got.Logging.Level != "debug" || got.Rate.Burst != 200 {
		t.Errorf("reload did not pick up yaml: level %q burst %d", got.Logging.Level, got.Rate.Burst)
	}
	if got.Server.Port != "6060" {
		t.Errorf("cli port must survive reload, got %q", got.Server.Port)
	}
}

func TestHolderReloadFailureKeepsPrevious(t *testing.T) {
	path := writeYAML(t, "server:\n  port: \"9090\"\n")
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	holder := NewHolder(cfg, path, CLIFlags{})

	if err := os.WriteFile(path, []byte("server:\n  port: \"\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := holder.Reload(); err == nil {
		t.Fatal("expected reload to fail for invalid config")
	}
	if got := holder.Get().Server.Port; got != "9090" {
		t.Errorf("previous config should be kept, got port %q", got)
	}
}

func TestHolderReloadSeesEnv(t *testing.T) {
	path := writeYAML(t, "logging:\n  level: info\n")
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	holder := NewHolder(cfg, path, CLIFlags{})

	t.Setenv("AGILEPULSE_LOG_LEVEL", "error")
	if err := holder.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if got := holder.Get().Logging.Level; got != "error" {
		t.Errorf("env should apply on reload, got %q", got)
	}
}
