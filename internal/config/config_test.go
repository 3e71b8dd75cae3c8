package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/kcvinod/triage/internal/config"
	"github.com/kcvinod/triage/internal/oracle"
)

const baseConfig = `
log_level = "debug"
shutdown_timeout = "20s"

[server]
port = 8081

[database]
host = "localhost"
name = "triage"
user = "triage"

[api]
base_path = "/api"
max_body_size = "512KB"

[api.pagination]
default_page_size = 10
max_page_size = 40

[agent]
name = "triage-agent"
provider = "ollama"
base_url = "http://localhost:11434"
model = "llama3.1:8b"

[workflow]
classify_timeout = "15s"
oracle_retries = 2
max_concurrency = 8

[kb]
source = "none"

[kafka]
brokers = ["localhost:9092"]
escalations_topic = "esc"
replies_topic = "rep"

[inbox]
dir = "inbox"
processed_dir = "processed"
`

const overlayConfig = `
[server]
port = 9090

[database]
host = "prodhost"

[kafka]
replies_topic = "rep-prod"
`

func writeConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"log_level", cfg.LogLevel, "info"},
		{"shutdown_timeout", cfg.ShutdownTimeoutDuration(), 30 * time.Second},
		{"server.addr", cfg.Server.Addr(), "0.0.0.0:8080"},
		{"database.name", cfg.Database.Name, "triage"},
		{"api.base_path", cfg.API.BasePath, "/api"},
		{"api.max_body_size", cfg.API.MaxBodySizeBytes(), int64(1024 * 1024)},
		{"api.pagination.default", cfg.API.Pagination.DefaultPageSize, 25},
		{"workflow.max_concurrency", cfg.Workflow.MaxConcurrency, 4},
		{"workflow.max_batch_size", cfg.Workflow.MaxBatchSize, 50},
		{"kb.source", cfg.KB.Source, config.KBSourceStatic},
		{"kb.limit", cfg.KB.Limit, 5},
		{"kafka.enabled", cfg.Kafka.Enabled(), false},
		{"inbox.enabled", cfg.Inbox.Enabled(), false},
		{"env", cfg.Env(), "local"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}

	if cfg.Agent.Name == "" || cfg.Agent.Provider == "" || cfg.Agent.Model == "" {
		t.Errorf("agent defaults not applied: %+v", cfg.Agent)
	}
}

func TestLoadBaseAndOverlay(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig)
	writeConfig(t, dir, "config.prod.toml", overlayConfig)
	t.Chdir(dir)
	t.Setenv(config.EnvTriageEnv, "prod")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("overlay port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Database.Host != "prodhost" || cfg.Database.Name != "triage" {
		t.Errorf("database = %s/%s", cfg.Database.Host, cfg.Database.Name)
	}
	if cfg.Level() != slog.LevelDebug {
		t.Errorf("level = %v, want debug", cfg.Level())
	}
	if cfg.API.MaxBodySizeBytes() != 512*1024 {
		t.Errorf("max body = %d", cfg.API.MaxBodySizeBytes())
	}
	if cfg.API.Pagination.MaxPageSize != 40 {
		t.Errorf("max page size = %d", cfg.API.Pagination.MaxPageSize)
	}
	if cfg.KB.Source != config.KBSourceNone {
		t.Errorf("kb source = %s", cfg.KB.Source)
	}
	if !cfg.Kafka.Enabled() || cfg.Kafka.EscalationsTopic != "esc" || cfg.Kafka.RepliesTopic != "rep-prod" {
		t.Errorf("kafka = %+v", cfg.Kafka)
	}
	if cfg.Inbox.Dir != "inbox" || cfg.Inbox.Extension != ".eml" {
		t.Errorf("inbox = %+v", cfg.Inbox)
	}

	agent := cfg.Agent.Agent()
	if agent.Name != "triage-agent" || agent.Provider.Name != "ollama" || agent.Model.Name != "llama3.1:8b" {
		t.Errorf("agent = %+v", agent)
	}
	if agent.Provider.BaseURL != "http://localhost:11434" {
		t.Errorf("base url = %s", agent.Provider.BaseURL)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TRIAGE_SERVER_PORT", "7070")
	t.Setenv("TRIAGE_DB_DSN", "postgres://u:p@db/triage")
	t.Setenv("TRIAGE_API_MAX_BODY_SIZE", "2MB")
	t.Setenv(config.EnvAgentModel, "gpt-4o")
	t.Setenv(config.EnvAgentToken, "secret")
	t.Setenv(config.EnvWorkflowOracleRetries, "3")
	t.Setenv("TRIAGE_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("TRIAGE_INBOX_DIR", "/var/triage/inbox")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Database.Dsn() != "postgres://u:p@db/triage" {
		t.Errorf("dsn = %s", cfg.Database.Dsn())
	}
	if cfg.API.MaxBodySizeBytes() != 2*1024*1024 {
		t.Errorf("max body = %d", cfg.API.MaxBodySizeBytes())
	}
	if cfg.Agent.Model != "gpt-4o" || cfg.Agent.Options["token"] != "secret" {
		t.Errorf("agent = %+v", cfg.Agent)
	}
	if cfg.Workflow.OracleRetries != 3 {
		t.Errorf("retries = %d", cfg.Workflow.OracleRetries)
	}
	if diff := cmp.Diff([]string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers); diff != "" {
		t.Errorf("brokers mismatch (-want +got):\n%s", diff)
	}
	if !cfg.Inbox.Enabled() {
		t.Error("inbox should be enabled")
	}
}

func TestLoadExplicitConfigPath(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "custom.toml", "[server]\nport = 6060\n")
	t.Chdir(t.TempDir())

	t.Run("found", func(t *testing.T) {
		t.Setenv(config.EnvTriageConfig, filepath.Join(dir, "custom.toml"))
		cfg, err := config.Load()
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.Server.Port != 6060 {
			t.Errorf("port = %d, want 6060", cfg.Server.Port)
		}
	})

	t.Run("missing", func(t *testing.T) {
		t.Setenv(config.EnvTriageConfig, filepath.Join(dir, "nope.toml"))
		if _, err := config.Load(); err == nil {
			t.Error("expected error for missing explicit config")
		}
	})
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		wantErr string
	}{
		{"invalid port", "[server]\nport = 99999\n", "invalid port"},
		{"invalid idle timeout", "[server]\nidle_timeout = \"bad\"\n", "invalid idle_timeout"},
		{"invalid log level", "log_level = \"loud\"\n", "invalid log_level"},
		{"invalid base path", "[api]\nbase_path = \"api\"\n", "base_path"},
		{"invalid body size", "[api]\nmax_body_size = \"lots\"\n", "max_body_size"},
		{"invalid kb source", "[kb]\nsource = \"redis\"\n", "unknown source"},
		{"negative retries", "[workflow]\noracle_retries = -1\n", "oracle_retries"},
		{"same topics", "[kafka]\nescalations_topic = \"t\"\nreplies_topic = \"t\"\n", "must differ"},
		{"malformed toml", "[server\n", "parse config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, "config.toml", tt.config)
			t.Chdir(dir)

			_, err := config.Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestWorkflowPolicies(t *testing.T) {
	cfg := config.WorkflowConfig{
		ClassifyTimeout: "10s",
		DraftTimeout:    "40s",
		OracleRetries:   2,
		RetryBackoff:    "250ms",
	}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	want := oracle.Policy{Timeout: 10 * time.Second, Retries: 2, Backoff: 250 * time.Millisecond}
	if diff := cmp.Diff(want, cfg.ClassifyPolicy()); diff != "" {
		t.Errorf("classify policy mismatch (-want +got):\n%s", diff)
	}
	if got := cfg.DraftPolicy().Timeout; got != 40*time.Second {
		t.Errorf("draft timeout = %v, want 40s", got)
	}
}

func TestAgentMergeOptions(t *testing.T) {
	base := config.AgentConfig{Name: "a", Options: map[string]any{"token": "t1", "deployment": "d"}}
	base.Merge(&config.AgentConfig{Model: "m", Options: map[string]any{"token": "t2"}})

	want := config.AgentConfig{
		Name:    "a",
		Model:   "m",
		Options: map[string]any{"token": "t2", "deployment": "d"},
	}
	if diff := cmp.Diff(want, base); diff != "" {
		t.Errorf("merge mismatch (-want +got):\n%s", diff)
	}
}
