package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kcvinod/triage/internal/config"
	"github.com/kcvinod/triage/internal/infrastructure"
)

func loadConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Chdir(t.TempDir())

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return cfg
}

func TestProbes(t *testing.T) {
	cfg := loadConfig(t)

	infra, err := infrastructure.NewStandalone(cfg)
	if err != nil {
		t.Fatalf("NewStandalone: %v", err)
	}
	router := buildRouter(infra, "v1.2.3")

	get := func(path string) (int, map[string]any) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

		var body map[string]any
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
		return rec.Code, body
	}

	status, body := get("/healthz")
	if status != http.StatusOK || body["version"] != "v1.2.3" {
		t.Errorf("healthz = %d %v", status, body)
	}

	status, body = get("/readyz")
	if status != http.StatusServiceUnavailable {
		t.Errorf("readyz before startup = %d, want 503", status)
	}
	if pending, _ := body["pending"].([]any); len(pending) == 0 {
		t.Errorf("readyz should list pending checks: %v", body)
	}

	if err := infra.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	infra.Lifecycle.WaitForStartup()
	t.Cleanup(func() { infra.Lifecycle.Shutdown(time.Second) })

	status, _ = get("/readyz")
	if status != http.StatusOK {
		t.Errorf("readyz after startup = %d, want 200", status)
	}
}

func TestNewServerMountsAPI(t *testing.T) {
	cfg := loadConfig(t)

	srv, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(func() { srv.infra.Database.Connection().Close() })

	if srv.modules.API.Prefix() != cfg.API.BasePath {
		t.Errorf("API prefix = %q, want %q", srv.modules.API.Prefix(), cfg.API.BasePath)
	}
	if srv.inbox != nil {
		t.Error("inbox watcher should be disabled without a directory")
	}
}
