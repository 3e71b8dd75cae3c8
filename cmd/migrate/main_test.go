package main

import (
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4"
)

func TestMigrationsPaired(t *testing.T) {
	entries, err := fs.ReadDir(migrations, "migrations")
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Errorf("unexpected file %s", name)
		}
	}

	if len(ups) == 0 {
		t.Fatal("no migrations embedded")
	}
	for v := range ups {
		if !downs[v] {
			t.Errorf("migration %s has no down script", v)
		}
	}
	for v := range downs {
		if !ups[v] {
			t.Errorf("migration %s has no up script", v)
		}
	}
}

func TestEscalationsSchema(t *testing.T) {
	b, err := fs.ReadFile(migrations, "migrations/000001_escalations.up.sql")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	sql := string(b)

	for _, col := range []string{
		"run_id", "action", "reason", "ticket_summary", "assignee",
		"subject", "sender", "degraded", "created_at", "resolved_by", "resolved_at",
	} {
		if !strings.Contains(sql, col) {
			t.Errorf("schema missing column %s", col)
		}
	}
	if !strings.Contains(sql, "UNIQUE (run_id)") {
		t.Error("run_id should be unique")
	}
}

func TestIgnoreNoChange(t *testing.T) {
	if err := ignoreNoChange(migrate.ErrNoChange); err != nil {
		t.Errorf("ErrNoChange should be ignored, got %v", err)
	}
	boom := errors.New("boom")
	if err := ignoreNoChange(boom); !errors.Is(err, boom) {
		t.Errorf("other errors should pass through, got %v", err)
	}
	if err := ignoreNoChange(nil); err != nil {
		t.Errorf("nil = %v", err)
	}
}
