package middleware_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kcvinod/triage/pkg/middleware"
)

func ok(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestApplyOrder(t *testing.T) {
	var order []string
	mw := middleware.New()

	for _, name := range []string{"first", "second"} {
		mw.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		})
	}

	handler := mw.Apply(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if diff := cmp.Diff([]string{"first", "second", "handler"}, order); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	handler := middleware.RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = middleware.RequestIDFrom(r.Context())
	}))

	t.Run("generated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		if seen == "" {
			t.Fatal("request id should be generated")
		}
		if got := rec.Header().Get(middleware.HeaderRequestID); got != seen {
			t.Errorf("response header = %q, want %q", got, seen)
		}
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(middleware.HeaderRequestID, "abc-123")
		handler.ServeHTTP(httptest.NewRecorder(), req)

		if seen != "abc-123" {
			t.Errorf("request id = %q, want abc-123", seen)
		}
	})
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	handler := middleware.RequestID()(middleware.Logger(logger)(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		},
	)))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/triage", nil))

	out := buf.String()
	for _, want := range []string{"level=ERROR", "method=POST", "uri=/api/triage", "status=502", "request_id="} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q: %s", want, out)
		}
	}
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		cfg        middleware.CORSConfig
		method     string
		origin     string
		wantOrigin string
		wantStatus int
	}{
		{
			name:       "disabled",
			cfg:        middleware.CORSConfig{Origins: []string{"http://example.com"}},
			method:     http.MethodGet,
			origin:     "http://example.com",
			wantStatus: http.StatusOK,
		},
		{
			name:       "allowed origin",
			cfg:        middleware.CORSConfig{Enabled: true, Origins: []string{"http://example.com"}},
			method:     http.MethodGet,
			origin:     "http://example.com",
			wantOrigin: "http://example.com",
			wantStatus: http.StatusOK,
		},
		{
			name:       "disallowed origin",
			cfg:        middleware.CORSConfig{Enabled: true, Origins: []string{"http://allowed.com"}},
			method:     http.MethodGet,
			origin:     "http://denied.com",
			wantStatus: http.StatusOK,
		},
		{
			name:       "wildcard",
			cfg:        middleware.CORSConfig{Enabled: true, Origins: []string{"*"}},
			method:     http.MethodGet,
			origin:     "http://any.com",
			wantOrigin: "http://any.com",
			wantStatus: http.StatusOK,
		},
		{
			name:       "preflight",
			cfg:        middleware.CORSConfig{Enabled: true, Origins: []string{"http://example.com"}},
			method:     http.MethodOptions,
			origin:     "http://example.com",
			wantOrigin: "http://example.com",
			wantStatus: http.StatusNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			if err := cfg.Finalize(nil); err != nil {
				t.Fatalf("Finalize: %v", err)
			}

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, "/", nil)
			req.Header.Set("Origin", tt.origin)
			middleware.CORS(&cfg)(http.HandlerFunc(ok)).ServeHTTP(rec, req)

			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("allow-origin = %q, want %q", got, tt.wantOrigin)
			}
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantOrigin != "" && rec.Header().Get("Access-Control-Max-Age") != "3600" {
				t.Errorf("max-age = %q, want default 3600", rec.Header().Get("Access-Control-Max-Age"))
			}
		})
	}
}

func TestCORSConfig(t *testing.T) {
	t.Run("env lists", func(t *testing.T) {
		t.Setenv("TEST_CORS_ORIGINS", " http://a.com, ,http://b.com ")
		t.Setenv("TEST_CORS_ENABLED", "true")

		var cfg middleware.CORSConfig
		err := cfg.Finalize(&middleware.CORSEnv{Origins: "TEST_CORS_ORIGINS", Enabled: "TEST_CORS_ENABLED"})
		if err != nil {
			t.Fatalf("Finalize: %v", err)
		}
		if diff := cmp.Diff([]string{"http://a.com", "http://b.com"}, cfg.Origins); diff != "" {
			t.Errorf("origins mismatch (-want +got):\n%s", diff)
		}
		if !cfg.Enabled {
			t.Error("Enabled should be true")
		}
	})

	t.Run("credentials with wildcard", func(t *testing.T) {
		cfg := middleware.CORSConfig{Origins: []string{"*"}, AllowCredentials: true}
		if err := cfg.Finalize(nil); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("merge keeps enabled", func(t *testing.T) {
		cfg := middleware.CORSConfig{Enabled: true, MaxAge: 60}
		cfg.Merge(&middleware.CORSConfig{Origins: []string{"http://x.com"}})

		if !cfg.Enabled || cfg.MaxAge != 60 {
			t.Errorf("merged = %+v", cfg)
		}
		if len(cfg.Origins) != 1 {
			t.Errorf("origins = %v", cfg.Origins)
		}
	})
}
