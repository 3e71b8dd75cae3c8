package main

import (
	"fmt"
	"time"

	"github.com/kcvinod/triage/internal/config"
	"github.com/kcvinod/triage/internal/inbox"
	"github.com/kcvinod/triage/internal/infrastructure"
)

// Server wires the infrastructure, HTTP modules, and optional inbox watcher.
type Server struct {
	infra   *infrastructure.Infrastructure
	modules *Modules
	http    *httpServer
	inbox   *inbox.Watcher
}

// NewServer initializes every subsystem without starting any of them.
func NewServer(cfg *config.Config) (*Server, error) {
	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, err
	}

	modules, err := NewModules(infra, cfg)
	if err != nil {
		return nil, err
	}

	router := buildRouter(infra, cfg.Version)
	if err := modules.Mount(router); err != nil {
		return nil, fmt.Errorf("mount modules: %w", err)
	}

	s := &Server{
		infra:   infra,
		modules: modules,
		http:    newHTTPServer(&cfg.Server, router, infra.Logger),
	}

	if cfg.Inbox.Enabled() {
		w, err := inbox.New(&cfg.Inbox, modules.Domain.Triage, infra.Logger)
		if err != nil {
			return nil, fmt.Errorf("inbox init failed: %w", err)
		}
		s.inbox = w
	}

	infra.Logger.Info(
		"server initialized",
		"addr", cfg.Server.Addr(),
		"version", cfg.Version,
		"env", cfg.Env(),
		"inbox", cfg.Inbox.Enabled(),
		"kafka", cfg.Kafka.Enabled(),
	)

	return s, nil
}

// Start launches every subsystem and returns once they are registered.
// Readiness is reported by /readyz once startup hooks complete.
func (s *Server) Start() error {
	s.infra.Logger.Info("starting service")

	if err := s.infra.Start(); err != nil {
		return err
	}

	if err := s.http.Start(s.infra.Lifecycle); err != nil {
		return fmt.Errorf("http start failed: %w", err)
	}

	if s.inbox != nil {
		if err := s.inbox.Start(s.infra.Lifecycle); err != nil {
			return fmt.Errorf("inbox start failed: %w", err)
		}
	}

	go func() {
		s.infra.Lifecycle.WaitForStartup()
		s.infra.Logger.Info("all subsystems ready")
	}()

	return nil
}

// Shutdown stops every subsystem, waiting at most timeout.
func (s *Server) Shutdown(timeout time.Duration) error {
	s.infra.Logger.Info("initiating shutdown")
	return s.infra.Lifecycle.Shutdown(timeout)
}
