// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"net/http"

	"github.com/kcvinod/triage/internal/config"
	"github.com/kcvinod/triage/internal/infrastructure"
	"github.com/kcvinod/triage/pkg/middleware"
	"github.com/kcvinod/triage/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
// The returned Domain is shared with non-HTTP entry points such as the
// inbox watcher.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, *Domain, error) {
	runtime := NewRuntime(cfg, infra)

	domain, err := NewDomain(runtime)
	if err != nil {
		return nil, nil, err
	}

	mux := http.NewServeMux()
	registerRoutes(mux, domain, runtime.Logger)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.RequestID())
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))

	return m, domain, nil
}
