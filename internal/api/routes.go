package api

import (
	"log/slog"
	"net/http"

	"github.com/kcvinod/triage/pkg/routes"
)

func registerRoutes(mux *http.ServeMux, domain *Domain, logger *slog.Logger) {
	groups := []routes.Group{
		domain.Escalations.Handler().Routes(),
		domain.Knowledge.Routes(),
		domain.Triage.Handler().Routes(),
	}

	routes.Register(mux, groups...)
	logger.Debug("routes registered", "patterns", routes.Patterns(groups...))
}
