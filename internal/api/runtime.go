package api

import (
	"github.com/kcvinod/triage/internal/config"
	"github.com/kcvinod/triage/internal/infrastructure"
	"github.com/kcvinod/triage/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination  pagination.Config
	Workflow    config.WorkflowConfig
	MaxBodySize int64
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	scoped := *infra
	scoped.Logger = infra.Logger.With("module", "api")

	return &Runtime{
		Infrastructure: &scoped,
		Pagination:     cfg.API.Pagination,
		Workflow:       cfg.Workflow,
		MaxBodySize:    cfg.API.MaxBodySizeBytes(),
	}
}
