package api

import (
	"fmt"

	"github.com/kcvinod/triage/internal/escalations"
	"github.com/kcvinod/triage/internal/kb"
	"github.com/kcvinod/triage/internal/triage"
	"github.com/kcvinod/triage/internal/workflow"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Escalations escalations.System
	Knowledge   *kb.Handler
	Triage      triage.System
}

// NewDomain creates all domain systems from the API runtime. The triage
// system records escalations in the escalation store and publishes run
// artifacts through the runtime's publisher.
func NewDomain(runtime *Runtime) (*Domain, error) {
	wf, err := workflow.New(&workflow.Runtime{
		Oracle:   runtime.Oracle,
		KB:       runtime.Knowledge,
		Classify: runtime.Workflow.ClassifyPolicy(),
		Draft:    runtime.Workflow.DraftPolicy(),
		Logger:   runtime.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build workflow: %w", err)
	}

	escalationsSystem := escalations.New(
		runtime.Database.Connection(),
		runtime.Logger,
		runtime.Pagination,
	)

	triageSystem := triage.New(
		wf,
		escalationsSystem,
		runtime.Publisher,
		triage.Config{
			MaxConcurrency: runtime.Workflow.MaxConcurrency,
			MaxBatchSize:   runtime.Workflow.MaxBatchSize,
			MaxBodySize:    runtime.MaxBodySize,
		},
		runtime.Logger,
	)

	return &Domain{
		Escalations: escalationsSystem,
		Knowledge:   kb.NewHandler(runtime.Knowledge, runtime.Logger),
		Triage:      triageSystem,
	}, nil
}
