package workflow

import (
	"log/slog"

	"github.com/kcvinod/triage/internal/kb"
	"github.com/kcvinod/triage/internal/oracle"
)

// Runtime bundles the dependencies that workflow nodes require.
// It is constructed by higher-level composition code from Infrastructure.
type Runtime struct {
	Oracle   oracle.Oracle
	KB       kb.Searcher
	Classify oracle.Policy
	Draft    oracle.Policy
	Logger   *slog.Logger
}

func (rt *Runtime) searcher() kb.Searcher {
	if rt.KB == nil {
		return kb.Empty{}
	}
	return rt.KB
}
