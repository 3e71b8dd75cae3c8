// Package workflow implements the support email triage workflow. It provides
// the typed run state, the classification and routing rules, and the
// five-node graph (parse → classify → escalate | search → draft) built on
// pkg/graph.
package workflow

import "errors"

// Sentinel errors for workflow operations.
var (
	ErrMissingState      = errors.New("missing prerequisite state")
	ErrNoEscalationCause = errors.New("no escalation cause")
)
