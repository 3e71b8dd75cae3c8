// Package escalations implements the escalation store. It persists the
// escalation records produced by triage runs so a human can pick them up,
// and exposes them for listing, lookup, and resolution.
package escalations

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kcvinod/triage/internal/workflow"
)

// Escalation is a stored escalation record. It mirrors the escalations
// table with the record payload flattened.
type Escalation struct {
	ID            uuid.UUID  `json:"id"`
	RunID         uuid.UUID  `json:"run_id"`
	Action        string     `json:"action"`
	Reason        string     `json:"reason"`
	TicketSummary string     `json:"ticket_summary"`
	Assignee      string     `json:"assignee"`
	Subject       string     `json:"subject"`
	Sender        string     `json:"sender"`
	Degraded      bool       `json:"degraded"`
	CreatedAt     time.Time  `json:"created_at"`
	ResolvedBy    *string    `json:"resolved_by"`
	ResolvedAt    *time.Time `json:"resolved_at"`
}

// RecordCommand carries an escalation produced by a triage run.
type RecordCommand struct {
	RunID    uuid.UUID
	Record   workflow.EscalationRecord
	Subject  string
	Sender   string
	Degraded bool
}

// NewRecordCommand builds a RecordCommand from a completed run. It reports
// false when the run did not escalate.
func NewRecordCommand(result *workflow.Result) (RecordCommand, bool) {
	s := result.State
	if s.Escalation == nil {
		return RecordCommand{}, false
	}

	cmd := RecordCommand{
		RunID:    result.RunID,
		Record:   *s.Escalation,
		Degraded: s.Degraded,
	}
	if s.Document != nil {
		cmd.Subject = s.Document.Subject
		cmd.Sender = s.Document.Sender
	}
	return cmd, true
}

func (c RecordCommand) validate() error {
	if c.RunID == uuid.Nil {
		return fmt.Errorf("%w: run id required", ErrInvalidRecord)
	}
	switch c.Record.Action {
	case workflow.ActionEscalate, workflow.ActionAssignEngineer:
	default:
		return fmt.Errorf("%w: unknown action %q", ErrInvalidRecord, c.Record.Action)
	}
	if strings.TrimSpace(c.Record.Payload.Assignee) == "" {
		return fmt.Errorf("%w: assignee required", ErrInvalidRecord)
	}
	return nil
}

// ResolveCommand marks an escalation as handled.
// ResolvedBy identifies the human who handled it.
type ResolveCommand struct {
	ResolvedBy string `json:"resolved_by"`
}
