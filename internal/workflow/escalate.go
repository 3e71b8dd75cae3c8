package workflow

import (
	"context"
	"fmt"

	"github.com/kcvinod/triage/internal/email"
	"github.com/kcvinod/triage/pkg/graph"
)

// Escalate builds the escalation record for a classified email. The
// complexity check runs after the urgency check and replaces its record, so
// an email that is both urgent and complex is assigned to engineering.
func Escalate(doc email.Document, c Classification) (*EscalationRecord, error) {
	var rec *EscalationRecord

	if c.Urgency == LevelHigh {
		rec = &EscalationRecord{
			Action: ActionEscalate,
			Reason: "high urgency",
			Payload: EscalationPayload{
				TicketSummary: doc.Body,
				Assignee:      AssigneeOnCall,
			},
		}
	}

	if c.Complexity == LevelHigh {
		rec = &EscalationRecord{
			Action: ActionAssignEngineer,
			Reason: "high complexity",
			Payload: EscalationPayload{
				TicketSummary: doc.Body,
				Assignee:      AssigneeEngineering,
			},
		}
	}

	if rec == nil {
		return nil, fmt.Errorf("%w: urgency %s, complexity %s", ErrNoEscalationCause, c.Urgency, c.Complexity)
	}

	return rec, nil
}

// EscalateNode returns a node that records the escalation artifact.
func EscalateNode(rt *Runtime) graph.Node[*State] {
	return graph.NodeFunc[*State](func(ctx context.Context, s *State) (*State, error) {
		if s.Document == nil {
			return s, fmt.Errorf("escalate: %w: document", ErrMissingState)
		}
		if s.Classification == nil {
			return s, fmt.Errorf("escalate: %w: classification", ErrMissingState)
		}

		rec, err := Escalate(*s.Document, *s.Classification)
		if err != nil {
			return s, fmt.Errorf("escalate: %w", err)
		}
		s.Escalation = rec

		rt.Logger.InfoContext(
			ctx, "escalate node complete",
			"action", rec.Action,
			"assignee", rec.Payload.Assignee,
		)

		return s, nil
	})
}
