package workflow

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kcvinod/triage/internal/email"
	"github.com/kcvinod/triage/internal/kb"
	"github.com/kcvinod/triage/pkg/formatting"
	"github.com/kcvinod/triage/pkg/graph"
)

// summaryLength is the number of body characters used for a default summary.
const summaryLength = 100

// Intent is the purpose of a support email.
type Intent string

// Intents recognized by the classifier.
const (
	IntentAccount        Intent = "account"
	IntentBilling        Intent = "billing"
	IntentBug            Intent = "bug"
	IntentFeatureRequest Intent = "feature_request"
	IntentTechnicalIssue Intent = "technical_issue"
	IntentGeneralInquiry Intent = "general_inquiry"
)

var intents = []Intent{
	IntentAccount,
	IntentBilling,
	IntentBug,
	IntentFeatureRequest,
	IntentTechnicalIssue,
	IntentGeneralInquiry,
}

// ParseIntent matches v case-insensitively against the known intents.
// Anything else yields IntentGeneralInquiry.
func ParseIntent(v any) Intent {
	s, ok := v.(string)
	if !ok {
		return IntentGeneralInquiry
	}
	s = strings.ToLower(strings.TrimSpace(s))
	for _, i := range intents {
		if string(i) == s {
			return i
		}
	}
	return IntentGeneralInquiry
}

// Level grades urgency and complexity.
type Level string

// Levels shared by urgency and complexity.
const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// ParseLevel matches v case-insensitively against the known levels.
// Anything else yields LevelLow.
func ParseLevel(v any) Level {
	s, ok := v.(string)
	if !ok {
		return LevelLow
	}
	switch Level(strings.ToLower(strings.TrimSpace(s))) {
	case LevelHigh:
		return LevelHigh
	case LevelMedium:
		return LevelMedium
	default:
		return LevelLow
	}
}

// Classification is the normalized oracle judgement for one email.
type Classification struct {
	Intent     Intent `json:"intent"`
	Urgency    Level  `json:"urgency"`
	Complexity Level  `json:"complexity"`
	Summary    string `json:"summary"`
}

// DefaultClassification is the classification used when the oracle gives
// nothing usable.
func DefaultClassification(body string) Classification {
	return Classification{
		Intent:     IntentGeneralInquiry,
		Urgency:    LevelLow,
		Complexity: LevelLow,
		Summary:    DefaultSummary(body),
	}
}

// DefaultSummary is the first 100 characters of body followed by an ellipsis.
func DefaultSummary(body string) string {
	return formatting.Truncate(body, summaryLength) + "..."
}

// ClassificationFrom normalizes an extracted oracle mapping. Absent or
// unrecognized fields take their defaults.
func ClassificationFrom(m map[string]any, body string) Classification {
	c := Classification{
		Intent:     ParseIntent(m["intent"]),
		Urgency:    ParseLevel(m["urgency"]),
		Complexity: ParseLevel(m["complexity"]),
	}

	if s, ok := m["summary"].(string); ok && strings.TrimSpace(s) != "" {
		c.Summary = strings.TrimSpace(s)
	} else {
		c.Summary = DefaultSummary(body)
	}

	return c
}

// Action is the kind of human follow-up an escalation requests.
type Action string

// Escalation actions.
const (
	ActionEscalate       Action = "escalate"
	ActionAssignEngineer Action = "assign_engineer"
)

// Assignees for escalation records.
const (
	AssigneeOnCall      = "on-call"
	AssigneeEngineering = "engineering_team"
)

// EscalationPayload carries the ticket handed to the assignee.
type EscalationPayload struct {
	TicketSummary string `json:"ticket_summary"`
	Assignee      string `json:"assignee"`
}

// EscalationRecord is the artifact produced by the escalation branch.
type EscalationRecord struct {
	Action  Action            `json:"action"`
	Reason  string            `json:"reason"`
	Payload EscalationPayload `json:"payload"`
}

// Reply is the artifact produced by the draft branch.
type Reply struct {
	Body string `json:"body"`
}

// State is threaded through the graph by a single run. Nodes populate it
// in order and never clear a field set by an earlier node.
type State struct {
	Raw            string            `json:"-"`
	Document       *email.Document   `json:"document,omitempty"`
	Classification *Classification   `json:"classification,omitempty"`
	Route          graph.Label       `json:"route,omitempty"`
	KBResults      []kb.Result       `json:"kb_results,omitempty"`
	Escalation     *EscalationRecord `json:"escalation,omitempty"`
	Reply          *Reply            `json:"reply,omitempty"`

	// Degraded marks a classification built from defaults.
	Degraded       bool   `json:"degraded"`
	DegradedReason string `json:"degraded_reason,omitempty"`
	// DraftFailed marks a draft branch whose reply could not be produced.
	DraftFailed bool `json:"draft_failed"`
}

// Result is the final output of one triage run.
type Result struct {
	RunID       uuid.UUID `json:"run_id"`
	State       State     `json:"state"`
	CompletedAt time.Time `json:"completed_at"`
}
