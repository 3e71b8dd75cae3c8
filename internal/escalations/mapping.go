package escalations

import (
	"net/url"
	"strconv"

	"github.com/kcvinod/triage/pkg/pagination"
	"github.com/kcvinod/triage/pkg/query"
	"github.com/kcvinod/triage/pkg/repository"
)

const columns = `id, run_id, action, reason, ticket_summary, assignee,
		subject, sender, degraded, created_at, resolved_by, resolved_at`

var projection = query.
	NewProjectionMap("public", "escalations", "e").
	Project("id", "ID").
	Project("run_id", "RunID").
	Project("action", "Action").
	Project("reason", "Reason").
	Project("ticket_summary", "TicketSummary").
	Project("assignee", "Assignee").
	Project("subject", "Subject").
	Project("sender", "Sender").
	Project("degraded", "Degraded").
	Project("created_at", "CreatedAt").
	Project("resolved_by", "ResolvedBy").
	Project("resolved_at", "ResolvedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// searchFields are matched by the page search term.
var searchFields = []string{"TicketSummary", "Subject", "Sender"}

// ListQuery builds the list query for page and filters: the search term
// matches ticket summary, subject, and sender.
func ListQuery(page pagination.PageRequest, filters Filters) *query.Builder {
	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, searchFields...)

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}
	return qb
}

// Filters contains optional filtering criteria for escalation queries.
// Nil fields are ignored.
type Filters struct {
	Action   *string `json:"action,omitempty"`
	Assignee *string `json:"assignee,omitempty"`
	Degraded *bool   `json:"degraded,omitempty"`
	// Open selects unresolved (true) or resolved (false) escalations.
	Open *bool `json:"open,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Action", f.Action).
		WhereEquals("Assignee", f.Assignee).
		WhereEquals("Degraded", f.Degraded).
		WhereNull("ResolvedAt", f.Open)
}

// FiltersFromQuery extracts filter values from URL query parameters.
// Unparseable booleans are ignored.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if a := values.Get("action"); a != "" {
		f.Action = &a
	}
	if a := values.Get("assignee"); a != "" {
		f.Assignee = &a
	}
	if d, err := strconv.ParseBool(values.Get("degraded")); err == nil {
		f.Degraded = &d
	}
	if o, err := strconv.ParseBool(values.Get("open")); err == nil {
		f.Open = &o
	}

	return f
}

func scanEscalation(s repository.Scanner) (Escalation, error) {
	var e Escalation
	err := s.Scan(
		&e.ID,
		&e.RunID,
		&e.Action,
		&e.Reason,
		&e.TicketSummary,
		&e.Assignee,
		&e.Subject,
		&e.Sender,
		&e.Degraded,
		&e.CreatedAt,
		&e.ResolvedBy,
		&e.ResolvedAt,
	)
	return e, err
}
