package workflow

import "github.com/kcvinod/triage/pkg/graph"

// Branch labels produced by Route.
const (
	RouteEscalate graph.Label = "escalate_issue"
	RouteDraft    graph.Label = "draft_response"
)

// RouteLabels lists every label Route can produce.
var RouteLabels = []graph.Label{RouteEscalate, RouteDraft}

// Route selects the branch for a classification: high urgency escalates,
// then high complexity escalates, otherwise a reply is drafted.
func Route(c Classification) graph.Label {
	switch {
	case c.Urgency == LevelHigh:
		return RouteEscalate
	case c.Complexity == LevelHigh:
		return RouteEscalate
	default:
		return RouteDraft
	}
}

func routeState(s *State) graph.Label {
	if s == nil || s.Classification == nil {
		return ""
	}
	return Route(*s.Classification)
}
