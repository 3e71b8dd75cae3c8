package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kcvinod/triage/pkg/graph"
)

// GraphName identifies the triage graph in errors and events.
const GraphName = "support-triage"

// Node names registered on the triage graph.
const (
	NodeParse    = "parse_email"
	NodeClassify = "classify_email"
	NodeSearch   = "search_kb"
	NodeDraft    = "draft_response"
	NodeEscalate = "escalate_issue"
)

type runIDKey struct{}

// Workflow is a compiled triage graph bound to its runtime. It is safe for
// concurrent use; each Execute call owns its own State.
type Workflow struct {
	runnable *graph.Runnable[*State]
	logger   *slog.Logger
}

// New compiles the triage graph for rt.
func New(rt *Runtime) (*Workflow, error) {
	if rt.Oracle == nil {
		return nil, fmt.Errorf("%w: runtime has no oracle", graph.ErrConfiguration)
	}

	r := *rt
	if r.Logger == nil {
		r.Logger = slog.New(slog.DiscardHandler)
	}

	g, err := buildGraph(&r)
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}

	runnable, err := g.Compile()
	if err != nil {
		return nil, fmt.Errorf("compile graph: %w", err)
	}

	return &Workflow{
		runnable: runnable,
		logger:   r.Logger,
	}, nil
}

// Execute runs one triage over raw and returns the final state. A cancelled
// or failed run returns no result.
func (w *Workflow) Execute(ctx context.Context, raw string) (*Result, error) {
	runID := uuid.New()
	ctx = context.WithValue(ctx, runIDKey{}, runID)

	final, err := w.runnable.Run(ctx, &State{Raw: raw})
	if err != nil {
		return nil, fmt.Errorf("execute graph: %w", err)
	}

	w.logger.InfoContext(
		ctx, "triage run complete",
		"run_id", runID,
		"route", final.Route,
		"escalated", final.Escalation != nil,
		"degraded", final.Degraded,
		"draft_failed", final.DraftFailed,
	)

	return &Result{
		RunID:       runID,
		State:       *final,
		CompletedAt: time.Now(),
	}, nil
}

// Execute compiles the triage graph for rt and runs it once over raw.
func Execute(ctx context.Context, rt *Runtime, raw string) (*Result, error) {
	w, err := New(rt)
	if err != nil {
		return nil, err
	}
	return w.Execute(ctx, raw)
}

// buildGraph wires the triage graph:
// parse → classify → (escalate | search → draft).
func buildGraph(rt *Runtime) (*graph.Graph[*State], error) {
	g := graph.New[*State](GraphName)

	nodes := []struct {
		name string
		node graph.Node[*State]
	}{
		{NodeParse, ParseNode(rt)},
		{NodeClassify, ClassifyNode(rt)},
		{NodeSearch, SearchNode(rt)},
		{NodeDraft, DraftNode(rt)},
		{NodeEscalate, EscalateNode(rt)},
	}
	for _, n := range nodes {
		if err := g.AddNode(n.name, n.node); err != nil {
			return nil, err
		}
	}

	edges := [][2]string{
		{graph.Start, NodeParse},
		{NodeParse, NodeClassify},
		{NodeSearch, NodeDraft},
		{NodeDraft, graph.End},
		{NodeEscalate, graph.End},
	}
	for _, e := range edges {
		if err := g.AddEdge(e[0], e[1]); err != nil {
			return nil, err
		}
	}

	// classify → escalate (urgent or complex) | search (otherwise)
	err := g.AddConditionalEdge(NodeClassify, routeState, RouteLabels, map[graph.Label]string{
		RouteEscalate: NodeEscalate,
		RouteDraft:    NodeSearch,
	})
	if err != nil {
		return nil, err
	}

	g.Observe(observer(rt.Logger))

	return g, nil
}

func observer(logger *slog.Logger) graph.Observer[*State] {
	return func(ctx context.Context, e graph.Event[*State]) {
		attrs := []any{
			"graph", e.Graph,
			"node", e.Node,
			"step", e.Step,
			"elapsed", e.Elapsed,
			"next", e.Next,
		}
		if id, ok := ctx.Value(runIDKey{}).(uuid.UUID); ok {
			attrs = append(attrs, "run_id", id)
		}
		if e.Label != "" {
			attrs = append(attrs, "label", e.Label)
		}

		if e.Err != nil {
			logger.ErrorContext(ctx, "node failed", append(attrs, "error", e.Err)...)
			return
		}
		logger.DebugContext(ctx, "node complete", attrs...)
	}
}
