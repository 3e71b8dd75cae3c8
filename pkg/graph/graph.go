package graph

import (
	"context"
	"fmt"
	"maps"
	"slices"
)

// Sentinel node names. Start has exactly one outgoing edge to the entry node;
// End has no outgoing edges.
const (
	Start = "__start__"
	End   = "__end__"
)

// Label selects the successor of a conditional edge.
type Label string

// Node is a named unit of work. It receives the run state and returns the
// updated state. A returned error stops the run.
type Node[S any] interface {
	Execute(ctx context.Context, state S) (S, error)
}

// NodeFunc adapts a function to the Node interface.
type NodeFunc[S any] func(ctx context.Context, state S) (S, error)

// Execute calls f.
func (f NodeFunc[S]) Execute(ctx context.Context, state S) (S, error) {
	return f(ctx, state)
}

// Router inspects state after its node completes and returns the label of
// the edge to follow.
type Router[S any] func(state S) Label

type branch[S any] struct {
	route   Router[S]
	labels  []Label
	targets map[Label]string
}

// Graph is the mutable builder for a state graph. It is not safe for
// concurrent use; call Compile to obtain an immutable Runnable.
type Graph[S any] struct {
	name      string
	nodes     map[string]Node[S]
	order     []string
	edges     map[string]string
	branches  map[string]branch[S]
	observers []Observer[S]
}

// New creates an empty graph identified by name in errors and events.
func New[S any](name string) *Graph[S] {
	return &Graph[S]{
		name:     name,
		nodes:    make(map[string]Node[S]),
		edges:    make(map[string]string),
		branches: make(map[string]branch[S]),
	}
}

// Name returns the graph name.
func (g *Graph[S]) Name() string {
	return g.name
}

// AddNode registers a node under a unique name.
func (g *Graph[S]) AddNode(name string, node Node[S]) error {
	if name == "" {
		return fmt.Errorf("%w: node name required", ErrConfiguration)
	}
	if name == Start || name == End {
		return fmt.Errorf("%w: node name %q is reserved", ErrConfiguration, name)
	}
	if node == nil {
		return fmt.Errorf("%w: node %q is nil", ErrConfiguration, name)
	}
	if _, ok := g.nodes[name]; ok {
		return fmt.Errorf("%w: duplicate node %q", ErrConfiguration, name)
	}

	g.nodes[name] = node
	g.order = append(g.order, name)
	return nil
}

// AddEdge connects from to to unconditionally. from may be Start and to may
// be End; both endpoints must otherwise be registered nodes.
func (g *Graph[S]) AddEdge(from, to string) error {
	if err := g.checkSource(from); err != nil {
		return err
	}
	if err := g.checkTarget(to); err != nil {
		return err
	}
	if from == Start && to == End {
		return fmt.Errorf("%w: start cannot connect directly to end", ErrConfiguration)
	}

	g.edges[from] = to
	return nil
}

// AddConditionalEdge attaches a router to from. labels declares every label
// route can produce; Compile rejects a declared label with no target. After
// from completes, route is evaluated against the state and the edge
// registered for its label is followed. Every target must be a registered
// node or End.
func (g *Graph[S]) AddConditionalEdge(from string, route Router[S], labels []Label, targets map[Label]string) error {
	if from == Start {
		return fmt.Errorf("%w: start cannot have a conditional edge", ErrConfiguration)
	}
	if err := g.checkSource(from); err != nil {
		return err
	}
	if route == nil {
		return fmt.Errorf("%w: router for %q is nil", ErrConfiguration, from)
	}
	if len(labels) == 0 {
		return fmt.Errorf("%w: conditional edge from %q declares no labels", ErrConfiguration, from)
	}
	if len(targets) == 0 {
		return fmt.Errorf("%w: conditional edge from %q has no targets", ErrConfiguration, from)
	}
	if slices.Contains(labels, "") {
		return fmt.Errorf("%w: empty declared label on conditional edge from %q", ErrConfiguration, from)
	}

	for label, to := range targets {
		if label == "" {
			return fmt.Errorf("%w: empty label on conditional edge from %q", ErrConfiguration, from)
		}
		if err := g.checkTarget(to); err != nil {
			return fmt.Errorf("label %q: %w", label, err)
		}
	}

	g.branches[from] = branch[S]{
		route:   route,
		labels:  slices.Clone(labels),
		targets: maps.Clone(targets),
	}
	return nil
}

// Observe registers an observer that is called after every node invocation.
func (g *Graph[S]) Observe(o Observer[S]) {
	if o != nil {
		g.observers = append(g.observers, o)
	}
}

// Compile validates the graph and returns an immutable Runnable. The graph
// must have an entry edge from Start, every node must have exactly one
// outgoing edge (plain or conditional), every label a conditional edge
// declares must have a target, every node must be reachable from Start, and
// no path may revisit a node.
func (g *Graph[S]) Compile() (*Runnable[S], error) {
	entry, ok := g.edges[Start]
	if !ok {
		return nil, fmt.Errorf("%w: graph %q has no entry edge from start", ErrConfiguration, g.name)
	}

	for _, name := range g.order {
		if _, ok := g.edges[name]; ok {
			continue
		}
		if _, ok := g.branches[name]; ok {
			continue
		}
		return nil, fmt.Errorf("%w: node %q has no outgoing edge", ErrConfiguration, name)
	}

	for _, from := range g.order {
		b, ok := g.branches[from]
		if !ok {
			continue
		}
		for _, label := range b.labels {
			if _, ok := b.targets[label]; !ok {
				return nil, fmt.Errorf("%w: conditional edge from %q has no target for label %q", ErrConfiguration, from, label)
			}
		}
	}

	visited, err := g.walk(entry)
	if err != nil {
		return nil, err
	}

	for _, name := range g.order {
		if !visited[name] {
			return nil, fmt.Errorf("%w: node %q is unreachable from start", ErrConfiguration, name)
		}
	}

	branches := make(map[string]branch[S], len(g.branches))
	for from, b := range g.branches {
		branches[from] = branch[S]{route: b.route, labels: b.labels, targets: maps.Clone(b.targets)}
	}

	return &Runnable[S]{
		name:      g.name,
		entry:     entry,
		nodes:     maps.Clone(g.nodes),
		edges:     maps.Clone(g.edges),
		branches:  branches,
		observers: slices.Clone(g.observers),
	}, nil
}

func (g *Graph[S]) checkSource(from string) error {
	if from == End {
		return fmt.Errorf("%w: end cannot have outgoing edges", ErrConfiguration)
	}
	if from != Start {
		if _, ok := g.nodes[from]; !ok {
			return fmt.Errorf("%w: source node not found: %s", ErrConfiguration, from)
		}
	}
	if _, ok := g.edges[from]; ok {
		return fmt.Errorf("%w: node %q already has an outgoing edge", ErrConfiguration, from)
	}
	if _, ok := g.branches[from]; ok {
		return fmt.Errorf("%w: node %q already has a conditional edge", ErrConfiguration, from)
	}
	return nil
}

func (g *Graph[S]) checkTarget(to string) error {
	if to == Start {
		return fmt.Errorf("%w: start cannot be an edge target", ErrConfiguration)
	}
	if to == End {
		return nil
	}
	if _, ok := g.nodes[to]; !ok {
		return fmt.Errorf("%w: destination node not found: %s", ErrConfiguration, to)
	}
	return nil
}

func (g *Graph[S]) successors(name string) []string {
	if to, ok := g.edges[name]; ok {
		return []string{to}
	}
	b := g.branches[name]
	targets := slices.Collect(maps.Values(b.targets))
	slices.Sort(targets)
	return slices.Compact(targets)
}

// walk performs a depth-first traversal from entry and reports the first
// cycle found.
func (g *Graph[S]) walk(entry string) (map[string]bool, error) {
	visited := make(map[string]bool)
	active := make(map[string]bool)

	var visit func(name string) error
	visit = func(name string) error {
		if name == End || visited[name] {
			return nil
		}
		if active[name] {
			return fmt.Errorf("%w: cycle detected involving node %q", ErrConfiguration, name)
		}

		active[name] = true
		for _, next := range g.successors(name) {
			if err := visit(next); err != nil {
				return err
			}
		}
		delete(active, name)
		visited[name] = true
		return nil
	}

	if err := visit(entry); err != nil {
		return nil, err
	}
	return visited, nil
}
