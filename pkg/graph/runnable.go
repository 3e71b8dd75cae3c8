package graph

import (
	"context"
	"fmt"
	"time"
)

// Runnable is a compiled, immutable graph. A single Runnable may execute
// many runs concurrently as long as each run owns its own state.
type Runnable[S any] struct {
	name      string
	entry     string
	nodes     map[string]Node[S]
	edges     map[string]string
	branches  map[string]branch[S]
	observers []Observer[S]
}

// Name returns the graph name.
func (r *Runnable[S]) Name() string {
	return r.name
}

// Run executes the graph from Start to End. Cancellation is checked before
// each node and again on reaching End. On any error the zero state is
// returned so that a partially mutated state is never mistaken for a result.
func (r *Runnable[S]) Run(ctx context.Context, initial S) (S, error) {
	var zero S

	state := initial
	current := r.entry

	for step := 1; current != End; step++ {
		if err := ctx.Err(); err != nil {
			return zero, fmt.Errorf("graph %s cancelled before %s: %w", r.name, current, err)
		}

		started := time.Now()
		next, err := r.nodes[current].Execute(ctx, state)
		event := Event[S]{
			Graph:   r.name,
			Node:    current,
			Step:    step,
			Elapsed: time.Since(started),
			State:   next,
		}

		if err != nil {
			event.Err = err
			r.emit(ctx, event)
			return zero, fmt.Errorf("%w: %s: %w", ErrNodeFailed, current, err)
		}

		following, label, err := r.resolve(current, next)
		event.Label = label
		event.Next = following
		event.Err = err
		r.emit(ctx, event)

		if err != nil {
			return zero, err
		}

		state = next
		current = following
	}

	if err := ctx.Err(); err != nil {
		return zero, fmt.Errorf("graph %s cancelled before %s: %w", r.name, End, err)
	}

	return state, nil
}

func (r *Runnable[S]) resolve(current string, state S) (string, Label, error) {
	if to, ok := r.edges[current]; ok {
		return to, "", nil
	}

	b := r.branches[current]
	label := b.route(state)

	to, ok := b.targets[label]
	if !ok {
		return "", label, fmt.Errorf("%w: %q from node %s", ErrUnknownLabel, label, current)
	}
	return to, label, nil
}

func (r *Runnable[S]) emit(ctx context.Context, e Event[S]) {
	for _, o := range r.observers {
		o(ctx, e)
	}
}
