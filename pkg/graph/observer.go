package graph

import (
	"context"
	"time"
)

// Event describes one completed node invocation.
type Event[S any] struct {
	Graph   string
	Node    string
	Step    int
	Elapsed time.Duration
	// Label is the route chosen by a conditional edge, empty for plain edges.
	Label Label
	// Next is the node that will run next, or End.
	Next  string
	State S
	Err   error
}

// Observer receives an Event after each node invocation. Observers run
// synchronously on the run goroutine and must not mutate the state.
type Observer[S any] func(ctx context.Context, e Event[S])
