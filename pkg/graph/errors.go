// Package graph provides a sequential state-graph executor with typed state.
// Nodes are registered by name and connected with unconditional edges or
// labelled conditional edges. A compiled graph walks exactly one path from
// Start to End per run, threading a single state value through each node.
package graph

import (
	"errors"
	"fmt"
)

// ErrConfiguration marks a structurally invalid graph. It is returned by the
// builder methods and Compile, and at run time when a router produces a label
// with no registered target.
var ErrConfiguration = errors.New("invalid graph configuration")

// ErrUnknownLabel is returned by Run when a router yields a label that has no
// registered edge. It wraps ErrConfiguration.
var ErrUnknownLabel = fmt.Errorf("%w: no edge registered for route label", ErrConfiguration)

// ErrNodeFailed wraps an error returned by a node.
var ErrNodeFailed = errors.New("node failed")
