package workflow

import (
	"context"
	"fmt"

	"github.com/kcvinod/triage/internal/email"
	"github.com/kcvinod/triage/pkg/graph"
)

// ParseNode returns a node that parses the raw input into a Document.
func ParseNode(rt *Runtime) graph.Node[*State] {
	return graph.NodeFunc[*State](func(ctx context.Context, s *State) (*State, error) {
		if s == nil {
			return s, fmt.Errorf("parse: %w: state", ErrMissingState)
		}

		doc := email.Parse(s.Raw)
		s.Document = &doc

		rt.Logger.InfoContext(
			ctx, "parse node complete",
			"subject", doc.Subject,
			"from", doc.Sender,
		)

		return s, nil
	})
}
