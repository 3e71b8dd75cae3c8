package workflow

import (
	"context"
	"fmt"

	"github.com/kcvinod/triage/internal/kb"
	"github.com/kcvinod/triage/pkg/graph"
)

// SearchNode returns a node that looks up knowledge base articles for the
// classification. A failed lookup continues the run with no results.
func SearchNode(rt *Runtime) graph.Node[*State] {
	searcher := rt.searcher()

	return graph.NodeFunc[*State](func(ctx context.Context, s *State) (*State, error) {
		if s.Classification == nil {
			return s, fmt.Errorf("search: %w: classification", ErrMissingState)
		}

		q := kb.Query{
			Intent:  string(s.Classification.Intent),
			Summary: s.Classification.Summary,
		}

		results, err := searcher.Search(ctx, q)
		if err != nil {
			if ctx.Err() != nil {
				return s, fmt.Errorf("search: %w", ctx.Err())
			}
			rt.Logger.WarnContext(ctx, "knowledge base search failed", "error", err)
			results = []kb.Result{}
		}
		s.KBResults = results

		rt.Logger.InfoContext(ctx, "search node complete", "results", len(results))

		return s, nil
	})
}
