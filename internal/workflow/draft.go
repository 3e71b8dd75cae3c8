package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/kcvinod/triage/pkg/graph"
)

// DraftNode returns a node that drafts a reply through the oracle. An oracle
// failure marks the run DraftFailed instead of stopping it.
func DraftNode(rt *Runtime) graph.Node[*State] {
	drafter := rt.Draft.Apply(rt.Oracle)

	return graph.NodeFunc[*State](func(ctx context.Context, s *State) (*State, error) {
		if s.Document == nil {
			return s, fmt.Errorf("draft: %w: document", ErrMissingState)
		}
		if s.Classification == nil {
			return s, fmt.Errorf("draft: %w: classification", ErrMissingState)
		}

		prompt := DraftPrompt(*s.Document, *s.Classification, s.KBResults)

		text, err := drafter.Complete(ctx, prompt)
		if err != nil {
			if ctx.Err() != nil {
				return s, fmt.Errorf("draft: %w", ctx.Err())
			}
			rt.Logger.WarnContext(ctx, "draft oracle failed", "error", err)
			s.DraftFailed = true
			return s, nil
		}

		s.Reply = &Reply{Body: strings.TrimSpace(text)}

		rt.Logger.InfoContext(ctx, "draft node complete", "reply_length", len(s.Reply.Body))

		return s, nil
	})
}
