package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/kcvinod/triage/internal/email"
	"github.com/kcvinod/triage/internal/oracle"
	"github.com/kcvinod/triage/pkg/formatting"
	"github.com/kcvinod/triage/pkg/graph"
)

// Degraded reasons recorded on the run state.
const (
	ReasonOracleUnavailable = "oracle unavailable"
	ReasonExtractionFailed  = "extraction failed"
)

// Classifier sends the classification prompt to the oracle and returns the
// raw response text. It does not interpret the response.
type Classifier struct {
	oracle oracle.Oracle
}

// NewClassifier creates a Classifier over o.
func NewClassifier(o oracle.Oracle) *Classifier {
	return &Classifier{oracle: o}
}

// Classify returns the oracle's raw response for doc. Any failure is
// reported as oracle.ErrUnavailable.
func (c *Classifier) Classify(ctx context.Context, doc email.Document) (string, error) {
	text, err := c.oracle.Complete(ctx, ClassifyPrompt(doc))
	if err != nil {
		if errors.Is(err, oracle.ErrUnavailable) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", oracle.ErrUnavailable, err)
	}
	return text, nil
}

// ClassifyNode returns a node that classifies the parsed document. Oracle
// failures and unparseable responses fall back to the default
// classification and mark the run degraded; only cancellation is fatal.
func ClassifyNode(rt *Runtime) graph.Node[*State] {
	classifier := NewClassifier(rt.Classify.Apply(rt.Oracle))

	return graph.NodeFunc[*State](func(ctx context.Context, s *State) (*State, error) {
		if s.Document == nil {
			return s, fmt.Errorf("classify: %w: document", ErrMissingState)
		}
		body := s.Document.Body

		var c Classification
		raw, err := classifier.Classify(ctx, *s.Document)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return s, fmt.Errorf("classify: %w", ctx.Err())
			}
			rt.Logger.WarnContext(ctx, "classification oracle failed", "error", err)
			c = DefaultClassification(body)
			s.Degraded = true
			s.DegradedReason = ReasonOracleUnavailable
		default:
			if m := formatting.Extract(raw); m != nil {
				c = ClassificationFrom(m, body)
			} else {
				rt.Logger.WarnContext(ctx, "classification response not parseable", "response", formatting.Truncate(raw, 200))
				c = DefaultClassification(body)
				s.Degraded = true
				s.DegradedReason = ReasonExtractionFailed
			}
		}

		s.Classification = &c
		s.Route = Route(c)

		rt.Logger.InfoContext(
			ctx, "classify node complete",
			"intent", c.Intent,
			"urgency", c.Urgency,
			"complexity", c.Complexity,
			"degraded", s.Degraded,
		)

		return s, nil
	})
}
