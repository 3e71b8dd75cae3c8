// Package triage runs the triage workflow for inbound emails and dispatches
// the artifacts each run produces. Escalations are stored for a human and
// published; drafted replies are published for the outbound mailer.
package triage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kcvinod/triage/internal/escalations"
	"github.com/kcvinod/triage/internal/publish"
	"github.com/kcvinod/triage/internal/workflow"
)

// Executor runs one triage over a raw email.
type Executor interface {
	Execute(ctx context.Context, raw string) (*workflow.Result, error)
}

// Recorder stores escalation records.
type Recorder interface {
	Record(ctx context.Context, cmd escalations.RecordCommand) (*escalations.Escalation, error)
}

// Outcome is a completed run plus the identifiers of any artifacts dispatched
// from it.
type Outcome struct {
	*workflow.Result
	EscalationID *uuid.UUID `json:"escalation_id,omitempty"`
	Published    bool       `json:"published"`
}

// Config bounds the triage service.
type Config struct {
	MaxConcurrency int
	MaxBatchSize   int
	MaxBodySize    int64
}

// System defines the public contract for triage operations.
type System interface {
	Handler() *Handler
	Triage(ctx context.Context, raw string) (*Outcome, error)
	TriageBatch(ctx context.Context, raws []string) ([]Outcome, error)
}

type service struct {
	exec      Executor
	store     Recorder
	publisher publish.Publisher
	cfg       Config
	logger    *slog.Logger
}

// New creates the triage system. A nil store skips escalation storage and a
// nil publisher skips publishing; Outcome.Published then stays false.
func New(exec Executor, store Recorder, publisher publish.Publisher, cfg Config, logger *slog.Logger) System {
	if cfg.MaxConcurrency < 1 {
		cfg.MaxConcurrency = 1
	}
	return &service{
		exec:      exec,
		store:     store,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger.With("system", "triage"),
	}
}

func (s *service) Handler() *Handler {
	return NewHandler(s, s.logger, s.cfg)
}

func (s *service) Triage(ctx context.Context, raw string) (*Outcome, error) {
	result, err := s.exec.Execute(ctx, raw)
	if err != nil {
		return nil, err
	}

	out := &Outcome{Result: result}
	if err := s.dispatch(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) TriageBatch(ctx context.Context, raws []string) ([]Outcome, error) {
	if len(raws) == 0 {
		return nil, ErrEmptyBatch
	}
	if s.cfg.MaxBatchSize > 0 && len(raws) > s.cfg.MaxBatchSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(raws), s.cfg.MaxBatchSize)
	}

	outcomes := make([]Outcome, len(raws))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(s.cfg.MaxConcurrency, len(raws)))

	for i := range raws {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			out, err := s.Triage(gctx, raws[i])
			if err != nil {
				return fmt.Errorf("document %d: %w", i+1, err)
			}

			outcomes[i] = *out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "batch complete", "documents", len(raws))
	return outcomes, nil
}

func (s *service) dispatch(ctx context.Context, out *Outcome) error {
	state := out.State

	switch {
	case state.Escalation != nil:
		return s.dispatchEscalation(ctx, out)
	case state.Reply != nil:
		return s.dispatchReply(ctx, out)
	default:
		s.logger.WarnContext(ctx, "run produced no artifact", "run_id", out.RunID, "draft_failed", state.DraftFailed)
		return nil
	}
}

func (s *service) dispatchEscalation(ctx context.Context, out *Outcome) error {
	cmd, ok := escalations.NewRecordCommand(out.Result)
	if !ok {
		return nil
	}

	if s.store != nil {
		stored, err := s.store.Record(ctx, cmd)
		if err != nil {
			return fmt.Errorf("%w: store escalation: %w", ErrDispatchFailed, err)
		}
		out.EscalationID = &stored.ID
	}

	if s.publisher == nil {
		return nil
	}

	msg := publish.EscalationMessage{
		RunID:      out.RunID,
		Escalation: cmd.Record,
		Subject:    cmd.Subject,
		Sender:     cmd.Sender,
		Degraded:   cmd.Degraded,
		CreatedAt:  out.CompletedAt,
	}
	if err := s.publisher.PublishEscalation(ctx, msg); err != nil {
		return fmt.Errorf("%w: %w", ErrDispatchFailed, err)
	}
	out.Published = true

	return nil
}

func (s *service) dispatchReply(ctx context.Context, out *Outcome) error {
	if s.publisher == nil {
		return nil
	}

	msg := NewReplyMessage(out.Result)

	if err := s.publisher.PublishReply(ctx, msg); err != nil {
		return fmt.Errorf("%w: %w", ErrDispatchFailed, err)
	}
	out.Published = true

	return nil
}

// NewReplyMessage addresses the drafted reply of result back to the sender.
func NewReplyMessage(result *workflow.Result) publish.ReplyMessage {
	s := result.State

	msg := publish.ReplyMessage{
		RunID:      result.RunID,
		References: make([]string, 0, len(s.KBResults)),
		CreatedAt:  result.CompletedAt,
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	if s.Reply != nil {
		msg.Body = s.Reply.Body
	}
	if s.Document != nil {
		msg.To = s.Document.Sender
		msg.Subject = "Re: " + s.Document.Subject
	}
	for _, r := range s.KBResults {
		msg.References = append(msg.References, r.Reference)
	}
	return msg
}
