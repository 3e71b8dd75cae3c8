// Package publish emits triage artifacts to downstream consumers over Kafka:
// escalation records for the support desk and drafted replies for the
// outbound mailer.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/kcvinod/triage/internal/workflow"
	"github.com/kcvinod/triage/pkg/lifecycle"
)

// ErrPublishFailed is returned when a message could not be written.
var ErrPublishFailed = errors.New("publish failed")

// EscalationMessage is the payload written to the escalations topic.
type EscalationMessage struct {
	RunID      uuid.UUID                 `json:"run_id"`
	Escalation workflow.EscalationRecord `json:"escalation"`
	Subject    string                    `json:"subject"`
	Sender     string                    `json:"sender"`
	Degraded   bool                      `json:"degraded"`
	CreatedAt  time.Time                 `json:"created_at"`
}

// ReplyMessage is the payload written to the replies topic.
type ReplyMessage struct {
	RunID      uuid.UUID `json:"run_id"`
	To         string    `json:"to"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	References []string  `json:"references"`
	CreatedAt  time.Time `json:"created_at"`
}

// Publisher sends triage artifacts downstream.
type Publisher interface {
	PublishEscalation(ctx context.Context, msg EscalationMessage) error
	PublishReply(ctx context.Context, msg ReplyMessage) error
}

// MessageWriter is the subset of *kafka.Writer used by Producer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes artifacts to one Kafka topic per artifact kind.
type Producer struct {
	escalations MessageWriter
	replies     MessageWriter
	logger      *slog.Logger
}

// NewProducer creates a Producer writing to the configured brokers.
func NewProducer(cfg *Config, logger *slog.Logger) *Producer {
	newWriter := func(topic string) *kafka.Writer {
		return &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			WriteTimeout: cfg.WriteTimeoutDuration(),
			RequiredAcks: kafka.RequireOne,
		}
	}

	return NewProducerFromWriters(
		newWriter(cfg.EscalationsTopic),
		newWriter(cfg.RepliesTopic),
		logger,
	)
}

// NewProducerFromWriters creates a Producer over existing writers.
func NewProducerFromWriters(escalations, replies MessageWriter, logger *slog.Logger) *Producer {
	return &Producer{
		escalations: escalations,
		replies:     replies,
		logger:      logger.With("system", "publish"),
	}
}

// PublishEscalation writes msg to the escalations topic keyed by run ID.
func (p *Producer) PublishEscalation(ctx context.Context, msg EscalationMessage) error {
	if err := write(ctx, p.escalations, msg.RunID, msg); err != nil {
		return fmt.Errorf("escalation %s: %w", msg.RunID, err)
	}
	p.logger.InfoContext(ctx, "escalation published", "run_id", msg.RunID, "action", msg.Escalation.Action)
	return nil
}

// PublishReply writes msg to the replies topic keyed by run ID.
func (p *Producer) PublishReply(ctx context.Context, msg ReplyMessage) error {
	if err := write(ctx, p.replies, msg.RunID, msg); err != nil {
		return fmt.Errorf("reply %s: %w", msg.RunID, err)
	}
	p.logger.InfoContext(ctx, "reply published", "run_id", msg.RunID, "to", msg.To)
	return nil
}

// Start registers a shutdown hook that flushes and closes the writers.
func (p *Producer) Start(lc *lifecycle.Coordinator) error {
	lc.OnShutdown(func() {
		<-lc.Context().Done()
		if err := p.Close(); err != nil {
			p.logger.Error("producer close failed", "error", err)
			return
		}
		p.logger.Info("producer closed")
	})
	return nil
}

// Close closes both writers.
func (p *Producer) Close() error {
	return errors.Join(p.escalations.Close(), p.replies.Close())
}

func write(ctx context.Context, w MessageWriter, key uuid.UUID, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: marshal: %w", ErrPublishFailed, err)
	}

	msg := kafka.Message{
		Key:   []byte(key.String()),
		Value: data,
	}
	if err := w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}
