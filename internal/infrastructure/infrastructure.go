// Package infrastructure assembles the shared systems domain modules depend
// on: lifecycle, logging, the escalation database, the classification
// oracle, the knowledge base, and the artifact publisher.
package infrastructure

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/kcvinod/triage/internal/config"
	"github.com/kcvinod/triage/internal/kb"
	"github.com/kcvinod/triage/internal/oracle"
	"github.com/kcvinod/triage/internal/publish"
	"github.com/kcvinod/triage/pkg/database"
	"github.com/kcvinod/triage/pkg/lifecycle"
)

// Infrastructure holds the core systems required by all domain modules.
// Database is nil for standalone use and Publisher is nil when no brokers
// are configured.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Oracle    oracle.Oracle
	Knowledge kb.Searcher
	Publisher publish.Publisher

	sqlite   *kb.SQLite
	producer *publish.Producer
}

// New creates the full Infrastructure used by the server. Systems are
// initialized but not started; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	return build(cfg, true)
}

// NewStandalone creates an Infrastructure without a database, for one-shot
// triage runs.
func NewStandalone(cfg *config.Config) (*Infrastructure, error) {
	return build(cfg, false)
}

func build(cfg *config.Config, withDatabase bool) (*Infrastructure, error) {
	logger := NewLogger(cfg)

	infra := &Infrastructure{
		Lifecycle: lifecycle.New(),
		Logger:    logger,
		Oracle:    oracle.NewAgent(cfg.Agent.Agent()),
	}

	if withDatabase {
		db, err := database.New(&cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("database init failed: %w", err)
		}
		infra.Database = db
	}

	if err := infra.initKnowledge(&cfg.KB); err != nil {
		return nil, fmt.Errorf("kb init failed: %w", err)
	}

	if cfg.Kafka.Enabled() {
		infra.producer = publish.NewProducer(&cfg.Kafka, logger)
		infra.Publisher = infra.producer
	}

	return infra, nil
}

// NewLogger creates the service logger at the configured level.
func NewLogger(cfg *config.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.Level(),
	}))
}

func (i *Infrastructure) initKnowledge(cfg *config.KBConfig) error {
	switch cfg.Source {
	case config.KBSourceSQLite:
		s, err := kb.OpenSQLite(cfg.Path, cfg.Limit, i.Logger)
		if err != nil {
			return err
		}
		i.sqlite = s
		i.Knowledge = s
	case config.KBSourceNone:
		i.Knowledge = kb.Empty{}
	default:
		i.Knowledge = kb.NewStatic(kb.DefaultArticles()...)
	}
	return nil
}

// Start registers all infrastructure systems with the lifecycle coordinator.
// The database is also registered as a readiness check.
func (i *Infrastructure) Start() error {
	if i.Database != nil {
		if err := i.Database.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("database start failed: %w", err)
		}
		i.Lifecycle.Check("database", i.Database)
	}
	if i.sqlite != nil {
		if err := i.sqlite.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("kb start failed: %w", err)
		}
	}
	if i.producer != nil {
		if err := i.producer.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("publisher start failed: %w", err)
		}
	}
	return nil
}
