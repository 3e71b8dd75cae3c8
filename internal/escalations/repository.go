package escalations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/kcvinod/triage/pkg/pagination"
	"github.com/kcvinod/triage/pkg/query"
	"github.com/kcvinod/triage/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates an escalation repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "escalations"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Escalation], error) {
	page.Normalize(r.pagination)

	qb := ListQuery(page, filters)

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count escalations: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanEscalation)
	if err != nil {
		return nil, fmt.Errorf("query escalations: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Escalation, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	e, err := repository.QueryOne(ctx, r.db, q, args, scanEscalation)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &e, nil
}

func (r *repo) Record(ctx context.Context, cmd RecordCommand) (*Escalation, error) {
	if err := cmd.validate(); err != nil {
		return nil, err
	}

	insertQ := `
		INSERT INTO escalations(
			run_id, action, reason, ticket_summary, assignee,
			subject, sender, degraded
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + columns

	args := []any{
		cmd.RunID,
		string(cmd.Record.Action),
		cmd.Record.Reason,
		cmd.Record.Payload.TicketSummary,
		cmd.Record.Payload.Assignee,
		cmd.Subject,
		cmd.Sender,
		cmd.Degraded,
	}

	e, err := repository.QueryOne(ctx, r.db, insertQ, args, scanEscalation)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("escalation recorded",
		"id", e.ID,
		"run_id", e.RunID,
		"action", e.Action,
		"assignee", e.Assignee,
	)
	return &e, nil
}

func (r *repo) Resolve(ctx context.Context, id uuid.UUID, cmd ResolveCommand) (*Escalation, error) {
	if strings.TrimSpace(cmd.ResolvedBy) == "" {
		return nil, fmt.Errorf("%w: resolved_by required", ErrInvalidRecord)
	}

	resolveQ := `
		UPDATE escalations
		SET resolved_by = $1, resolved_at = NOW()
		WHERE id = $2 AND resolved_at IS NULL
		RETURNING ` + columns

	e, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Escalation, error) {
		e, err := repository.QueryOne(ctx, tx, resolveQ, []any{cmd.ResolvedBy, id}, scanEscalation)
		if err == nil {
			return e, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return Escalation{}, err
		}

		exists, err := repository.Exists(
			ctx, tx,
			"SELECT EXISTS(SELECT 1 FROM escalations WHERE id = $1)",
			id,
		)
		if err != nil {
			return Escalation{}, err
		}
		if exists {
			return Escalation{}, ErrAlreadyResolved
		}
		return Escalation{}, ErrNotFound
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("escalation resolved",
		"id", e.ID,
		"resolved_by", cmd.ResolvedBy,
	)
	return &e, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	if err := repository.ExecExpectOne(
		ctx, r.db,
		"DELETE FROM escalations WHERE id = $1",
		id,
	); err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("escalation deleted", "id", id)
	return nil
}
