package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/sire-reportes/internal/domain"
	"github.com/jhoicas/sire-reportes/internal/domain/entity"
	"github.com/jhoicas/sire-reportes/internal/domain/repository"
)

var _ repository.RunRepository = (*RunRepo)(nil)

const (
	defaultListLimit = 20
	maxListLimit     = 100
	maxErrorMessage  = 1000
)

const schemaSQL = `
	CREATE TABLE IF NOT EXISTS sire_runs (
		id            UUID PRIMARY KEY,
		periodo       CHAR(6)     NOT NULL,
		num_ticket    TEXT,
		status        TEXT        NOT NULL,
		error_kind    TEXT,
		error_message TEXT,
		bytes         INTEGER     NOT NULL DEFAULT 0,
		chars         INTEGER     NOT NULL DEFAULT 0,
		started_at    TIMESTAMPTZ NOT NULL,
		finished_at   TIMESTAMPTZ
	);
	CREATE INDEX IF NOT EXISTS idx_sire_runs_periodo ON sire_runs (periodo, started_at DESC);`

// RunRepo bitácora de ejecuciones en la tabla sire_runs (usable con pool o tx).
type RunRepo struct {
	q Querier
}

// NewRunRepository construye el adaptador. Pasar pool o tx (Querier).
func NewRunRepository(q Querier) *RunRepo {
	return &RunRepo{q: q}
}

// EnsureSchema crea la tabla y el índice si no existen.
func (r *RunRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.q.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure sire_runs schema: %w", err)
	}
	return nil
}

// Start registra una ejecución en curso.
func (r *RunRepo) Start(ctx context.Context, run *entity.Run) error {
	query := `
		INSERT INTO sire_runs (id, periodo, status, started_at)
		VALUES ($1, $2, $3, $4)`
	_, err := r.q.Exec(ctx, query, run.ID, run.Periodo, run.Status, run.StartedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: run %s", domain.ErrDuplicate, run.ID)
		}
		return fmt.Errorf("insert sire_run: %w", err)
	}
	return nil
}

// Finish guarda el resultado final de la ejecución.
func (r *RunRepo) Finish(ctx context.Context, run *entity.Run) error {
	query := `
		UPDATE sire_runs
		SET num_ticket = $2, status = $3, error_kind = $4, error_message = $5,
		    bytes = $6, chars = $7, finished_at = $8
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		run.ID, nullIfEmpty(run.NumTicket), run.Status, nullIfEmpty(run.ErrorKind),
		nullIfEmpty(truncate(run.ErrorMessage, maxErrorMessage)), run.Bytes, run.Chars, run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("update sire_run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: run %s", domain.ErrNotFound, run.ID)
	}
	return nil
}

// ListByPeriod lista las ejecuciones del periodo, la más reciente primero.
func (r *RunRepo) ListByPeriod(ctx context.Context, periodo string, limit int) ([]*entity.Run, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	query := `
		SELECT id::text, periodo, COALESCE(num_ticket, ''), status, COALESCE(error_kind, ''),
		       COALESCE(error_message, ''), bytes, chars, started_at, finished_at
		FROM sire_runs
		WHERE periodo = $1
		ORDER BY started_at DESC
		LIMIT $2`
	rows, err := r.q.Query(ctx, query, periodo, limit)
	if err != nil {
		return nil, fmt.Errorf("list sire_runs: %w", err)
	}
	defer rows.Close()

	var list []*entity.Run
	for rows.Next() {
		var run entity.Run
		if err := rows.Scan(
			&run.ID, &run.Periodo, &run.NumTicket, &run.Status, &run.ErrorKind,
			&run.ErrorMessage, &run.Bytes, &run.Chars, &run.StartedAt, &run.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("scan sire_run: %w", err)
		}
		list = append(list, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sire_runs: %w", err)
	}
	return list, nil
}
