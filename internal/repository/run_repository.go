package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/edudyne/scheduler/internal/models"
)

// RunRepository persists solver runs saved by a caller.
type RunRepository struct {
	db *sqlx.DB
}

// NewRunRepository constructs a RunRepository.
func NewRunRepository(db *sqlx.DB) *RunRepository {
	return &RunRepository{db: db}
}

func (r *RunRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a new run record.
func (r *RunRepository) Create(ctx context.Context, exec sqlx.ExtContext, run *models.Run) error {
	if run == nil {
		return fmt.Errorf("run payload is nil")
	}
	if run.Label == "" {
		return fmt.Errorf("label is required")
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.Status == "" {
		run.Status = models.RunStatusDraft
	}
	if len(run.Stats) == 0 {
		run.Stats = types.JSONText(`{}`)
	}
	now := time.Now().UTC()
	if run.CreatedAt.IsZero() {
		run.CreatedAt = now
	}
	run.UpdatedAt = now

	target := r.exec(exec)

	const insertQuery = `
INSERT INTO runs (id, label, algorithm, status, score, stats, created_at, updated_at)
VALUES (:id, :label, :algorithm, :status, :score, :stats, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, target, insertQuery, run); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// List returns stored runs, optionally filtered by label, newest first.
func (r *RunRepository) List(ctx context.Context, label string) ([]models.Run, error) {
	var (
		query string
		args  []interface{}
	)
	if label != "" {
		query = `SELECT id, label, algorithm, status, score, stats, created_at, updated_at
FROM runs WHERE label = $1 ORDER BY created_at DESC`
		args = []interface{}{label}
	} else {
		query = `SELECT id, label, algorithm, status, score, stats, created_at, updated_at
FROM runs ORDER BY created_at DESC`
	}

	var runs []models.Run
	if err := r.db.SelectContext(ctx, &runs, query, args...); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// FindByID loads a run by its identifier.
func (r *RunRepository) FindByID(ctx context.Context, id string) (*models.Run, error) {
	const query = `SELECT id, label, algorithm, status, score, stats, created_at, updated_at FROM runs WHERE id = $1`
	var run models.Run
	if err := r.db.GetContext(ctx, &run, query, id); err != nil {
		return nil, err
	}
	return &run, nil
}

// Delete removes a stored run.
func (r *RunRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM runs WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("run rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateStatus updates a run's lifecycle status.
func (r *RunRepository) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.RunStatus) error {
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `UPDATE runs SET status = $1, updated_at = $2 WHERE id = $3`
	result, err := target.ExecContext(ctx, query, status, now, id)
	if err != nil {
		return fmt.Errorf("update run status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("run status rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
