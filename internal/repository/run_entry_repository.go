package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edudyne/scheduler/internal/models"
)

// RunEntryRepository manages the individual placement rows belonging
// to a saved run.
type RunEntryRepository struct {
	db *sqlx.DB
}

// NewRunEntryRepository builds a RunEntryRepository.
func NewRunEntryRepository(db *sqlx.DB) *RunEntryRepository {
	return &RunEntryRepository{db: db}
}

func (r *RunEntryRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// InsertBatch stores every placement row for a run in one pass.
func (r *RunEntryRepository) InsertBatch(ctx context.Context, exec sqlx.ExtContext, entries []models.Schedule) error {
	if len(entries) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `
INSERT INTO schedules (id, run_id, section_id, course_code, teacher_id, teacher_name, room_id, college, day_of_week, slot, start_minute, end_minute, actual_minutes, is_online, is_lab, component, created_at)
VALUES (:id, :run_id, :section_id, :course_code, :teacher_id, :teacher_name, :room_id, :college, :day_of_week, :slot, :start_minute, :end_minute, :actual_minutes, :is_online, :is_lab, :component, :created_at)`

	for i := range entries {
		entry := &entries[i]
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, entry); err != nil {
			return fmt.Errorf("insert schedule entry: %w", err)
		}
	}
	return nil
}

// ListByRun returns every placement row for a run, ordered by day/slot.
func (r *RunEntryRepository) ListByRun(ctx context.Context, runID string) ([]models.Schedule, error) {
	const query = `SELECT id, run_id, section_id, course_code, teacher_id, teacher_name, room_id, college, day_of_week, slot, start_minute, end_minute, actual_minutes, is_online, is_lab, component, created_at
FROM schedules WHERE run_id = $1 ORDER BY day_of_week ASC, slot ASC`
	var entries []models.Schedule
	if err := r.db.SelectContext(ctx, &entries, query, runID); err != nil {
		return nil, fmt.Errorf("list schedule entries: %w", err)
	}
	return entries, nil
}

// InsertConflicts stores the post-processor's teacher-conflict
// downgrades for a run.
func (r *RunEntryRepository) InsertConflicts(ctx context.Context, exec sqlx.ExtContext, runID string, conflicts []models.ScheduleConflict) error {
	if len(conflicts) == 0 {
		return nil
	}
	target := r.exec(exec)

	const query = `
INSERT INTO schedule_conflicts (run_id, kind, room_id, day_of_week, slot, section_id, other_id)
VALUES (:run_id, :kind, :room_id, :day_of_week, :slot, :section_id, :other_id)`

	for i := range conflicts {
		conflicts[i].RunID = runID
		if _, err := sqlx.NamedExecContext(ctx, target, query, conflicts[i]); err != nil {
			return fmt.Errorf("insert schedule conflict: %w", err)
		}
	}
	return nil
}
