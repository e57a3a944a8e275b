package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edudyne/scheduler/internal/models"
)

func newRunEntryRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestRunEntryRepositoryInsertBatch(t *testing.T) {
	db, mock, cleanup := newRunEntryRepoMock(t)
	defer cleanup()
	repo := NewRunEntryRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schedules")).
		WithArgs(sqlmock.AnyArg(), "run-1", "CS101", "CS101", "teacher-1", "", "R1", "", 0, 0, 0, 90, 0, false, false, "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	entries := []models.Schedule{
		{
			RunID:       "run-1",
			SectionID:   "CS101",
			CourseCode:  "CS101",
			TeacherID:   "teacher-1",
			RoomID:      "R1",
			DayOfWeek:   0,
			Slot:        0,
			StartMinute: 0,
			EndMinute:   90,
		},
	}

	require.NoError(t, repo.InsertBatch(context.Background(), nil, entries))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunEntryRepositoryListByRun(t *testing.T) {
	db, mock, cleanup := newRunEntryRepoMock(t)
	defer cleanup()
	repo := NewRunEntryRepository(db)

	rows := sqlmock.NewRows([]string{"id", "run_id", "section_id", "course_code", "teacher_id", "teacher_name", "room_id", "college", "day_of_week", "slot", "start_minute", "end_minute", "actual_minutes", "is_online", "is_lab", "component", "created_at"}).
		AddRow("entry-1", "run-1", "CS101", "CS101", "teacher-1", "", "R1", "", 0, 0, 0, 90, 0, false, false, "", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, run_id, section_id, course_code, teacher_id, teacher_name, room_id, college, day_of_week, slot, start_minute, end_minute, actual_minutes, is_online, is_lab, component, created_at\nFROM schedules WHERE run_id = $1 ORDER BY day_of_week ASC, slot ASC")).
		WithArgs("run-1").
		WillReturnRows(rows)

	entries, err := repo.ListByRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
