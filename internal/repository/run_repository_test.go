package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edudyne/scheduler/internal/models"
)

func newRunRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestRunRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRunRepoMock(t)
	defer cleanup()
	repo := NewRunRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO runs")).
		WithArgs(sqlmock.AnyArg(), "fall-2026-cs", "quantum-anneal", string(models.RunStatusDraft), 0.0, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	payload := &models.Run{
		Label:     "fall-2026-cs",
		Algorithm: "quantum-anneal",
		Stats:     types.JSONText(`{"iterations":1000}`),
	}
	err := repo.Create(context.Background(), nil, payload)
	require.NoError(t, err)
	assert.NotEmpty(t, payload.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunRepositoryList(t *testing.T) {
	db, mock, cleanup := newRunRepoMock(t)
	defer cleanup()
	repo := NewRunRepository(db)

	rows := sqlmock.NewRows([]string{"id", "label", "algorithm", "status", "score", "stats", "created_at", "updated_at"}).
		AddRow("run-1", "fall-2026-cs", "quantum-anneal", string(models.RunStatusDraft), 120.5, types.JSONText(`{}`), time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, label, algorithm, status, score, stats, created_at, updated_at\nFROM runs WHERE label = $1 ORDER BY created_at DESC")).
		WithArgs("fall-2026-cs").
		WillReturnRows(rows)

	list, err := repo.List(context.Background(), "fall-2026-cs")
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRunRepoMock(t)
	defer cleanup()
	repo := NewRunRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM runs WHERE id = $1")).
		WithArgs("run-1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Delete(context.Background(), "run-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunRepositoryDeleteNotFound(t *testing.T) {
	db, mock, cleanup := newRunRepoMock(t)
	defer cleanup()
	repo := NewRunRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM runs WHERE id = $1")).
		WithArgs("run-1").
		WillReturnResult(sqlmock.NewResult(1, 0))

	err := repo.Delete(context.Background(), "run-1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newRunRepoMock(t)
	defer cleanup()
	repo := NewRunRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE runs SET status = $1, updated_at = $2 WHERE id = $3")).
		WithArgs(string(models.RunStatusPublished), sqlmock.AnyArg(), "run-1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.UpdateStatus(context.Background(), nil, "run-1", models.RunStatusPublished)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
