package service

import (
	"context"
	"database/sql"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edudyne/scheduler/internal/dto"
	"github.com/edudyne/scheduler/internal/models"
	appErrors "github.com/edudyne/scheduler/pkg/errors"
)

type fakeRunRepository struct {
	created      *models.Run
	createErr    error
	listResult   []models.Run
	findResult   *models.Run
	findErr      error
	deleteErr    error
	updateErr    error
	lastStatus   models.RunStatus
}

func (f *fakeRunRepository) Create(_ context.Context, _ sqlx.ExtContext, run *models.Run) error {
	if f.createErr != nil {
		return f.createErr
	}
	run.ID = "run-1"
	f.created = run
	return nil
}

func (f *fakeRunRepository) List(_ context.Context, _ string) ([]models.Run, error) {
	return f.listResult, nil
}

func (f *fakeRunRepository) FindByID(_ context.Context, _ string) (*models.Run, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.findResult, nil
}

func (f *fakeRunRepository) Delete(_ context.Context, _ string) error {
	return f.deleteErr
}

func (f *fakeRunRepository) UpdateStatus(_ context.Context, _ sqlx.ExtContext, _ string, status models.RunStatus) error {
	f.lastStatus = status
	return f.updateErr
}

type fakeRunEntryRepository struct {
	inserted      []models.Schedule
	listResult    []models.Schedule
	insertErr     error
	conflictRows  []models.ScheduleConflict
}

func (f *fakeRunEntryRepository) InsertBatch(_ context.Context, _ sqlx.ExtContext, entries []models.Schedule) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = entries
	return nil
}

func (f *fakeRunEntryRepository) ListByRun(_ context.Context, _ string) ([]models.Schedule, error) {
	return f.listResult, nil
}

func (f *fakeRunEntryRepository) InsertConflicts(_ context.Context, _ sqlx.ExtContext, runID string, conflicts []models.ScheduleConflict) error {
	for i := range conflicts {
		conflicts[i].RunID = runID
	}
	f.conflictRows = conflicts
	return nil
}

func newMockTxDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func smallRequest() dto.GenerateScheduleRequest {
	return dto.GenerateScheduleRequest{
		Sections: []dto.SectionRequest{
			{ID: "sec-1", CourseCode: "CS101", TeacherID: "t1", Kind: "lecture", LectureMinutes: 50},
		},
		Rooms: []dto.RoomRequest{
			{ID: "room-1", Capacity: 30, Type: "lecture"},
		},
		TimeSlots: []dto.TimeSlotRequest{
			{ID: "slot-1", Slot: 0, StartMinute: 480, EndMinute: 530},
		},
		Seed: 42,
	}
}

func TestScheduleGeneratorServiceGenerate(t *testing.T) {
	svc := NewScheduleGeneratorService(&fakeRunRepository{}, &fakeRunEntryRepository{}, nil, nil, validator.New(), nil, ScheduleGeneratorConfig{})

	resp, err := svc.Generate(context.Background(), dto.GenerateScheduleRequest(smallRequest()))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.RunID)
	assert.Equal(t, 1, resp.TotalSections)
}

func TestScheduleGeneratorServiceGenerateValidationError(t *testing.T) {
	svc := NewScheduleGeneratorService(&fakeRunRepository{}, &fakeRunEntryRepository{}, nil, nil, validator.New(), nil, ScheduleGeneratorConfig{})

	_, err := svc.Generate(context.Background(), dto.GenerateScheduleRequest{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestScheduleGeneratorServiceSaveUnknownProposal(t *testing.T) {
	svc := NewScheduleGeneratorService(&fakeRunRepository{}, &fakeRunEntryRepository{}, nil, nil, validator.New(), nil, ScheduleGeneratorConfig{})

	_, err := svc.Save(context.Background(), dto.SaveScheduleRequest{RunID: "missing", Label: "fall-2026"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestScheduleGeneratorServiceGenerateThenSave(t *testing.T) {
	db, mock, cleanup := newMockTxDB(t)
	defer cleanup()

	runs := &fakeRunRepository{}
	entries := &fakeRunEntryRepository{}
	svc := NewScheduleGeneratorService(runs, entries, db, nil, validator.New(), nil, ScheduleGeneratorConfig{})

	genResp, err := svc.Generate(context.Background(), smallRequest())
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectCommit()

	runID, err := svc.Save(context.Background(), dto.SaveScheduleRequest{RunID: genResp.RunID, Label: "fall-2026-cs"})
	require.NoError(t, err)
	assert.Equal(t, "run-1", runID)
	assert.Equal(t, "fall-2026-cs", runs.created.Label)
	assert.Equal(t, models.RunStatusPublished, runs.lastStatus)
	assert.NoError(t, mock.ExpectationsWereMet())

	_, found := svc.store.Get(genResp.RunID)
	assert.False(t, found)
}

func TestScheduleGeneratorServiceEntriesRunNotFound(t *testing.T) {
	svc := NewScheduleGeneratorService(&fakeRunRepository{findErr: sql.ErrNoRows}, &fakeRunEntryRepository{}, nil, nil, validator.New(), nil, ScheduleGeneratorConfig{})

	_, err := svc.Entries(context.Background(), "missing")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestScheduleGeneratorServiceBattle(t *testing.T) {
	svc := NewScheduleGeneratorService(&fakeRunRepository{}, &fakeRunEntryRepository{}, nil, nil, validator.New(), nil, ScheduleGeneratorConfig{})

	req := dto.BattleRequest{GenerateScheduleRequest: smallRequest(), TimeoutSeconds: 5}
	resp, err := svc.Battle(context.Background(), req)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Rankings)
}

func TestScheduleGeneratorServiceList(t *testing.T) {
	runs := &fakeRunRepository{listResult: []models.Run{{ID: "run-1", Label: "fall-2026-cs"}}}
	svc := NewScheduleGeneratorService(runs, &fakeRunEntryRepository{}, nil, nil, validator.New(), nil, ScheduleGeneratorConfig{})

	list, err := svc.List(context.Background(), dto.RunQuery{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "fall-2026-cs", list[0].Label)
}
