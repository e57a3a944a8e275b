package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edudyne/scheduler/internal/dto"
	"github.com/edudyne/scheduler/internal/models"
	appErrors "github.com/edudyne/scheduler/pkg/errors"
)

type scheduleGeneratorServiceMock struct {
	generateResp *dto.GenerateScheduleResponse
	generateErr  error
	battleResp   *dto.BattleResponse
	battleErr    error
	saveID       string
	saveErr      error
	listResp     []models.RunSummary
	listErr      error
	entriesResp  []models.Schedule
	entriesErr   error
	deleteErr    error
	calendarResp []byte
	calendarErr  error

	lastSaveReq dto.SaveScheduleRequest
	deleteCalled bool
}

func (m *scheduleGeneratorServiceMock) Generate(_ context.Context, _ dto.GenerateScheduleRequest) (*dto.GenerateScheduleResponse, error) {
	return m.generateResp, m.generateErr
}

func (m *scheduleGeneratorServiceMock) Battle(_ context.Context, _ dto.BattleRequest) (*dto.BattleResponse, error) {
	return m.battleResp, m.battleErr
}

func (m *scheduleGeneratorServiceMock) Save(_ context.Context, req dto.SaveScheduleRequest) (string, error) {
	m.lastSaveReq = req
	return m.saveID, m.saveErr
}

func (m *scheduleGeneratorServiceMock) List(_ context.Context, _ dto.RunQuery) ([]models.RunSummary, error) {
	return m.listResp, m.listErr
}

func (m *scheduleGeneratorServiceMock) Entries(_ context.Context, _ string) ([]models.Schedule, error) {
	return m.entriesResp, m.entriesErr
}

func (m *scheduleGeneratorServiceMock) Delete(_ context.Context, _ string) error {
	m.deleteCalled = true
	return m.deleteErr
}

func (m *scheduleGeneratorServiceMock) ExportCalendar(_ context.Context, _ string, _ dto.CalendarWindow) ([]byte, error) {
	return m.calendarResp, m.calendarErr
}

func TestScheduleGeneratorHandlerGenerateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewScheduleGeneratorHandler(&scheduleGeneratorServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/schedule/generate", bytes.NewBufferString(`{"sections":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Generate(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScheduleGeneratorHandlerGenerateServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &scheduleGeneratorServiceMock{generateErr: appErrors.ErrValidation}
	handler := NewScheduleGeneratorHandler(mockSvc)

	payload, _ := json.Marshal(dto.GenerateScheduleRequest{})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/schedule/generate", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Generate(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScheduleGeneratorHandlerGenerateSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &scheduleGeneratorServiceMock{generateResp: &dto.GenerateScheduleResponse{RunID: "run-1", Success: true}}
	handler := NewScheduleGeneratorHandler(mockSvc)

	payload, _ := json.Marshal(dto.GenerateScheduleRequest{})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/schedule/generate", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Generate(c)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestScheduleGeneratorHandlerSave(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &scheduleGeneratorServiceMock{saveID: "run-1"}
	handler := NewScheduleGeneratorHandler(mockSvc)

	payload, _ := json.Marshal(dto.SaveScheduleRequest{RunID: "proposal-1", Label: "fall-2026-cs"})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/schedule/save", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Save(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "fall-2026-cs", mockSvc.lastSaveReq.Label)
}

func TestScheduleGeneratorHandlerEntriesNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &scheduleGeneratorServiceMock{entriesErr: appErrors.ErrNotFound}
	handler := NewScheduleGeneratorHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/schedule/runs/missing", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "runId", Value: "missing"}}

	handler.Entries(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestScheduleGeneratorHandlerDelete(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &scheduleGeneratorServiceMock{}
	handler := NewScheduleGeneratorHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodDelete, "/schedule/runs/run-1", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "runId", Value: "run-1"}}

	handler.Delete(c)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, mockSvc.deleteCalled)
}

func TestScheduleGeneratorHandlerCalendarMissingQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewScheduleGeneratorHandler(&scheduleGeneratorServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/schedule/runs/run-1/calendar.ics", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "runId", Value: "run-1"}}

	handler.Calendar(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScheduleGeneratorHandlerBattle(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &scheduleGeneratorServiceMock{battleResp: &dto.BattleResponse{ElapsedMs: 42}}
	handler := NewScheduleGeneratorHandler(mockSvc)

	payload, _ := json.Marshal(dto.BattleRequest{})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/schedule/battle", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Battle(c)
	require.Equal(t, http.StatusOK, w.Code)
}
