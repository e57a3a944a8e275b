package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edudyne/scheduler/internal/dto"
	"github.com/edudyne/scheduler/internal/models"
	appErrors "github.com/edudyne/scheduler/pkg/errors"
	"github.com/edudyne/scheduler/pkg/response"
)

type scheduleGeneratorService interface {
	Generate(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.GenerateScheduleResponse, error)
	Battle(ctx context.Context, req dto.BattleRequest) (*dto.BattleResponse, error)
	Save(ctx context.Context, req dto.SaveScheduleRequest) (string, error)
	List(ctx context.Context, query dto.RunQuery) ([]models.RunSummary, error)
	Entries(ctx context.Context, runID string) ([]models.Schedule, error)
	Delete(ctx context.Context, runID string) error
	ExportCalendar(ctx context.Context, runID string, window dto.CalendarWindow) ([]byte, error)
}

// ScheduleGeneratorHandler exposes the solver's HTTP surface: generate
// a proposal, race the comparator field against it, save an accepted
// proposal, and list/inspect/export saved runs.
type ScheduleGeneratorHandler struct {
	service scheduleGeneratorService
}

// NewScheduleGeneratorHandler constructs the handler.
func NewScheduleGeneratorHandler(svc scheduleGeneratorService) *ScheduleGeneratorHandler {
	return &ScheduleGeneratorHandler{service: svc}
}

// Generate godoc
// @Summary Generate a schedule proposal via the quantum-inspired annealer
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param payload body dto.GenerateScheduleRequest true "Generate schedule payload"
// @Success 200 {object} response.Envelope
// @Router /schedule/generate [post]
func (h *ScheduleGeneratorHandler) Generate(c *gin.Context) {
	var req dto.GenerateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate payload"))
		return
	}
	result, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Battle godoc
// @Summary Race the annealer against the comparator solver family
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param payload body dto.BattleRequest true "Battle payload"
// @Success 200 {object} response.Envelope
// @Router /schedule/battle [post]
func (h *ScheduleGeneratorHandler) Battle(c *gin.Context) {
	var req dto.BattleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid battle payload"))
		return
	}
	result, err := h.service.Battle(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Save godoc
// @Summary Persist a generated proposal as a run
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param payload body dto.SaveScheduleRequest true "Save payload"
// @Success 201 {object} response.Envelope
// @Router /schedule/save [post]
func (h *ScheduleGeneratorHandler) Save(c *gin.Context) {
	var req dto.SaveScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid save payload"))
		return
	}
	id, err := h.service.Save(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"runId": id})
}

// List godoc
// @Summary List saved runs
// @Tags Scheduler
// @Produce json
// @Param label query string false "Run label filter"
// @Success 200 {object} response.Envelope
// @Router /schedule/runs [get]
func (h *ScheduleGeneratorHandler) List(c *gin.Context) {
	query := dto.RunQuery{Label: c.Query("label")}
	result, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Entries godoc
// @Summary Get placement rows for a saved run
// @Tags Scheduler
// @Produce json
// @Param runId path string true "Run ID"
// @Success 200 {object} response.Envelope
// @Router /schedule/runs/{runId} [get]
func (h *ScheduleGeneratorHandler) Entries(c *gin.Context) {
	rows, err := h.service.Entries(c.Request.Context(), c.Param("runId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Delete godoc
// @Summary Delete a saved run
// @Tags Scheduler
// @Param runId path string true "Run ID"
// @Success 204
// @Router /schedule/runs/{runId} [delete]
func (h *ScheduleGeneratorHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("runId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Calendar godoc
// @Summary Export a saved run as an iCalendar feed
// @Tags Scheduler
// @Produce text/calendar
// @Param runId path string true "Run ID"
// @Param semesterStart query string true "Semester start (RFC3339)"
// @Param semesterEnd query string true "Semester end (RFC3339)"
// @Success 200 {string} string "text/calendar"
// @Router /schedule/runs/{runId}/calendar.ics [get]
func (h *ScheduleGeneratorHandler) Calendar(c *gin.Context) {
	start, err := time.Parse(time.RFC3339, c.Query("semesterStart"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "semesterStart must be an RFC3339 timestamp"))
		return
	}
	end, err := time.Parse(time.RFC3339, c.Query("semesterEnd"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "semesterEnd must be an RFC3339 timestamp"))
		return
	}
	window := dto.CalendarWindow{SemesterStart: start, SemesterEnd: end}
	payload, err := h.service.ExportCalendar(c.Request.Context(), c.Param("runId"), window)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", payload)
}
