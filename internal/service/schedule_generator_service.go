package service

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/edudyne/scheduler/internal/dto"
	"github.com/edudyne/scheduler/internal/engine"
	"github.com/edudyne/scheduler/internal/models"
	appErrors "github.com/edudyne/scheduler/pkg/errors"
	"github.com/edudyne/scheduler/pkg/battle"
	"github.com/edudyne/scheduler/pkg/ical"
	"github.com/edudyne/scheduler/pkg/metrics"
)

type runRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, run *models.Run) error
	List(ctx context.Context, label string) ([]models.Run, error)
	FindByID(ctx context.Context, id string) (*models.Run, error)
	Delete(ctx context.Context, id string) error
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.RunStatus) error
}

type runEntryRepository interface {
	InsertBatch(ctx context.Context, exec sqlx.ExtContext, entries []models.Schedule) error
	ListByRun(ctx context.Context, runID string) ([]models.Schedule, error)
	InsertConflicts(ctx context.Context, exec sqlx.ExtContext, runID string, conflicts []models.ScheduleConflict) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// ScheduleGeneratorService drives the quantum-inspired annealer, races
// it against the comparator solver family, and persists accepted runs.
type ScheduleGeneratorService struct {
	runs      runRepository
	entries   runEntryRepository
	tx        txProvider
	metrics   *metrics.Service
	validator *validator.Validate
	logger    *zap.Logger
	store     *proposalStore
	audit     *BattleAuditService
	cache     *CacheService
}

// ScheduleGeneratorConfig governs generator behaviour.
type ScheduleGeneratorConfig struct {
	ProposalTTL time.Duration
}

// NewScheduleGeneratorService wires the generator's dependencies.
func NewScheduleGeneratorService(
	runs runRepository,
	entries runEntryRepository,
	tx txProvider,
	metricsSvc *metrics.Service,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg ScheduleGeneratorConfig,
) *ScheduleGeneratorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ProposalTTL <= 0 {
		cfg.ProposalTTL = 30 * time.Minute
	}
	return &ScheduleGeneratorService{
		runs:      runs,
		entries:   entries,
		tx:        tx,
		metrics:   metricsSvc,
		validator: validate,
		logger:    logger,
		store:     newProposalStore(cfg.ProposalTTL),
	}
}

// WithBattleAudit attaches an audit sink that records every Battle
// ranking off the request path. Optional: a service built without one
// simply skips audit logging.
func (s *ScheduleGeneratorService) WithBattleAudit(audit *BattleAuditService) *ScheduleGeneratorService {
	s.audit = audit
	return s
}

// WithCache attaches a result cache so repeated battles over an
// identical catalog skip re-racing the comparator solver family.
// Optional: a service built without one always races live.
func (s *ScheduleGeneratorService) WithCache(cache *CacheService) *ScheduleGeneratorService {
	s.cache = cache
	return s
}

// Generate runs the annealer once against a self-contained catalog of
// sections/rooms/time slots and caches the result as a proposal
// pending Save.
func (s *ScheduleGeneratorService) Generate(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.GenerateScheduleResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule generation payload")
	}

	engineReq, err := toEngineRequest(req)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid scheduling catalog")
	}

	seed := req.Seed
	if seed == 0 {
		seed = 1
	}
	rng := rand.New(rand.NewSource(seed))

	start := time.Now()
	result, err := engine.Run(engineReq, rng)
	if err != nil {
		var verrs engine.ValidationErrors
		if errors.As(err, &verrs) {
			return nil, appErrors.Wrap(verrs, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, verrs.Error())
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "solver run failed")
	}
	s.metrics.ObserveRun("quantum-anneal", result, time.Since(start))

	runID := uuid.NewString()
	s.store.Save(scheduleProposal{
		RunID:     runID,
		Algorithm: "quantum-anneal",
		Result:    result,
		Seed:      seed,
		SavedAt:   time.Now().UTC(),
	})

	return toGenerateResponse(runID, result), nil
}

// Battle races the primary annealer against the comparator solver
// family over the same catalog and ranks their outcomes.
func (s *ScheduleGeneratorService) Battle(ctx context.Context, req dto.BattleRequest) (*dto.BattleResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid battle payload")
	}

	engineReq, err := toEngineRequest(req.GenerateScheduleRequest)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid scheduling catalog")
	}

	cacheKey := battleCacheKey(req)
	var cached dto.BattleResponse
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return &cached, nil
	}

	timeout := time.Duration(req.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	battleCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	seed := req.Seed
	if seed == 0 {
		seed = 1
	}
	report := battle.Run(battleCtx, engineReq, battle.DefaultEntrants(seed), s.logger)
	s.audit.Record(req.Label, report)

	resp := toBattleResponse(report)
	_ = s.cache.Set(ctx, cacheKey, resp, 0)
	return resp, nil
}

// battleCacheKey derives a deterministic cache key from the fields
// that affect the race's outcome, ignoring the audit label.
func battleCacheKey(req dto.BattleRequest) string {
	req.Label = ""
	payload, err := json.Marshal(req)
	if err != nil {
		return "battle:uncacheable"
	}
	sum := sha256.Sum256(payload)
	return "battle:" + hex.EncodeToString(sum[:])
}

// Save persists a generated proposal as a stored run, its placement
// rows, and any teacher-conflict downgrades the post-processor
// recorded.
func (s *ScheduleGeneratorService) Save(ctx context.Context, req dto.SaveScheduleRequest) (string, error) {
	if err := s.validator.Struct(req); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid save payload")
	}
	proposal, ok := s.store.Get(req.RunID)
	if !ok {
		return "", appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")
	}
	if s.tx == nil {
		return "", appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	statsJSON, marshalErr := statsToJSON(proposal.Result.Stats)
	if marshalErr != nil {
		err = appErrors.Wrap(marshalErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode run stats")
		return "", err
	}

	run := &models.Run{
		Label:     req.Label,
		Algorithm: proposal.Algorithm,
		Status:    models.RunStatusDraft,
		Score:     proposal.Result.Stats.FinalCost,
		Stats:     statsJSON,
	}
	if err = s.runs.Create(ctx, tx, run); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create run")
		return "", err
	}

	rows := toScheduleRows(run.ID, proposal.Result.ScheduleEntries)
	if err = s.entries.InsertBatch(ctx, tx, rows); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist run entries")
		return "", err
	}

	conflicts := toScheduleConflicts(proposal.Result.Conflicts)
	if err = s.entries.InsertConflicts(ctx, tx, run.ID, conflicts); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist run conflicts")
		return "", err
	}

	if err = s.runs.UpdateStatus(ctx, tx, run.ID, models.RunStatusPublished); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish run")
		return "", err
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit run")
		return "", err
	}

	s.store.Delete(req.RunID)
	return run.ID, nil
}

// List returns stored runs, newest first.
func (s *ScheduleGeneratorService) List(ctx context.Context, query dto.RunQuery) ([]models.RunSummary, error) {
	runs, err := s.runs.List(ctx, query.Label)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list runs")
	}
	summaries := make([]models.RunSummary, 0, len(runs))
	for _, r := range runs {
		summaries = append(summaries, models.RunSummary{
			ID: r.ID, Label: r.Label, Algorithm: r.Algorithm, Status: r.Status, Score: r.Score, CreatedAt: r.CreatedAt,
		})
	}
	return summaries, nil
}

// Entries returns the placement rows belonging to a saved run.
func (s *ScheduleGeneratorService) Entries(ctx context.Context, runID string) ([]models.Schedule, error) {
	if _, err := s.runs.FindByID(ctx, runID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "run not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load run")
	}
	return s.entries.ListByRun(ctx, runID)
}

// Delete removes a stored run.
func (s *ScheduleGeneratorService) Delete(ctx context.Context, runID string) error {
	if err := s.runs.Delete(ctx, runID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "run not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete run")
	}
	return nil
}

// ExportCalendar renders a saved run's placement rows as an RFC 5545
// calendar recurring weekly across the supplied window.
func (s *ScheduleGeneratorService) ExportCalendar(ctx context.Context, runID string, window dto.CalendarWindow) ([]byte, error) {
	rows, err := s.Entries(ctx, runID)
	if err != nil {
		return nil, err
	}
	entries := make([]engine.ScheduleEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, engine.ScheduleEntry{
			SectionID:     row.SectionID,
			CourseCode:    row.CourseCode,
			TeacherID:     row.TeacherID,
			TeacherName:   row.TeacherName,
			RoomID:        row.RoomID,
			College:       row.College,
			Day:           engine.Weekday(row.DayOfWeek),
			Slot:          row.Slot,
			StartMinute:   row.StartMinute,
			EndMinute:     row.EndMinute,
			ActualMinutes: row.ActualMinutes,
			IsOnline:      row.IsOnline,
			IsLab:         row.IsLab,
			Component:     row.Component,
		})
	}
	return ical.Render(entries, ical.Options{
		SemesterStart: window.SemesterStart,
		SemesterEnd:   window.SemesterEnd,
	})
}

// --- Proposal cache ---

type scheduleProposal struct {
	RunID     string
	Algorithm string
	Result    engine.Result
	Seed      int64
	SavedAt   time.Time
}

type proposalStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]scheduleProposal
}

func newProposalStore(ttl time.Duration) *proposalStore {
	return &proposalStore{ttl: ttl, items: make(map[string]scheduleProposal)}
}

func (s *proposalStore) Save(proposal scheduleProposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[proposal.RunID] = proposal
}

func (s *proposalStore) Get(id string) (scheduleProposal, bool) {
	s.mu.RLock()
	proposal, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return scheduleProposal{}, false
	}
	if time.Since(proposal.SavedAt) > s.ttl {
		s.Delete(id)
		return scheduleProposal{}, false
	}
	return proposal, true
}

func (s *proposalStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}

// --- DTO <-> engine conversions ---

func toEngineRequest(req dto.GenerateScheduleRequest) (engine.Request, error) {
	engineDays, err := toWeekdays(req.Days, true)
	if err != nil {
		return engine.Request{}, err
	}
	onlineDays, err := toWeekdays(req.OnlineDays, false)
	if err != nil {
		return engine.Request{}, err
	}

	engineRooms := make([]engine.Room, 0, len(req.Rooms))
	for _, r := range req.Rooms {
		engineRooms = append(engineRooms, engine.Room{
			ID: r.ID, Name: r.Name, Building: r.Building, Capacity: r.Capacity, Type: engine.RoomType(r.Type),
			Features: r.Features, Accessible: r.Accessible, College: r.College,
		})
	}

	engineSlots := make([]engine.TimeSlot, 0, len(req.TimeSlots))
	for _, ts := range req.TimeSlots {
		engineSlots = append(engineSlots, engine.TimeSlot{
			ID: ts.ID, Slot: ts.Slot, StartMinute: ts.StartMinute, EndMinute: ts.EndMinute,
		})
	}

	engineSections := make([]engine.Section, 0, len(req.Sections))
	for _, sec := range req.Sections {
		engineSections = append(engineSections, engine.Section{
			ID: sec.ID, CourseCode: sec.CourseCode, CourseName: sec.CourseName,
			TeacherID: sec.TeacherID, TeacherName: sec.TeacherName, StudentCount: sec.StudentCount,
			Kind: engine.SessionKind(sec.Kind), LectureMinutes: sec.LectureMinutes, LabMinutes: sec.LabMinutes,
			RequiredRoomType: engine.RoomType(sec.RequiredRoomType), RequiredFeatures: sec.RequiredFeatures,
			PreferAccessible: sec.PreferAccessible, College: sec.College,
			Pinned:           sec.Pinned, PinnedRoomID: sec.PinnedRoomID,
			PinnedDay: engine.Weekday(sec.PinnedDay), PinnedSlot: sec.PinnedSlot,
		})
	}

	engineProfiles := make([]engine.FacultyProfile, 0, len(req.FacultyProfiles))
	for _, p := range req.FacultyProfiles {
		unavailable := make([]engine.Weekday, 0, len(p.UnavailableDays))
		for _, d := range p.UnavailableDays {
			unavailable = append(unavailable, engine.Weekday(d))
		}
		engineProfiles = append(engineProfiles, engine.FacultyProfile{
			TeacherID: p.TeacherID, EmploymentType: p.EmploymentType,
			MaxWeeklyMinutes: p.MaxWeeklyMinutes, MaxDailyMinutes: p.MaxDailyMinutes,
			UnavailableDays: unavailable, PreferredShift: p.PreferredShift, ShiftIsHard: p.ShiftIsHard,
		})
	}

	c := req.Constraints
	return engine.Request{
		Sections:        engineSections,
		Rooms:           engineRooms,
		TimeSlots:       engineSlots,
		Days:            engineDays,
		OnlineDays:      onlineDays,
		FacultyProfiles: engineProfiles,
		Constraints: engine.Constraints{
			MaxTeacherHoursPerDay:     c.MaxTeacherHoursPerDay,
			MaxConsecutiveClasses:     c.MaxConsecutiveClasses,
			PreferredUtilization:      c.PreferredUtilization,
			PrioritizeAccessibility:   c.PrioritizeAccessibility,
			MaxLectureBlockMinutes:    c.MaxLectureBlockMinutes,
			MaxLabBlockMinutes:        c.MaxLabBlockMinutes,
			CombineSplitLectures:      c.CombineSplitLectures,
			MaxIterations:             c.MaxIterations,
			InitialTemperature:        c.InitialTemperature,
			CoolingRate:               c.CoolingRate,
			MaxReheats:                c.MaxReheats,
			LunchMode:                 c.LunchMode,
			LunchStartMinute:          c.LunchStartMinute,
			LunchEndMinute:            c.LunchEndMinute,
			StrictLabRoomMatching:     c.StrictLabRoomMatching,
			StrictLectureRoomMatching: c.StrictLectureRoomMatching,
			MaxSessionsPerWeek:        c.MaxSessionsPerWeek,
		},
	}, nil
}

// toWeekdays converts a raw day-index list into engine.Weekday values.
// When defaultMonFri is true, an empty list falls back to Monday..Friday;
// otherwise an empty list stays empty (used for OnlineDays, which has no
// meaningful default).
func toWeekdays(days []int, defaultMonFri bool) ([]engine.Weekday, error) {
	if len(days) == 0 {
		if !defaultMonFri {
			return nil, nil
		}
		out := make([]engine.Weekday, 0, int(engine.Friday)+1)
		for d := engine.Monday; d <= engine.Friday; d++ {
			out = append(out, d)
		}
		return out, nil
	}
	out := make([]engine.Weekday, 0, len(days))
	for _, d := range days {
		if d < 0 || d > int(engine.Saturday) {
			return nil, fmt.Errorf("day %d out of range", d)
		}
		out = append(out, engine.Weekday(d))
	}
	return out, nil
}

func toGenerateResponse(runID string, result engine.Result) *dto.GenerateScheduleResponse {
	entries := make([]dto.ScheduleEntryResponse, 0, len(result.ScheduleEntries))
	for _, e := range result.ScheduleEntries {
		entries = append(entries, dto.ScheduleEntryResponse{
			SectionID: e.SectionID, CourseCode: e.CourseCode, CourseName: e.CourseName,
			TeacherID: e.TeacherID, TeacherName: e.TeacherName, RoomID: e.RoomID, College: e.College,
			Day: int(e.Day), Slot: e.Slot,
			StartMinute: e.StartMinute, EndMinute: e.EndMinute, SlotCount: e.SlotCount,
			ActualMinutes: e.ActualMinutes, IsOnline: e.IsOnline, IsLab: e.IsLab,
			Component: e.Component, SectionType: e.SectionType, SplitType: e.SplitType,
			OriginalID: e.OriginalID, SiblingIDs: e.SiblingIDs, GroupLabel: e.GroupLabel,
		})
	}
	conflicts := make([]dto.ConflictResponse, 0, len(result.Conflicts))
	for _, c := range result.Conflicts {
		conflicts = append(conflicts, dto.ConflictResponse{
			Kind: c.Kind, RoomID: c.Key.RoomID, Day: int(c.Key.Day), Slot: c.Key.Slot,
			SectionID: c.SectionID, OtherID: c.OtherID,
		})
	}
	return &dto.GenerateScheduleResponse{
		RunID: runID, Success: result.Success, Message: result.Message,
		ScheduledCount: result.ScheduledCount, UnscheduledCount: result.UnscheduledCount,
		TotalSections: result.TotalSections, Entries: entries, Conflicts: conflicts,
		UnscheduledSectionIDs: result.UnscheduledSectionIDs,
		Stats: dto.OptimizationStatsResponse{
			InitialCost: result.Stats.InitialCost, FinalCost: result.Stats.FinalCost,
			Iterations: result.Stats.Iterations, Improvements: result.Stats.Improvements,
			QuantumTunnels: result.Stats.QuantumTunnels, BlockSwaps: result.Stats.BlockSwaps,
			Reheats: result.Stats.Reheats, ConflictCount: result.Stats.ConflictCount,
			TimeElapsedMs:       result.Stats.TimeElapsedMs,
			TemperatureSchedule: result.Stats.TemperatureSchedule,
		},
	}
}

func toBattleResponse(report battle.Report) *dto.BattleResponse {
	rankings := make([]dto.BattleEntryResponse, 0, len(report.Rankings))
	for _, r := range report.Rankings {
		rankings = append(rankings, dto.BattleEntryResponse{
			Rank: r.Rank, Algorithm: r.Result.Algorithm, ScheduledCount: r.Result.ScheduledCount,
			TotalSections: r.Result.TotalSections, Cost: r.Result.Cost, Status: r.Result.Status,
			SolveTimeMs: r.Result.SolveTime.Milliseconds(),
		})
	}
	return &dto.BattleResponse{ElapsedMs: int(report.Elapsed.Milliseconds()), Rankings: rankings}
}

func toScheduleRows(runID string, entries []engine.ScheduleEntry) []models.Schedule {
	rows := make([]models.Schedule, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, models.Schedule{
			RunID: runID, SectionID: e.SectionID, CourseCode: e.CourseCode, TeacherID: e.TeacherID,
			TeacherName: e.TeacherName, RoomID: e.RoomID, College: e.College, DayOfWeek: int(e.Day), Slot: e.Slot,
			StartMinute: e.StartMinute, EndMinute: e.EndMinute, ActualMinutes: e.ActualMinutes,
			IsOnline: e.IsOnline, IsLab: e.IsLab, Component: e.Component,
		})
	}
	return rows
}

func toScheduleConflicts(conflicts []engine.Conflict) []models.ScheduleConflict {
	rows := make([]models.ScheduleConflict, 0, len(conflicts))
	for _, c := range conflicts {
		rows = append(rows, models.ScheduleConflict{
			Kind: c.Kind, RoomID: c.Key.RoomID, DayOfWeek: int(c.Key.Day), Slot: c.Key.Slot,
			SectionID: c.SectionID, OtherID: c.OtherID,
		})
	}
	return rows
}

func statsToJSON(stats engine.OptimizationStats) (types.JSONText, error) {
	return json.Marshal(struct {
		InitialCost         float64   `json:"initialCost"`
		FinalCost           float64   `json:"finalCost"`
		Iterations          int       `json:"iterations"`
		Improvements        int       `json:"improvements"`
		QuantumTunnels      int       `json:"quantumTunnels"`
		BlockSwaps          int       `json:"blockSwaps"`
		Reheats             int       `json:"reheats"`
		ConflictCount       int       `json:"conflictCount"`
		TimeElapsedMs       int64     `json:"timeElapsedMs"`
		TemperatureSchedule []float64 `json:"temperatureSchedule,omitempty"`
	}{
		stats.InitialCost, stats.FinalCost, stats.Iterations, stats.Improvements,
		stats.QuantumTunnels, stats.BlockSwaps, stats.Reheats, stats.ConflictCount,
		stats.TimeElapsedMs, stats.TemperatureSchedule,
	})
}
