package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/edudyne/scheduler/pkg/battle"
	"github.com/edudyne/scheduler/pkg/jobs"
)

// BattleAuditService records the comparator field's full ranking for
// a battle off the request path, the same way the worker pool in this
// codebase handles any job whose caller shouldn't block on it.
type BattleAuditService struct {
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewBattleAuditService builds a BattleAuditService around an
// already-started queue.
func NewBattleAuditService(queue *jobs.Queue, logger *zap.Logger) *BattleAuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BattleAuditService{queue: queue, logger: logger}
}

// Record enqueues a battle report for asynchronous audit logging. A
// full queue or a disabled audit worker degrades to a direct log
// write rather than dropping the report.
func (s *BattleAuditService) Record(runLabel string, report battle.Report) {
	if s == nil {
		return
	}
	if s.queue == nil {
		s.logReport(runLabel, report)
		return
	}
	job := jobs.Job{
		ID:      fmt.Sprintf("battle-audit-%d", report.Elapsed.Nanoseconds()),
		Type:    "battle_audit",
		Payload: auditPayload{label: runLabel, report: report},
	}
	if err := s.queue.Enqueue(job); err != nil {
		s.logReport(runLabel, report)
	}
}

type auditPayload struct {
	label  string
	report battle.Report
}

// Handle is the jobs.Handler processing audit jobs enqueued by Record.
func (s *BattleAuditService) Handle(_ context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(auditPayload)
	if !ok {
		return fmt.Errorf("battle audit: unexpected payload type %T", job.Payload)
	}
	s.logReport(payload.label, payload.report)
	return nil
}

func (s *BattleAuditService) logReport(runLabel string, report battle.Report) {
	for _, ranking := range report.Rankings {
		s.logger.Info("battle audit",
			zap.String("label", runLabel),
			zap.Int("rank", ranking.Rank),
			zap.String("algorithm", ranking.Result.Algorithm),
			zap.Int("scheduled", ranking.Result.ScheduledCount),
			zap.Int("total", ranking.Result.TotalSections),
			zap.Float64("cost", ranking.Result.Cost),
			zap.Duration("solve_time", ranking.Result.SolveTime),
		)
	}
}
