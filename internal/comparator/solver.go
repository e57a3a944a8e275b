// Package comparator implements the alternative solver family used to
// benchmark the primary quantum-inspired annealer in internal/engine
// against other optimization paradigms: an exact binary-variable
// search, a QUBO-matrix annealer, a qubit-register evolutionary
// algorithm, and a QAOA-style wrapper that falls back to a classical
// eigensolver once the problem outgrows what a simulated circuit can
// hold.
package comparator

import (
	"context"
	"time"

	"github.com/edudyne/scheduler/internal/engine"
)

// Solver is the shared contract every comparator algorithm implements,
// letting pkg/battle race them interchangeably against one request.
type Solver interface {
	// Name identifies the algorithm for result reporting.
	Name() string
	// Solve runs the algorithm against req and returns a Result in the
	// same shape engine.Run produces, so battle ranking can compare
	// them on equal footing.
	Solve(ctx context.Context, req engine.Request) (Result, error)
}

// Result is a comparator run's outcome plus the metadata the battle
// ranking needs: how long it took and how many sections it placed.
type Result struct {
	Algorithm      string
	ScheduledCount int
	TotalSections  int
	Cost           float64
	Entries        []engine.ScheduleEntry
	SolveTime      time.Duration
	Status         string // "optimal", "feasible", "infeasible", "timeout"
}
