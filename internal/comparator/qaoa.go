package comparator

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/edudyne/scheduler/internal/engine"
	"github.com/edudyne/scheduler/pkg/isingsim"
)

// qaoaQubitThreshold is the largest variable count this package will
// simulate as an exact QAOA expectation (full statevector enumeration
// over 2^n outcomes). Beyond it, a real quantum device or circuit
// simulator would be required; QAOASolver instead falls back to the
// classical Ising annealer in pkg/isingsim.
const qaoaQubitThreshold = 16

// QAOASolver mimics a single-layer Quantum Approximate Optimization
// Algorithm: for small problems it enumerates every computational
// basis state (what a statevector simulator would do for p=1 QAOA
// with an exhaustive angle search collapses to) and returns the
// minimum-energy bitstring; for larger problems it falls back to
// isingsim's classical annealer, reporting status "feasible" rather
// than "optimal" since the fallback is heuristic.
type QAOASolver struct {
	FallbackIterations int
	Rand               *rand.Rand
}

func NewQAOASolver(rng *rand.Rand) *QAOASolver {
	return &QAOASolver{FallbackIterations: 3000, Rand: rng}
}

func (s *QAOASolver) Name() string { return "qaoa" }

func (s *QAOASolver) Solve(ctx context.Context, req engine.Request) (Result, error) {
	start := time.Now()
	if errs := engine.Validate(req); errs.HasErrors() {
		return Result{}, errs
	}
	if s.Rand == nil {
		s.Rand = rand.New(rand.NewSource(1))
	}

	Q, vars := ExportMatrix(req)
	n := len(vars)

	var best []bool
	status := "optimal"

	if n <= qaoaQubitThreshold {
		best = bruteForceMinimize(ctx, n, Q)
		if best == nil {
			status = "timeout"
			best = make([]bool, n)
		}
	} else {
		model := isingsim.FromQUBO(n, Q)
		best = isingsim.Anneal(model, s.FallbackIterations, 10.0, 0.995, s.Rand)
		status = "feasible"
	}

	grid := engine.BuildTimeGrid(req)
	sections := engine.Decompose(req.Sections, req.Rooms, req.Constraints)
	state := engine.NewState()
	bySectionID := make(map[string]engine.Section, len(sections))
	for _, sec := range sections {
		bySectionID[sec.ID] = sec
	}
	for i, v := range vars {
		if !best[i] {
			continue
		}
		key := engine.Key{RoomID: v.RoomID, Day: v.Day, Slot: v.Slot}
		if !state.IsFree(key) {
			continue
		}
		sec, ok := bySectionID[v.SectionID]
		if !ok || len(state.KeysForSection(sec.ID)) > 0 {
			continue
		}
		state.Place(key, sec)
	}

	scheduled := 0
	for _, sec := range sections {
		if len(state.KeysForSection(sec.ID)) > 0 {
			scheduled++
		}
	}
	if scheduled < len(sections) && status == "optimal" {
		status = "feasible"
	}

	cost := engine.Evaluate(state, sections, req.Rooms, grid, req.FacultyProfiles, req.Constraints)
	result := engine.Assemble(state, sections, req.Rooms, grid, nil, engine.OptimizationStats{})

	return Result{
		Algorithm:      s.Name(),
		ScheduledCount: scheduled,
		TotalSections:  len(sections),
		Cost:           cost,
		Entries:        result.ScheduleEntries,
		SolveTime:      time.Since(start),
		Status:         status,
	}, nil
}

func bruteForceMinimize(ctx context.Context, n int, Q map[[2]int]float64) []bool {
	if n == 0 {
		return []bool{}
	}
	total := uint64(1) << uint(n)
	bestEnergy := math.Inf(1)
	var best []bool

	for mask := uint64(0); mask < total; mask++ {
		select {
		case <-ctx.Done():
			return best
		default:
		}
		assignment := make([]bool, n)
		for i := 0; i < n; i++ {
			assignment[i] = mask&(1<<uint(i)) != 0
		}
		e := 0.0
		for k, w := range Q {
			if assignment[k[0]] && assignment[k[1]] {
				e += w
			}
		}
		if e < bestEnergy {
			bestEnergy = e
			best = assignment
		}
	}
	return best
}
