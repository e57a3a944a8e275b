// Package battle races the primary annealer and the comparator solver
// family against one scheduling request concurrently, each instance
// owning its own immutable input snapshot and rng, then ranks the
// results for the caller.
package battle

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/edudyne/scheduler/internal/comparator"
	"github.com/edudyne/scheduler/internal/engine"
)

// statusRank orders comparator statuses for tie-breaking: a solver
// that reports "optimal" outranks one that only got to "feasible",
// which in turn outranks "timeout"/"infeasible".
var statusRank = map[string]int{
	"optimal":    0,
	"feasible":   1,
	"timeout":    2,
	"infeasible": 3,
}

// Entrant is one named contender in the race, either the primary
// engine or one of the comparator.Solver implementations.
type Entrant struct {
	Name   string
	Solver comparator.Solver
}

// EngineEntrant wraps internal/engine.Run behind the comparator.Solver
// interface so the primary algorithm can race alongside the
// comparator family on equal footing.
type EngineEntrant struct {
	Seed int64
}

func (e EngineEntrant) Name() string { return "quantum-anneal" }

func (e EngineEntrant) Solve(ctx context.Context, req engine.Request) (comparator.Result, error) {
	start := time.Now()
	rng := rand.New(rand.NewSource(e.Seed))

	done := make(chan struct {
		result engine.Result
		err    error
	}, 1)
	go func() {
		result, err := engine.Run(req, rng)
		done <- struct {
			result engine.Result
			err    error
		}{result, err}
	}()

	select {
	case <-ctx.Done():
		return comparator.Result{Algorithm: e.Name(), Status: "timeout", SolveTime: time.Since(start)}, nil
	case out := <-done:
		if out.err != nil {
			return comparator.Result{}, out.err
		}
		status := "optimal"
		if out.result.UnscheduledCount > 0 {
			status = "feasible"
		}
		return comparator.Result{
			Algorithm:      e.Name(),
			ScheduledCount: out.result.ScheduledCount,
			TotalSections:  out.result.TotalSections,
			Cost:           out.result.Stats.FinalCost,
			Entries:        out.result.ScheduleEntries,
			SolveTime:      time.Since(start),
			Status:         status,
		}, nil
	}
}

// Ranking is one entrant's placement in a completed battle.
type Ranking struct {
	Rank   int
	Result comparator.Result
}

// Report is the full outcome of a Run: every entrant's result, sorted
// best-first.
type Report struct {
	Rankings []Ranking
	Elapsed  time.Duration
}

// Run races every entrant against req concurrently, each in its own
// goroutine sharing only the immutable req snapshot, collects results
// into a mutex-guarded slice, and ranks them by (most-scheduled desc,
// solve-time asc, status-priority asc).
func Run(ctx context.Context, req engine.Request, entrants []Entrant, logger *zap.Logger) Report {
	if logger == nil {
		logger = zap.NewNop()
	}
	start := time.Now()

	var mu sync.Mutex
	var results []comparator.Result
	var wg sync.WaitGroup

	for _, entrant := range entrants {
		wg.Add(1)
		go func(e Entrant) {
			defer wg.Done()
			res, err := e.Solver.Solve(ctx, req)
			if err != nil {
				logger.Sugar().Warnw("battle entrant failed", "entrant", e.Name, "error", err)
				return
			}
			res.Algorithm = e.Name
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
		}(entrant)
	}
	wg.Wait()

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].ScheduledCount != results[j].ScheduledCount {
			return results[i].ScheduledCount > results[j].ScheduledCount
		}
		if results[i].SolveTime != results[j].SolveTime {
			return results[i].SolveTime < results[j].SolveTime
		}
		return statusRank[results[i].Status] < statusRank[results[j].Status]
	})

	rankings := make([]Ranking, len(results))
	for i, r := range results {
		rankings[i] = Ranking{Rank: i + 1, Result: r}
	}

	return Report{Rankings: rankings, Elapsed: time.Since(start)}
}

// DefaultEntrants builds the standard five-way battle: the primary
// annealer plus the four comparator algorithms, each seeded
// independently so reruns are reproducible.
func DefaultEntrants(seed int64) []Entrant {
	return []Entrant{
		{Name: "quantum-anneal", Solver: EngineEntrant{Seed: seed}},
		{Name: "exact-cp", Solver: comparator.NewExactSolver()},
		{Name: "qubo-tabu", Solver: comparator.NewQUBOSolver(rand.New(rand.NewSource(seed + 1)))},
		{Name: "qia", Solver: comparator.NewQIASolver(rand.New(rand.NewSource(seed + 2)))},
		{Name: "qaoa", Solver: comparator.NewQAOASolver(rand.New(rand.NewSource(seed + 3)))},
	}
}
