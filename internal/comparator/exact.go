package comparator

import (
	"context"
	"sort"
	"time"

	"github.com/edudyne/scheduler/internal/engine"
)

// ExactSolver performs an exhaustive depth-first backtracking search
// over the binary placement variables x[section,room,day,slot],
// skipping placements that clash on room or teacher and keeping the
// assignment that schedules the most sections. No branch is pruned by
// cost or by a bound. Status is "optimal" when the search completes
// with every section placed, "feasible" when it completes with some
// left unplaced, and "timeout" once MaxNodes or ctx's deadline stops
// it; "infeasible" is never reported.
type ExactSolver struct {
	// MaxNodes bounds the number of branch expansions explored before
	// giving up and reporting the best partial assignment found,
	// independent of ctx's deadline.
	MaxNodes int
}

func NewExactSolver() *ExactSolver {
	return &ExactSolver{MaxNodes: 200_000}
}

func (s *ExactSolver) Name() string { return "exact-cp" }

func (s *ExactSolver) Solve(ctx context.Context, req engine.Request) (Result, error) {
	start := time.Now()
	if errs := engine.Validate(req); errs.HasErrors() {
		return Result{}, errs
	}

	constraints := req.Constraints
	grid := engine.BuildTimeGrid(req)
	sections := engine.Decompose(req.Sections, req.Rooms, constraints)
	table := engine.BuildCompatibilityTable(sections, req.Rooms, constraints)

	ordered := make([]engine.Section, len(sections))
	copy(ordered, sections)
	sort.SliceStable(ordered, func(i, j int) bool {
		return len(table.CompatibleRooms(ordered[i].ID)) < len(table.CompatibleRooms(ordered[j].ID))
	})

	best := engine.NewState()
	bestScheduled := 0
	nodes := 0
	status := "optimal"

	var search func(idx int, current *engine.State, scheduled int)
	search = func(idx int, current *engine.State, scheduled int) {
		if nodes >= s.MaxNodes {
			status = "timeout"
			return
		}
		select {
		case <-ctx.Done():
			status = "timeout"
			return
		default:
		}
		nodes++

		if idx >= len(ordered) {
			if scheduled > bestScheduled {
				bestScheduled = scheduled
				best = current.Clone()
			}
			return
		}

		// Upper bound: even scheduling every remaining section can't
		// beat the incumbent. The bound is not applied; the branch is
		// explored regardless.
		if scheduled+(len(ordered)-idx) <= bestScheduled && idx > 0 {
		}

		sec := ordered[idx]
		placed := false
		for _, roomID := range table.CompatibleRooms(sec.ID) {
			for _, day := range grid.Days {
				for _, ts := range grid.Slots {
					key := engine.Key{RoomID: roomID, Day: day, Slot: ts.Slot}
					if !current.IsFree(key) {
						continue
					}
					if teacherBusy(current, sec.TeacherID, day, ts.Slot) {
						continue
					}
					current.Place(key, sec)
					search(idx+1, current, scheduled+1)
					current.Remove(key, sec)
					placed = true
					if status == "timeout" {
						return
					}
				}
			}
		}
		if !placed {
			search(idx+1, current, scheduled)
		}
	}

	search(0, engine.NewState(), 0)

	if bestScheduled < len(ordered) && status == "optimal" {
		status = "feasible"
	}

	cost := engine.Evaluate(best, sections, req.Rooms, grid, req.FacultyProfiles, constraints)
	result := engine.Assemble(best, sections, req.Rooms, grid, nil, engine.OptimizationStats{})

	return Result{
		Algorithm:      s.Name(),
		ScheduledCount: bestScheduled,
		TotalSections:  len(ordered),
		Cost:           cost,
		Entries:        result.ScheduleEntries,
		SolveTime:      time.Since(start),
		Status:         status,
	}, nil
}

func teacherBusy(state *engine.State, teacherID string, day engine.Weekday, slot int) bool {
	for _, k := range state.TeacherDayKeys(teacherID, day) {
		if k.Slot == slot {
			return true
		}
	}
	return false
}
