package comparator

import (
	"context"
	"math/rand"
	"time"

	"github.com/edudyne/scheduler/internal/engine"
)

// QUBOSolver formulates the scheduling problem as a Quadratic
// Unconstrained Binary Optimization matrix Q over variables
// x[section,room,day,slot], then runs a tabu walk over that matrix:
// each iteration flips one random bit that is not tabu, always keeps
// the flip, and records the lowest-energy assignment seen. There is
// no temperature and no Metropolis acceptance step. ExportMatrix
// exposes Q directly so external QUBO solvers (a physical annealer,
// a third-party QUBO library) can consume the same formulation.
type QUBOSolver struct {
	Iterations int
	TabuTenure int
	Rand       *rand.Rand
}

func NewQUBOSolver(rng *rand.Rand) *QUBOSolver {
	return &QUBOSolver{Iterations: 2000, TabuTenure: 15, Rand: rng}
}

func (s *QUBOSolver) Name() string { return "qubo-tabu" }

// Variable identifies one binary decision variable x[section,room,day,slot].
type Variable struct {
	SectionID string
	RoomID    string
	Day       engine.Weekday
	Slot      int
}

// ExportMatrix builds the QUBO coefficient map Q[(i,j)] for the given
// request from the squared penalty P*(sum(x)-1)^2 that enforces "each
// section placed exactly once" (-P on every diagonal term, +2P on
// every off-diagonal pair of the same section) plus pairwise conflict
// penalties for two variables sharing a room/slot or a teacher/slot.
// No room-preference or capacity-fit cost is encoded.
func ExportMatrix(req engine.Request) (map[[2]int]float64, []Variable) {
	constraints := req.Constraints
	grid := engine.BuildTimeGrid(req)
	sections := engine.Decompose(req.Sections, req.Rooms, constraints)
	table := engine.BuildCompatibilityTable(sections, req.Rooms, constraints)

	var vars []Variable
	varIndex := make(map[Variable]int)
	for _, sec := range sections {
		for _, roomID := range table.CompatibleRooms(sec.ID) {
			for _, day := range grid.Days {
				for _, ts := range grid.Slots {
					v := Variable{SectionID: sec.ID, RoomID: roomID, Day: day, Slot: ts.Slot}
					varIndex[v] = len(vars)
					vars = append(vars, v)
				}
			}
		}
	}

	const assignOncePenalty = 5000.0
	const conflictPenalty = 8000.0

	Q := make(map[[2]int]float64)
	addQ := func(i, j int, w float64) {
		if i > j {
			i, j = j, i
		}
		Q[[2]int{i, j}] += w
	}

	bySection := make(map[string][]int)
	for i, v := range vars {
		bySection[v.SectionID] = append(bySection[v.SectionID], i)
	}

	// "Each section placed exactly once": P*(sum_i x_i - 1)^2 expands
	// to -P on each diagonal and +2P on each off-diagonal pair.
	for _, idxs := range bySection {
		for _, i := range idxs {
			addQ(i, i, -assignOncePenalty)
		}
		for a := 0; a < len(idxs); a++ {
			for b := a + 1; b < len(idxs); b++ {
				addQ(idxs[a], idxs[b], 2*assignOncePenalty)
			}
		}
	}

	// Conflict penalties: two variables that share a room+day+slot, or
	// a teacher+day+slot, cannot both be 1.
	sectionTeacher := make(map[string]string, len(sections))
	for _, sec := range sections {
		sectionTeacher[sec.ID] = sec.TeacherID
	}
	for a := 0; a < len(vars); a++ {
		for b := a + 1; b < len(vars); b++ {
			va, vb := vars[a], vars[b]
			if va.Day != vb.Day || va.Slot != vb.Slot {
				continue
			}
			if va.RoomID == vb.RoomID {
				addQ(a, b, conflictPenalty)
			} else if sectionTeacher[va.SectionID] == sectionTeacher[vb.SectionID] {
				addQ(a, b, conflictPenalty)
			}
		}
	}

	return Q, vars
}

func (s *QUBOSolver) Solve(ctx context.Context, req engine.Request) (Result, error) {
	start := time.Now()
	if errs := engine.Validate(req); errs.HasErrors() {
		return Result{}, errs
	}
	if s.Rand == nil {
		s.Rand = rand.New(rand.NewSource(1))
	}

	Q, vars := ExportMatrix(req)
	n := len(vars)
	x := make([]bool, n)
	tabu := make([]int, n)

	energyOf := func(assignment []bool) float64 {
		e := 0.0
		for k, w := range Q {
			if assignment[k[0]] && assignment[k[1]] {
				e += w
			}
		}
		return e
	}

	best := make([]bool, n)
	copy(best, x)
	bestEnergy := energyOf(x)

	for iter := 0; iter < s.Iterations; iter++ {
		select {
		case <-ctx.Done():
			iter = s.Iterations
			continue
		default:
		}
		if n == 0 {
			break
		}
		i := s.Rand.Intn(n)
		if tabu[i] > iter {
			continue
		}
		x[i] = !x[i]
		e := energyOf(x)
		if e < bestEnergy {
			bestEnergy = e
			copy(best, x)
		}
		tabu[i] = iter + s.TabuTenure
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

	cost := engine.Evaluate(state, sections, req.Rooms, grid, req.FacultyProfiles, req.Constraints)
	result := engine.Assemble(state, sections, req.Rooms, grid, nil, engine.OptimizationStats{})

	status := "feasible"
	if scheduled == len(sections) {
		status = "optimal"
	}

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
