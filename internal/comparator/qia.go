package comparator

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/edudyne/scheduler/internal/engine"
)

// qubit holds the superposition amplitudes of one binary decision
// variable: Alpha is the amplitude of observing 0, Beta of observing
// 1, with the invariant Alpha*Alpha + Beta*Beta == 1.
type qubit struct {
	Alpha float64
	Beta  float64
}

func newQubit() qubit {
	return qubit{Alpha: math.Sqrt2 / 2, Beta: math.Sqrt2 / 2}
}

// observe collapses the qubit to a classical bit, biased by |Beta|^2.
func (q qubit) observe(rng *rand.Rand) bool {
	return rng.Float64() < q.Beta*q.Beta
}

// rotate nudges the qubit towards the bit value of the best individual
// seen so far, the quantum-gate analogue of a genetic algorithm's
// crossover towards the fittest parent.
func (q *qubit) rotate(observedBit, bestBit bool, theta float64) {
	if observedBit == bestBit {
		return
	}
	sign := 1.0
	if q.Alpha*q.Beta < 0 {
		sign = -1.0
	}
	if !bestBit {
		sign = -sign
	}
	angle := sign * theta
	newAlpha := q.Alpha*math.Cos(angle) - q.Beta*math.Sin(angle)
	newBeta := q.Alpha*math.Sin(angle) + q.Beta*math.Cos(angle)
	norm := math.Hypot(newAlpha, newBeta)
	if norm == 0 {
		return
	}
	q.Alpha, q.Beta = newAlpha/norm, newBeta/norm
}

// tunnelMutate performs a full swap of the amplitudes, the QIA
// analogue of the annealer's quantum tunneling escape move: applied
// rarely, it can flip a qubit's bias entirely regardless of its
// current rotation trajectory.
func (q *qubit) tunnelMutate() {
	q.Alpha, q.Beta = q.Beta, q.Alpha
}

// QIASolver is a quantum-inspired evolutionary algorithm: a population
// of qubit registers (one qubit per decision variable) is repeatedly
// observed into classical individuals, evaluated, rotated towards the
// fittest individual, and occasionally tunnel-mutated.
type QIASolver struct {
	PopulationSize int
	Generations    int
	RotationAngle  float64
	TunnelRate     float64
	Rand           *rand.Rand
}

func NewQIASolver(rng *rand.Rand) *QIASolver {
	return &QIASolver{PopulationSize: 20, Generations: 150, RotationAngle: 0.05 * math.Pi, TunnelRate: 0.02, Rand: rng}
}

func (s *QIASolver) Name() string { return "qia" }

func (s *QIASolver) Solve(ctx context.Context, req engine.Request) (Result, error) {
	start := time.Now()
	if errs := engine.Validate(req); errs.HasErrors() {
		return Result{}, errs
	}
	if s.Rand == nil {
		s.Rand = rand.New(rand.NewSource(1))
	}

	Q, vars := ExportMatrix(req)
	n := len(vars)
	register := make([]qubit, n)
	for i := range register {
		register[i] = newQubit()
	}

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
	bestEnergy := math.Inf(1)
	observed := make([]bool, n)

	for gen := 0; gen < s.Generations; gen++ {
		select {
		case <-ctx.Done():
			gen = s.Generations
			continue
		default:
		}

		for p := 0; p < s.PopulationSize; p++ {
			individual := make([]bool, n)
			for i := range register {
				individual[i] = register[i].observe(s.Rand)
			}
			e := energyOf(individual)
			if e < bestEnergy {
				bestEnergy = e
				copy(best, individual)
			}
			copy(observed, individual)
		}

		for i := range register {
			register[i].rotate(observed[i], best[i], s.RotationAngle)
			if s.Rand.Float64() < s.TunnelRate {
				register[i].tunnelMutate()
			}
		}
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
