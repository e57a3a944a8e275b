package engine

import "math/rand"

// Run executes the full pipeline for one Request: decomposition,
// compatibility table construction, greedy initial build, simulated
// annealing with quantum-inspired tunneling, post-processing, and
// result assembly. rng must be supplied by the caller; the engine
// never reaches for the global math/rand source so that two runs
// given the same rng seed reproduce identical schedules.
func Run(req Request, rng *rand.Rand) (Result, error) {
	if errs := Validate(req); errs.HasErrors() {
		return Result{}, errs
	}

	constraints := req.Constraints.withDefaults()
	grid := BuildTimeGrid(req)
	sections := Decompose(req.Sections, req.Rooms, constraints)
	table := BuildCompatibilityTable(sections, req.Rooms, constraints)

	initial := BuildInitial(sections, req.Rooms, grid, table, constraints)
	best, stats := Anneal(initial, sections, req.Rooms, grid, table, req.FacultyProfiles, constraints, rng)
	conflicts := Postprocess(best, sections, req.Rooms, grid, table, constraints)

	result := Assemble(best, sections, req.Rooms, grid, conflicts, stats)
	return result, nil
}
