package engine

import (
	"math"
	"math/rand"
	"time"
)

// Anneal runs the Metropolis simulated-annealing loop against an
// initial state, accepting or rejecting neighbor moves and
// occasionally quantum-tunneling to escape local minima. It returns
// the best schedule found and the run's OptimizationStats.
func Anneal(initial *State, sections []Section, rooms []Room, grid TimeGrid, table CompatibilityTable, profiles []FacultyProfile, constraints Constraints, rng *rand.Rand) (*State, OptimizationStats) {
	constraints = constraints.withDefaults()
	start := time.Now()

	current := initial
	currentCost := Evaluate(current, sections, rooms, grid, profiles, constraints)

	best := current.Clone()
	bestCost := currentCost

	stats := OptimizationStats{InitialCost: currentCost}

	temperature := constraints.InitialTemperature
	coolingRate := constraints.CoolingRate
	stagnation := 0
	reheats := 0
	recentImprovement := 0

	for iter := 0; iter < constraints.MaxIterations; iter++ {
		stats.Iterations = iter + 1

		tunnelChance := 0.10
		if stagnation > 0 {
			tunnelChance *= 3
		}
		triggerTunnel := rng.Float64() < tunnelChance
		tunneled := false
		if triggerTunnel && rng.Float64() < TunnelProbability(temperature, constraints.TunnelBaseProb) {
			kind, applied := Tunnel(current, sections, rooms, table, grid, constraints, rng, 20)
			if applied {
				tunneled = true
				if kind == "block_swap" {
					stats.BlockSwaps++
				} else {
					stats.QuantumTunnels++
				}
			}
		}

		if !tunneled {
			move, ok := Neighbor(current, sections, table, grid, rng)
			if !ok {
				continue
			}
			beforeCost := currentCost
			if !ApplyMove(current, grid, move, constraints) {
				continue
			}
			newCost := Evaluate(current, sections, rooms, grid, profiles, constraints)
			delta := newCost - beforeCost

			accept := delta < 0 || rng.Float64() < math.Exp(-delta/math.Max(temperature, 0.01))
			if !accept {
				undoMove(current, grid, move, constraints)
				continue
			}
			currentCost = newCost
		} else {
			currentCost = Evaluate(current, sections, rooms, grid, profiles, constraints)
		}

		if currentCost < bestCost {
			bestCost = currentCost
			best = current.Clone()
			stats.Improvements++
			stagnation = 0
			recentImprovement = 50
		} else {
			stagnation++
			if recentImprovement > 0 {
				recentImprovement--
			}
		}

		if iter%100 == 0 {
			stats.TemperatureSchedule = append(stats.TemperatureSchedule, temperature)
		}

		rEff := coolingRate
		if recentImprovement > 0 {
			rEff = math.Sqrt(coolingRate)
		}
		temperature *= rEff
		if temperature < 1e-3 {
			temperature = 1e-3
		}

		if stagnation >= constraints.StagnationWindow {
			if reheats >= constraints.MaxReheats {
				break
			}
			temperature = constraints.InitialTemperature * 0.5
			reheats++
			stagnation = 0
		}

		if bestCost == 0 {
			break
		}
		if stagnation >= 500 && reheats >= constraints.MaxReheats {
			break
		}
	}

	stats.FinalCost = bestCost
	stats.Reheats = reheats
	stats.ConflictCount = countHardViolations(best.All(), withFaculty(buildSectionIndex(sections, rooms, grid), profiles), grid, constraints)
	stats.TimeElapsedMs = time.Since(start).Milliseconds()

	return best, stats
}

// undoMove reverses a previously applied move. ApplyMove already
// restores the original cell on failure, so undoMove is only needed
// when the Metropolis criterion rejects a move that *did* commit.
func undoMove(state *State, grid TimeGrid, m Move, constraints Constraints) {
	if m.Kind == MoveSwap {
		currentA := Key{RoomID: m.NewRoomID, Day: m.NewDay, Slot: m.NewStart}
		currentB := m.OldKeys[0]
		ApplyMove(state, grid, Move{
			Kind:         MoveSwap,
			Section:      m.Section,
			OldKeys:      []Key{currentA},
			OtherSection: m.OtherSection,
			OtherOldKeys: []Key{currentB},
		}, constraints)
		return
	}
	currentKey := Key{RoomID: m.NewRoomID, Day: m.NewDay, Slot: m.NewStart}
	ApplyMove(state, grid, Move{
		Kind:      m.Kind,
		Section:   m.Section,
		OldKeys:   []Key{currentKey},
		NewRoomID: m.OldKeys[0].RoomID,
		NewDay:    m.OldKeys[0].Day,
		NewStart:  m.OldKeys[0].Slot,
	}, constraints)
}
