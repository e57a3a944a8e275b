// Package isingsim provides a classical Ising-model simulated
// annealer used as the fallback path for comparator algorithms whose
// quantum formulation grows past what a simulator can hold.
package isingsim

import (
	"math"
	"math/rand"
)

// Spin is +1 or -1, the Ising analogue of a QUBO binary variable
// (x=1 maps to Spin=-1, x=0 maps to Spin=+1 by convention here).
type Spin int8

// Model is a classical Ising Hamiltonian H = sum_ij J[i,j]*s_i*s_j,
// built from a QUBO matrix via the standard x=(1-s)/2 substitution.
type Model struct {
	N int
	J map[[2]int]float64
}

// FromQUBO converts a QUBO coefficient map over n binary variables
// into the equivalent Ising couplings.
func FromQUBO(n int, Q map[[2]int]float64) Model {
	J := make(map[[2]int]float64, len(Q))
	for k, w := range Q {
		J[k] += w / 4
	}
	return Model{N: n, J: J}
}

func (m Model) energy(spins []Spin) float64 {
	e := 0.0
	for k, w := range m.J {
		e += w * float64(spins[k[0]]) * float64(spins[k[1]])
	}
	return e
}

// Anneal runs a Metropolis spin-flip annealer over the model and
// returns the lowest-energy spin configuration found, expressed back
// as booleans (true == the QUBO variable is set).
func Anneal(m Model, iterations int, initialTemp, coolingRate float64, rng *rand.Rand) []bool {
	spins := make([]Spin, m.N)
	for i := range spins {
		if rng.Float64() < 0.5 {
			spins[i] = 1
		} else {
			spins[i] = -1
		}
	}

	best := make([]Spin, m.N)
	copy(best, spins)
	bestEnergy := m.energy(spins)
	currentEnergy := bestEnergy
	temperature := initialTemp

	for iter := 0; iter < iterations; iter++ {
		if m.N == 0 {
			break
		}
		i := rng.Intn(m.N)
		spins[i] = -spins[i]
		newEnergy := m.energy(spins)
		delta := newEnergy - currentEnergy
		if delta < 0 || rng.Float64() < math.Exp(-delta/math.Max(temperature, 0.01)) {
			currentEnergy = newEnergy
			if currentEnergy < bestEnergy {
				bestEnergy = currentEnergy
				copy(best, spins)
			}
		} else {
			spins[i] = -spins[i]
		}
		temperature *= coolingRate
	}

	out := make([]bool, m.N)
	for i, sp := range best {
		out[i] = sp < 0
	}
	return out
}
