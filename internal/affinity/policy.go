package affinity

// Rand is the randomness the selector needs. *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// Choose applies the epsilon-greedy rule to a strategy set. With
// probability epsilon it explores uniformly; otherwise it exploits the
// strictly highest score, breaking ties by canonical persona order. An empty set
// yields "".
func Choose(strategies map[string]float64, epsilon float64, rng Rand) (persona string, explored bool) {
	names := Personas(strategies)
	if len(names) == 0 {
		return "", false
	}

	if epsilon > 0 && rng != nil && rng.Float64() < epsilon {
		return names[rng.IntN(len(names))], true
	}
	return Best(strategies), false
}

// Best returns the highest-scoring persona; ties go to the persona that
// comes first in canonical order.
func Best(strategies map[string]float64) string {
	best := ""
	bestScore := 0.0
	for _, name := range Personas(strategies) {
		score := strategies[name]
		if best == "" || score > bestScore {
			best, bestScore = name, score
		}
	}
	return best
}
