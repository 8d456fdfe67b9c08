package engine

import mathrand "math/rand"

// Rand is the single source of randomness for every roll the engine makes.
// *math/rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// NewRand returns a seeded source. A zero seed is still deterministic.
func NewRand(seed int64) Rand {
	return mathrand.New(mathrand.NewSource(seed))
}

func rollPercent(r Rand, pct float64) bool {
	if pct <= 0 {
		return false
	}
	return r.Float64()*100 < pct
}
