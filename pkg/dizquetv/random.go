package dizquetv

import "math/rand/v2"

// Rand is the random source used by the shuffling helpers. *rand.Rand from
// math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
	Float64() float64
	Shuffle(n int, swap func(i, j int))
}

type defaultRand struct{}

func (defaultRand) IntN(n int) int { return rand.IntN(n) }
func (defaultRand) Float64() float64 { return rand.Float64() }
func (defaultRand) Shuffle(n int, swap func(i, j int)) { rand.Shuffle(n, swap) }

func orDefault(r Rand) Rand {
	if r == nil {
		return defaultRand{}
	}
	return r
}
