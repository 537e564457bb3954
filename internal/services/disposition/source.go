package disposition

import "math/rand/v2"

// Source yields uniform draws in [0, 1). *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// Seeder supplies the seed for one classification.
type Seeder func() uint64

// RandomSeed draws a seed from the runtime's global generator.
func RandomSeed() uint64 { return rand.Uint64() }

// NewSource returns a deterministic PCG source for seed.
func NewSource(seed uint64) Source {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
