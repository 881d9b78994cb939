// Package random provides the single seedable random source of a race.
package random

import (
	"math/rand/v2"
	"time"
)

// Source is the only origin of randomness inside the engine.
// All stochastic decisions of one race are drawn from the same Source,
// so a fixed seed reproduces the race.
type Source interface {
	// Float64 returns a uniform value in [0,1)
	Float64() float64
	// Between returns a uniform value in [lo,hi)
	Between(lo, hi float64) float64
	// IntBetween returns a uniform int in [lo,hi] (both inclusive)
	IntBetween(lo, hi int) int
	// Chance reports true with probability p
	Chance(p float64) bool
	// Perm returns a random permutation of [0,n)
	Perm(n int) []int
}

type generator struct{ rand *rand.Rand }

// New creates a Source for seed
func New(seed int64) Source {
	//nolint:gosec // not used for security
	return &generator{rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))}
}

// NewTimeSeeded creates a Source seeded by the current time and returns the seed used
func NewTimeSeeded() (src Source, seed int64) {
	seed = time.Now().UnixNano()
	return New(seed), seed
}

func (g *generator) Float64() float64 {
	return g.rand.Float64()
}

func (g *generator) Between(lo, hi float64) float64 {
	return lo + (hi-lo)*g.rand.Float64()
}

func (g *generator) IntBetween(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + g.rand.IntN(hi-lo+1)
}

func (g *generator) Chance(p float64) bool {
	if p <= 0 {
		return false
	}
	return g.rand.Float64() < p
}

func (g *generator) Perm(n int) []int {
	return g.rand.Perm(n)
}
