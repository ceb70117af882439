package game

import (
	"math/rand"
	"time"
)

// Roller wraps a random number generator for event sampling and weighted
// selection. Seedable so tests can pin outcomes.
type Roller struct {
	rng *rand.Rand
}

// NewRoller creates a roller seeded from the wall clock
func NewRoller() *Roller {
	return NewSeededRoller(time.Now().UnixNano())
}

// NewSeededRoller creates a roller with a fixed seed
func NewSeededRoller(seed int64) *Roller {
	return &Roller{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Chance returns true with probability p (clamped to [0,1])
func (r *Roller) Chance(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return r.rng.Float64() < p
}

// WeightedIndex picks an index proportionally to the given weights. A
// non-positive weight is treated as 1. Returns -1 for an empty list.
func (r *Roller) WeightedIndex(weights []float64) int {
	if len(weights) == 0 {
		return -1
	}

	total := 0.0
	for _, w := range weights {
		if w <= 0 {
			w = 1
		}
		total += w
	}

	draw := r.rng.Float64() * total
	for i, w := range weights {
		if w <= 0 {
			w = 1
		}
		draw -= w
		if draw <= 0 {
			return i
		}
	}

	return 0
}
