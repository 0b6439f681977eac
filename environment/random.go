package environment

import (
	"time"

	"golang.org/x/exp/rand"
)

// Random is the source of every draw made while exploring.
type Random interface {
	Float64() float64
	Intn(n int) int
}

// NewRandom returns a seeded generator, or a time-seeded one for seed 0.
func NewRandom(seed uint64) Random {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewSource(seed))
}
