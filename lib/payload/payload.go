// Package payload generates the random byte payloads the client roles send
// on every round trip. The randomness is not cryptographic; it only has to
// produce non-degenerate test traffic so compression or deduplication along
// the measured path cannot skew the timing.
//
// The generator is an explicit collaborator rather than implicit process-wide
// random state: constructing one with a fixed seed yields reproducible test
// vectors.
package payload

import (
	"math/rand"
	"time"
)

// Generator fills a buffer with fresh payload bytes. Implementations are not
// required to be safe for concurrent use; every client role owns exactly one
// generator.
type Generator interface {
	// Fill overwrites all of p with fresh bytes
	Fill(p []byte)
}

// randomGenerator implements Generator on top of a seeded math/rand source
type randomGenerator struct {
	rng *rand.Rand
}

// New returns a Generator seeded from the current time
func New() Generator {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded returns a Generator with a fixed seed. Two generators created
// with the same seed produce identical byte sequences.
func NewSeeded(seed int64) Generator {
	return &randomGenerator{rng: rand.New(rand.NewSource(seed))}
}

func (g *randomGenerator) Fill(p []byte) {
	// rand.Rand.Read never returns an error
	g.rng.Read(p)
}
