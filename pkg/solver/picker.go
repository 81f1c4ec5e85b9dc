package solver

import (
	"math/rand/v2"
	"sync"
)

// RandomPicker picks uniformly among candidates from a seeded PCG source.
// Safe for concurrent use.
type RandomPicker struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomPicker creates a picker seeded with seed.
// Two pickers with the same seed produce the same sequence.
func NewRandomPicker(seed uint64) *RandomPicker {
	return &RandomPicker{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Intn returns a value in [0, n).
func (p *RandomPicker) Intn(n int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.IntN(n)
}

// FirstPicker always picks the first candidate. Candidates are sorted by name,
// so this makes tie-breaks deterministic in tests.
type FirstPicker struct{}

// Intn always returns 0.
func (FirstPicker) Intn(int) int { return 0 }
