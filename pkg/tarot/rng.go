package tarot

import "math/rand/v2"

// StdRNG delegates to math/rand/v2 (auto-seeded). Fairness only, not security.
type StdRNG struct{}

func (StdRNG) Intn(n int) int { return rand.IntN(n) }
