package tarot

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed deck.yaml
var deckYAML []byte

type deckFile struct {
	Cards []Card `yaml:"cards"`
}

// Pool is a fixed deck of cards. It is safe for concurrent use because
// draws never mutate the underlying deck.
type Pool struct {
	cards []Card
	rng   RNG
}

// NewPool creates a pool over the given cards.
func NewPool(cards []Card, rng RNG) *Pool {
	cp := make([]Card, len(cards))
	copy(cp, cards)
	return &Pool{cards: cp, rng: rng}
}

// NewStandardPool loads the embedded 78-card deck.
func NewStandardPool(rng RNG) (*Pool, error) {
	var f deckFile
	if err := yaml.Unmarshal(deckYAML, &f); err != nil {
		return nil, fmt.Errorf("decode embedded deck: %w", err)
	}
	if len(f.Cards) == 0 {
		return nil, fmt.Errorf("embedded deck is empty")
	}
	return NewPool(f.Cards, rng), nil
}

// Draw returns up to n distinct cards. Asking for more than the deck holds
// returns the whole deck; n <= 0 returns nothing.
func (p *Pool) Draw(n int) []DrawnCard {
	if n <= 0 {
		return nil
	}
	if n > len(p.cards) {
		n = len(p.cards)
	}

	// Partial Fisher-Yates: only the first n slots are settled.
	indices := make([]int, len(p.cards))
	for i := range indices {
		indices[i] = i
	}
	for i := 0; i < n; i++ {
		j := i + p.rng.Intn(len(indices)-i)
		indices[i], indices[j] = indices[j], indices[i]
	}

	drawn := make([]DrawnCard, n)
	for i := 0; i < n; i++ {
		upright := p.rng.Intn(2) == 0
		orientation := Upright
		if !upright {
			orientation = Inverted
		}
		drawn[i] = DrawnCard{
			Card:        p.cards[indices[i]],
			Upright:     upright,
			Orientation: orientation,
			Position:    PositionAt(i),
		}
	}
	return drawn
}
