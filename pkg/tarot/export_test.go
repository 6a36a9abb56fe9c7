package tarot

func (p *Pool) Size() int {
	return len(p.cards)
}

func (p *Pool) Cards() []Card {
	cp := make([]Card, len(p.cards))
	copy(cp, p.cards)
	return cp
}
