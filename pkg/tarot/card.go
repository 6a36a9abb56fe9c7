package tarot

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RNG abstracts random number generation for deterministic testing.
type RNG interface {
	// Intn returns a non-negative random int in [0, n).
	Intn(n int) int
}

// Orientation of a drawn card.
type Orientation string

const (
	Upright  Orientation = "Upright"
	Inverted Orientation = "Inverted"
)

// Position is the slot a drawn card occupies in the spread.
type Position string

const (
	Past    Position = "Past"
	Present Position = "Present"
	Future  Position = "Future"
)

// Positions is the fixed ordered list assigned to cards in draw order.
var Positions = []Position{Past, Present, Future}

// PositionAt returns the label for the i-th drawn card (0-based).
// Draws beyond the three-card spread get a numbered slot.
func PositionAt(i int) Position {
	if i < len(Positions) {
		return Positions[i]
	}
	return Position(fmt.Sprintf("Position %d", i+1))
}

// Card is an immutable entry of the deck.
type Card struct {
	ID          int    `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	MajorArcana bool   `json:"majorArcana" yaml:"majorArcana"`
	ImageRef    string `json:"imageRef" yaml:"imageRef"`
}

// DrawnCard is a card that has been drawn as part of a reading.
type DrawnCard struct {
	Card
	Upright     bool        `json:"upright"`
	Orientation Orientation `json:"orientation"`
	Position    Position    `json:"position"`
}

// UnmarshalJSON resolves the orientation. An explicit orientation wins;
// without one an explicit "upright":false means Inverted and anything else
// Upright. Upright always mirrors the resolved orientation.
func (d *DrawnCard) UnmarshalJSON(b []byte) error {
	type plain DrawnCard
	var aux struct {
		plain
		Upright *bool `json:"upright"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*d = DrawnCard(aux.plain)
	switch {
	case d.Orientation != "":
	case aux.Upright != nil && !*aux.Upright:
		d.Orientation = Inverted
	default:
		d.Orientation = Upright
	}
	d.Upright = d.Orientation == Upright
	return nil
}

// Label renders the card the way prompts reference it, e.g. "La Torre - Invertida (Posición: Pasado)".
func (d DrawnCard) Label() string {
	return fmt.Sprintf("%s - %s (Posición: %s)", d.Name, d.Orientation.Spanish(), d.Position.Spanish())
}

// Spanish returns the display label used in generated readings.
func (o Orientation) Spanish() string {
	if o == Inverted {
		return "Invertida"
	}
	return "Derecha"
}

// Spanish returns the display label used in generated readings.
func (p Position) Spanish() string {
	switch p {
	case Past:
		return "Pasado"
	case Present:
		return "Presente"
	case Future:
		return "Futuro"
	default:
		return string(p)
	}
}

// UnmarshalText accepts English and Spanish labels so client-side draws can
// be sent as displayed.
func (o *Orientation) UnmarshalText(b []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(b))) {
	case "upright", "derecha", "":
		*o = Upright
	case "inverted", "reversed", "invertida":
		*o = Inverted
	default:
		return fmt.Errorf("unknown orientation %q", string(b))
	}
	return nil
}

// UnmarshalText maps Spanish position labels onto the canonical ones.
// Unrecognised labels are kept verbatim.
func (p *Position) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	switch strings.ToLower(s) {
	case "past", "pasado":
		*p = Past
	case "present", "presente":
		*p = Present
	case "future", "futuro":
		*p = Future
	default:
		*p = Position(s)
	}
	return nil
}
