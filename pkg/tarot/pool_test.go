package tarot_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tarot-oracle-be/pkg/tarot"
)

// deterministicRNG returns values from a pre-set sequence.
type deterministicRNG struct {
	values []int
	idx    int
}

func (r *deterministicRNG) Intn(n int) int {
	v := r.values[r.idx%len(r.values)] % n
	r.idx++
	return v
}

func testCards(n int) []tarot.Card {
	cards := make([]tarot.Card, n)
	for i := range n {
		cards[i] = tarot.Card{ID: i, Name: "Card " + string(rune('A'+i))}
	}
	return cards
}

func TestNewStandardPool(t *testing.T) {
	pool, err := tarot.NewStandardPool(tarot.StdRNG{})
	require.NoError(t, err)
	assert.Equal(t, 78, pool.Size())

	majors := 0
	ids := make(map[int]bool)
	for _, c := range pool.Cards() {
		if c.MajorArcana {
			majors++
		}
		assert.False(t, ids[c.ID], "duplicate id %d", c.ID)
		ids[c.ID] = true
		assert.NotEmpty(t, c.Name)
		assert.NotEmpty(t, c.ImageRef)
	}
	assert.Equal(t, 22, majors)
}

func TestDraw_DistinctCards(t *testing.T) {
	pool, err := tarot.NewStandardPool(tarot.StdRNG{})
	require.NoError(t, err)

	for n := 1; n <= pool.Size(); n++ {
		drawn := pool.Draw(n)
		require.Len(t, drawn, n)

		seen := make(map[int]bool, n)
		for _, c := range drawn {
			if seen[c.ID] {
				t.Fatalf("n=%d: duplicate card id %d", n, c.ID)
			}
			seen[c.ID] = true
		}
	}
}

func TestDraw_PositionsInDrawOrder(t *testing.T) {
	pool := tarot.NewPool(testCards(10), &deterministicRNG{values: []int{0}})

	drawn := pool.Draw(3)
	got := []tarot.Position{drawn[0].Position, drawn[1].Position, drawn[2].Position}
	if diff := cmp.Diff([]tarot.Position{tarot.Past, tarot.Present, tarot.Future}, got); diff != "" {
		t.Errorf("positions mismatch (-want +got):\n%s", diff)
	}
}

func TestDraw_Orientation(t *testing.T) {
	// three shuffle picks, then orientation coin flips: 0=upright, 1=inverted
	rng := &deterministicRNG{values: []int{0, 0, 0, 0, 1, 0}}
	pool := tarot.NewPool(testCards(5), rng)

	drawn := pool.Draw(3)
	want := []tarot.Orientation{tarot.Upright, tarot.Inverted, tarot.Upright}
	for i, c := range drawn {
		assert.Equal(t, want[i], c.Orientation, "card %d", i)
		assert.Equal(t, c.Orientation == tarot.Upright, c.Upright, "card %d", i)
	}
}

func TestDraw_ExceedsDeck(t *testing.T) {
	pool := tarot.NewPool(testCards(2), tarot.StdRNG{})

	drawn := pool.Draw(5)
	assert.Len(t, drawn, 2)
	assert.Equal(t, tarot.Past, drawn[0].Position)
	assert.Equal(t, tarot.Present, drawn[1].Position)
}

func TestDraw_NonPositive(t *testing.T) {
	pool := tarot.NewPool(testCards(5), tarot.StdRNG{})
	assert.Empty(t, pool.Draw(0))
	assert.Empty(t, pool.Draw(-1))
}

func TestDraw_DoesNotMutateDeck(t *testing.T) {
	pool := tarot.NewPool(testCards(5), tarot.StdRNG{})
	before := pool.Cards()
	pool.Draw(5)
	assert.Equal(t, before, pool.Cards())
}

func TestPositionAt_BeyondSpread(t *testing.T) {
	assert.Equal(t, tarot.Position("Position 4"), tarot.PositionAt(3))
}

func TestDrawnCard_Label(t *testing.T) {
	c := tarot.DrawnCard{
		Card:        tarot.Card{Name: "La Torre"},
		Orientation: tarot.Inverted,
		Position:    tarot.Past,
	}
	assert.Equal(t, "La Torre - Invertida (Posición: Pasado)", c.Label())
}
