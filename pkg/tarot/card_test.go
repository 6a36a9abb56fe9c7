package tarot

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrawnCard_UnmarshalSpanishLabels(t *testing.T) {
	var cards []DrawnCard
	raw := `[
		{"id":16,"name":"La Torre","orientation":"Invertida","position":"Pasado"},
		{"id":0,"name":"El Loco","upright":true,"orientation":"Derecha","position":"presente"},
		{"id":19,"name":"El Sol","orientation":"reversed","position":"Future"}
	]`
	require.NoError(t, json.Unmarshal([]byte(raw), &cards))

	assert.Equal(t, Inverted, cards[0].Orientation)
	assert.Equal(t, Past, cards[0].Position)
	assert.Equal(t, Upright, cards[1].Orientation)
	assert.Equal(t, Present, cards[1].Position)
	assert.Equal(t, Inverted, cards[2].Orientation)
	assert.Equal(t, Future, cards[2].Position)
}

func TestDrawnCard_UnmarshalUprightFlag(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Orientation
	}{
		{"flag false without orientation", `{"name":"La Luna","upright":false}`, Inverted},
		{"flag true without orientation", `{"name":"La Luna","upright":true}`, Upright},
		{"neither field", `{"name":"La Luna"}`, Upright},
		{"orientation wins over flag", `{"name":"La Luna","upright":false,"orientation":"Derecha"}`, Upright},
		{"inverted orientation with stale flag", `{"name":"La Luna","upright":true,"orientation":"invertida"}`, Inverted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d DrawnCard
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &d))
			assert.Equal(t, "La Luna", d.Name)
			assert.Equal(t, tt.want, d.Orientation)
			assert.Equal(t, tt.want == Upright, d.Upright)
		})
	}
}

func TestOrientation_UnmarshalUnknown(t *testing.T) {
	var d DrawnCard
	assert.Error(t, json.Unmarshal([]byte(`{"orientation":"sideways"}`), &d))
}

func TestPosition_UnmarshalKeepsUnknown(t *testing.T) {
	var d DrawnCard
	require.NoError(t, json.Unmarshal([]byte(`{"position":"Posición 4"}`), &d))
	assert.Equal(t, Position("Posición 4"), d.Position)
}
