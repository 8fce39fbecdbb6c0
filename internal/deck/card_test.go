package deck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCardString(t *testing.T) {
	tests := []struct {
		card     Card
		expected string
	}{
		{NewCard(Spades, Ace), "A♠"},
		{NewCard(Hearts, Ten), "10♥"},
		{NewCard(Diamonds, Seven), "7♦"},
		{NewCard(Clubs, Jack), "J♣"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.card.String())
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in       string
		expected Card
	}{
		{"AS", NewCard(Spades, Ace)},
		{"as", NewCard(Spades, Ace)},
		{"10H", NewCard(Hearts, Ten)},
		{"7D", NewCard(Diamonds, Seven)},
		{"J♣", NewCard(Clubs, Jack)},
		{" QC ", NewCard(Clubs, Queen)},
	}
	for _, tt := range tests {
		card, err := Parse(tt.in)
		require.NoError(t, err, "parsing %q", tt.in)
		assert.Equal(t, tt.expected, card)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "A", "ZZ", "1S", "AX", "11H"} {
		_, err := Parse(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestParseRoundTripsCode(t *testing.T) {
	for _, suit := range Suits {
		for _, rank := range Ranks {
			card := NewCard(suit, rank)
			parsed, err := Parse(card.Code())
			require.NoError(t, err)
			assert.Equal(t, card, parsed)
		}
	}
}
