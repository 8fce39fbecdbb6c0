package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coinchelab/coinched/internal/deck"
)

func card(code string) deck.Card {
	c, err := deck.Parse(code)
	if err != nil {
		panic(err)
	}
	return c
}

func cards(codes ...string) []deck.Card {
	out := make([]deck.Card, len(codes))
	for i, code := range codes {
		out[i] = card(code)
	}
	return out
}

func TestTrumpOrdering(t *testing.T) {
	// trump: J > 9 > A > 10 > K > Q > 8 > 7
	order := cards("JS", "9S", "AS", "10S", "KS", "QS", "8S", "7S")
	for i := 0; i < len(order)-1; i++ {
		assert.Greater(t, Strength(KindSpades, order[i]), Strength(KindSpades, order[i+1]),
			"%s should outrank %s as trump", order[i], order[i+1])
	}
}

func TestPlainOrdering(t *testing.T) {
	// non-trump: A > 10 > K > Q > J > 9 > 8 > 7
	order := cards("AH", "10H", "KH", "QH", "JH", "9H", "8H", "7H")
	for i := 0; i < len(order)-1; i++ {
		assert.Greater(t, Strength(KindSpades, order[i]), Strength(KindSpades, order[i+1]),
			"%s should outrank %s off trump", order[i], order[i+1])
	}
}

func TestCardPoints(t *testing.T) {
	assert.Equal(t, 20, Points(KindSpades, card("JS")))
	assert.Equal(t, 14, Points(KindSpades, card("9S")))
	assert.Equal(t, 2, Points(KindSpades, card("JH")))
	assert.Equal(t, 0, Points(KindSpades, card("9H")))
	assert.Equal(t, 11, Points(KindSpades, card("AS")))
	assert.Equal(t, 11, Points(KindSpades, card("AH")))

	// all-trump uses trump values everywhere, no-trump plain values everywhere
	assert.Equal(t, 20, Points(KindAllTrump, card("JH")))
	assert.Equal(t, 2, Points(KindNoTrump, card("JS")))
}

func TestDeckTotalsPerMode(t *testing.T) {
	total := func(k Kind) int {
		sum := 0
		for _, suit := range deck.Suits {
			for _, rank := range deck.Ranks {
				sum += Points(k, deck.NewCard(suit, rank))
			}
		}
		return sum
	}
	// one trump suit: 62 trump + 3×30 plain = 152
	assert.Equal(t, 152, total(KindSpades))
	assert.Equal(t, 152, total(KindHearts))
}

func TestTrickWinner(t *testing.T) {
	tests := []struct {
		name   string
		kind   Kind
		trick  []Play
		winner int
	}{
		{
			name: "highest of led suit wins without trump",
			kind: KindSpades,
			trick: []Play{
				{Seat: 0, Card: card("KH")},
				{Seat: 1, Card: card("AH")},
				{Seat: 2, Card: card("7H")},
				{Seat: 3, Card: card("QH")},
			},
			winner: 1,
		},
		{
			name: "any trump beats the led suit",
			kind: KindSpades,
			trick: []Play{
				{Seat: 0, Card: card("AH")},
				{Seat: 1, Card: card("7S")},
				{Seat: 2, Card: card("10H")},
				{Seat: 3, Card: card("KH")},
			},
			winner: 1,
		},
		{
			name: "highest trump wins among trumps",
			kind: KindSpades,
			trick: []Play{
				{Seat: 0, Card: card("AS")},
				{Seat: 1, Card: card("JS")},
				{Seat: 2, Card: card("9S")},
				{Seat: 3, Card: card("10S")},
			},
			winner: 1,
		},
		{
			name: "off-suit discard never wins",
			kind: KindNoTrump,
			trick: []Play{
				{Seat: 2, Card: card("7D")},
				{Seat: 3, Card: card("AH")},
				{Seat: 0, Card: card("8D")},
				{Seat: 1, Card: card("10D")},
			},
			winner: 1,
		},
		{
			name: "all-trump: only the led suit competes",
			kind: KindAllTrump,
			trick: []Play{
				{Seat: 1, Card: card("9D")},
				{Seat: 2, Card: card("JH")},
				{Seat: 3, Card: card("JD")},
				{Seat: 0, Card: card("AD")},
			},
			winner: 3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.winner, TrickWinner(tt.trick, tt.kind))
		})
	}
}

func TestLegalPlaysLeading(t *testing.T) {
	hand := cards("AS", "KH", "7D")
	legal := LegalPlays(hand, nil, KindSpades, 0)
	assert.ElementsMatch(t, hand, legal)
}

func TestLegalPlaysMustFollowSuit(t *testing.T) {
	hand := cards("KH", "7H", "AS", "7D")
	trick := []Play{{Seat: 0, Card: card("AH")}}
	legal := LegalPlays(hand, trick, KindSpades, 1)
	assert.ElementsMatch(t, cards("KH", "7H"), legal)
}

func TestLegalPlaysMustOvertrumpOnTrumpLead(t *testing.T) {
	// spades trump, 9S led: holder of JS and 7S must play the jack
	hand := cards("JS", "7S", "AH")
	trick := []Play{{Seat: 0, Card: card("9S")}}
	legal := LegalPlays(hand, trick, KindSpades, 1)
	assert.ElementsMatch(t, cards("JS"), legal)

	// unable to overtrump: any spade is fine
	hand = cards("KS", "7S", "AH")
	legal = LegalPlays(hand, trick, KindSpades, 1)
	assert.ElementsMatch(t, cards("KS", "7S"), legal)
}

func TestLegalPlaysVoidMustTrump(t *testing.T) {
	// void in hearts, holds trump: must cut
	hand := cards("7S", "KD", "QC")
	trick := []Play{{Seat: 0, Card: card("AH")}}
	legal := LegalPlays(hand, trick, KindSpades, 1)
	assert.ElementsMatch(t, cards("7S"), legal)
}

func TestLegalPlaysVoidMustOvertrumpExistingTrump(t *testing.T) {
	// a trump already lies in the trick: must go higher when able
	hand := cards("JS", "7S", "KD")
	trick := []Play{
		{Seat: 0, Card: card("AH")},
		{Seat: 1, Card: card("10S")},
	}
	legal := LegalPlays(hand, trick, KindSpades, 2)
	assert.ElementsMatch(t, cards("JS"), legal)

	// holding only lower trumps, still forced to play one
	hand = cards("8S", "7S", "KD")
	legal = LegalPlays(hand, trick, KindSpades, 2)
	assert.ElementsMatch(t, cards("8S", "7S"), legal)
}

func TestLegalPlaysPartnerWinningException(t *testing.T) {
	// seat 3's partner (seat 1) holds the trick: free discard allowed
	hand := cards("7S", "KD", "QC")
	trick := []Play{
		{Seat: 0, Card: card("KH")},
		{Seat: 1, Card: card("AH")},
		{Seat: 2, Card: card("7H")},
	}
	legal := LegalPlays(hand, trick, KindSpades, 3)
	assert.ElementsMatch(t, hand, legal)
}

func TestLegalPlaysVoidNoTrumpFreeDiscard(t *testing.T) {
	hand := cards("KD", "QC")
	trick := []Play{{Seat: 0, Card: card("AH")}}
	legal := LegalPlays(hand, trick, KindSpades, 1)
	assert.ElementsMatch(t, hand, legal)
}

func TestValidatePlay(t *testing.T) {
	hand := cards("KH", "7H", "AS")
	trick := []Play{{Seat: 0, Card: card("AH")}}

	require.Empty(t, ValidatePlay(hand, trick, KindSpades, 1, card("KH")))

	violations := ValidatePlay(hand, trick, KindSpades, 1, card("AS"))
	require.NotEmpty(t, violations)
	assert.Contains(t, violations[0], "must follow")

	violations = ValidatePlay(hand, trick, KindSpades, 1, card("QD"))
	assert.Equal(t, []string{"card not held"}, violations)
}

func TestTrickPoints(t *testing.T) {
	trick := []Play{
		{Seat: 0, Card: card("JS")}, // 20 trump
		{Seat: 1, Card: card("AH")}, // 11
		{Seat: 2, Card: card("10H")}, // 10
		{Seat: 3, Card: card("7D")}, // 0
	}
	assert.Equal(t, 41, TrickPoints(trick, KindSpades))
}
