package rules

import "github.com/coinchelab/coinched/internal/deck"

// Trump and non-trump rank tables. Strength is comparison order within a
// suit (higher beats lower); points are the card values summed for
// scoring. Under all-trump every card uses the trump tables, under
// no-trump every card uses the plain tables.

var trumpStrength = map[deck.Rank]int{
	deck.Jack:  8,
	deck.Nine:  7,
	deck.Ace:   6,
	deck.Ten:   5,
	deck.King:  4,
	deck.Queen: 3,
	deck.Eight: 2,
	deck.Seven: 1,
}

var plainStrength = map[deck.Rank]int{
	deck.Ace:   8,
	deck.Ten:   7,
	deck.King:  6,
	deck.Queen: 5,
	deck.Jack:  4,
	deck.Nine:  3,
	deck.Eight: 2,
	deck.Seven: 1,
}

var trumpPoints = map[deck.Rank]int{
	deck.Jack:  20,
	deck.Nine:  14,
	deck.Ace:   11,
	deck.Ten:   10,
	deck.King:  4,
	deck.Queen: 3,
	deck.Eight: 0,
	deck.Seven: 0,
}

var plainPoints = map[deck.Rank]int{
	deck.Ace:   11,
	deck.Ten:   10,
	deck.King:  4,
	deck.Queen: 3,
	deck.Jack:  2,
	deck.Nine:  0,
	deck.Eight: 0,
	deck.Seven: 0,
}

// Strength returns the within-suit comparison order of a card under the
// given contract kind.
func Strength(k Kind, c deck.Card) int {
	if k.IsTrump(c.Suit) {
		return trumpStrength[c.Rank]
	}
	return plainStrength[c.Rank]
}

// Points returns the point value of a card under the given contract kind.
func Points(k Kind, c deck.Card) int {
	if k.IsTrump(c.Suit) {
		return trumpPoints[c.Rank]
	}
	return plainPoints[c.Rank]
}
