// Package rules implements the coinche rules kernel: card ordering, bid
// and play legality, trick resolution, and round scoring. Everything in
// this package is a pure function over plain values so that legality and
// scoring laws can be tested against generated hands.
package rules

import (
	"fmt"

	"github.com/coinchelab/coinched/internal/deck"
)

// NumSeats is the fixed table size for coinche.
const NumSeats = 4

// MinBid is the lowest value an opening bid may carry.
const MinBid = 80

// Team identifies one of the two fixed partnerships. Seats 0 and 2 are
// TeamA, seats 1 and 3 are TeamB.
type Team int

const (
	TeamA Team = iota
	TeamB
)

// String returns the string representation of a team
func (t Team) String() string {
	switch t {
	case TeamA:
		return "A"
	case TeamB:
		return "B"
	default:
		return "?"
	}
}

// Other returns the opposing team.
func (t Team) Other() Team {
	return 1 - t
}

// TeamOf returns the team a seat belongs to.
func TeamOf(seat int) Team {
	return Team(seat % 2)
}

// Partner returns the seat of a seat's partner, always two seats apart.
func Partner(seat int) int {
	return (seat + 2) % NumSeats
}

// NextSeat returns the seat one position clockwise.
func NextSeat(seat int) int {
	return (seat + 1) % NumSeats
}

// Kind is a contract kind: one of the four trump suits, no-trump, or
// all-trump. The declaration order is the bidding priority order.
type Kind int

const (
	KindClubs Kind = iota
	KindDiamonds
	KindHearts
	KindSpades
	KindNoTrump
	KindAllTrump
)

// Kinds lists all contract kinds in priority order.
var Kinds = []Kind{KindClubs, KindDiamonds, KindHearts, KindSpades, KindNoTrump, KindAllTrump}

// SuitKind returns the contract kind naming the given suit as trump.
func SuitKind(s deck.Suit) Kind {
	return Kind(int(s))
}

// String returns the wire representation of a contract kind
func (k Kind) String() string {
	switch k {
	case KindClubs:
		return "clubs"
	case KindDiamonds:
		return "diamonds"
	case KindHearts:
		return "hearts"
	case KindSpades:
		return "spades"
	case KindNoTrump:
		return "no-trump"
	case KindAllTrump:
		return "all-trump"
	default:
		return "?"
	}
}

// ParseKind decodes a wire representation produced by String.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown contract kind %q", s)
}

// Priority returns the bidding priority of the kind; a bid at equal
// value must carry strictly higher priority to dominate.
func (k Kind) Priority() int {
	return int(k)
}

// TrumpSuit returns the trump suit for a suited contract. The second
// return is false for no-trump and all-trump.
func (k Kind) TrumpSuit() (deck.Suit, bool) {
	if k >= KindClubs && k <= KindSpades {
		return deck.Suit(int(k)), true
	}
	return 0, false
}

// IsTrump reports whether cards of the given suit count as trump under
// this contract kind.
func (k Kind) IsTrump(s deck.Suit) bool {
	if k == KindAllTrump {
		return true
	}
	trump, ok := k.TrumpSuit()
	return ok && trump == s
}

// Contract is a resolved bidding outcome.
type Contract struct {
	Kind      Kind `json:"kind"`
	Value     int  `json:"value"`
	Doubled   bool `json:"doubled"`
	Redoubled bool `json:"redoubled"`
	Team      Team `json:"team"`
}

// Multiplier returns the stake multiplier implied by coinche state.
func (c Contract) Multiplier() int {
	switch {
	case c.Redoubled:
		return 4
	case c.Doubled:
		return 2
	default:
		return 1
	}
}
