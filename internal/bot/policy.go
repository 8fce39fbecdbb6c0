// Package bot drives AI-controlled seats: a policy choosing legal
// actions from a hand snapshot and a scheduler that fires them after a
// bounded thinking delay.
package bot

import (
	rand "math/rand/v2"

	"github.com/coinchelab/coinched/internal/deck"
	"github.com/coinchelab/coinched/internal/rules"
)

// openProbability is the chance a strong hand opens the auction.
const openProbability = 0.2

// minHighCards is the number of high cards (A, 10, K, J) a hand needs
// before the bot considers opening.
const minHighCards = 4

// Policy chooses bot actions. It is stateless apart from its random
// source, which is guarded by the driver.
type Policy struct {
	rng *rand.Rand
}

// NewPolicy creates a policy drawing randomness from rng.
func NewPolicy(rng *rand.Rand) *Policy {
	return &Policy{rng: rng}
}

// Bid evaluates the hand during the auction. It returns the chosen
// opening bid, or ok=false to pass. Bots never open over a standing
// bid and never coinche.
func (p *Policy) Bid(hand []deck.Card, hasCurrentBid bool) (rules.Kind, int, bool) {
	if hasCurrentBid {
		return 0, 0, false
	}
	high := 0
	for _, c := range hand {
		switch c.Rank {
		case deck.Ace, deck.Ten, deck.King, deck.Jack:
			high++
		}
	}
	if high < minHighCards || p.rng.Float64() >= openProbability {
		return 0, 0, false
	}
	suit := deck.Suits[p.rng.IntN(len(deck.Suits))]
	return rules.SuitKind(suit), rules.MinBid, true
}

// Play picks a card: the strongest legal card of the strongest suit on
// a lead, the cheapest legal card when the partner already holds the
// trick, otherwise the strongest legal card.
func (p *Policy) Play(hand []deck.Card, trick []rules.Play, k rules.Kind, seat int) deck.Card {
	legal := rules.LegalPlays(hand, trick, k, seat)

	if len(trick) == 0 {
		return p.strongestLead(legal, k)
	}
	if winner, ok := rules.WinningPlay(trick, k); ok && winner.Seat == rules.Partner(seat) {
		return weakest(legal, k)
	}
	return strongest(legal, k)
}

// strongestLead groups the legal cards by suit, leads from the suit
// with the most combined strength, and plays its top card.
func (p *Policy) strongestLead(legal []deck.Card, k rules.Kind) deck.Card {
	bySuit := map[deck.Suit][]deck.Card{}
	for _, c := range legal {
		bySuit[c.Suit] = append(bySuit[c.Suit], c)
	}

	var bestSuit deck.Suit
	bestWeight := -1
	for _, suit := range deck.Suits {
		cards, ok := bySuit[suit]
		if !ok {
			continue
		}
		weight := 0
		for _, c := range cards {
			weight += rules.Strength(k, c)
		}
		if weight > bestWeight {
			bestWeight = weight
			bestSuit = suit
		}
	}
	return strongest(bySuit[bestSuit], k)
}

func strongest(cards []deck.Card, k rules.Kind) deck.Card {
	best := cards[0]
	for _, c := range cards[1:] {
		if rules.Strength(k, c) > rules.Strength(k, best) {
			best = c
		}
	}
	return best
}

func weakest(cards []deck.Card, k rules.Kind) deck.Card {
	best := cards[0]
	for _, c := range cards[1:] {
		if rules.Strength(k, c) < rules.Strength(k, best) {
			best = c
		}
	}
	return best
}
