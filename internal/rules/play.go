package rules

import "github.com/coinchelab/coinched/internal/deck"

// Play is one card laid into the current trick.
type Play struct {
	Seat int       `json:"seat"`
	Card deck.Card `json:"card"`
}

// LedSuit returns the suit led by the first card of the trick.
func LedSuit(trick []Play) (deck.Suit, bool) {
	if len(trick) == 0 {
		return 0, false
	}
	return trick[0].Card.Suit, true
}

// WinningPlay resolves the play currently winning the (possibly partial)
// trick. If any trump lies in the trick the strongest trump wins,
// otherwise the strongest card of the led suit. Under all-trump only
// led-suit cards compete since off-suit cards never beat the led suit.
func WinningPlay(trick []Play, k Kind) (Play, bool) {
	if len(trick) == 0 {
		return Play{}, false
	}
	led := trick[0].Card.Suit

	best := trick[0]
	for _, p := range trick[1:] {
		if beats(k, led, p.Card, best.Card) {
			best = p
		}
	}
	return best, true
}

// beats reports whether challenger beats incumbent given the led suit.
func beats(k Kind, led deck.Suit, challenger, incumbent deck.Card) bool {
	if k == KindAllTrump {
		// every suit is trump, but only the led suit competes
		if challenger.Suit != incumbent.Suit {
			return false
		}
		return Strength(k, challenger) > Strength(k, incumbent)
	}

	chTrump := k.IsTrump(challenger.Suit)
	inTrump := k.IsTrump(incumbent.Suit)
	switch {
	case chTrump && !inTrump:
		return true
	case !chTrump && inTrump:
		return false
	case chTrump && inTrump:
		return Strength(k, challenger) > Strength(k, incumbent)
	default:
		if challenger.Suit != led {
			return false
		}
		if incumbent.Suit != led {
			return true
		}
		return Strength(k, challenger) > Strength(k, incumbent)
	}
}

// TrickWinner returns the seat winning a complete trick.
func TrickWinner(trick []Play, k Kind) int {
	winner, _ := WinningPlay(trick, k)
	return winner.Seat
}

// TrickPoints sums the card point values in a trick under the contract.
func TrickPoints(trick []Play, k Kind) int {
	total := 0
	for _, p := range trick {
		total += Points(k, p.Card)
	}
	return total
}

// LegalPlays enumerates the cards the seat may legally play from hand
// into the current trick.
//
// Follow-suit: a player holding the led suit must play it, and when the
// led suit is trump must overtrump the strongest trump in the trick if
// able. A player void in the led suit must trump (and overtrump if
// able) unless their partner is currently winning the trick, in which
// case any discard is allowed.
func LegalPlays(hand []deck.Card, trick []Play, k Kind, seat int) []deck.Card {
	if len(trick) == 0 {
		return append([]deck.Card(nil), hand...)
	}

	led := trick[0].Card.Suit
	ofLed := filterSuit(hand, led)

	if len(ofLed) > 0 {
		if !k.IsTrump(led) {
			return ofLed
		}
		// led suit is trump: overtrump if able
		if higher := strongerThanBest(ofLed, trick, k, led); len(higher) > 0 {
			return higher
		}
		return ofLed
	}

	// void in the led suit
	if winner, ok := WinningPlay(trick, k); ok && winner.Seat == Partner(seat) {
		return append([]deck.Card(nil), hand...)
	}

	if k == KindAllTrump || k == KindNoTrump {
		// all-trump: off-suit cards never win, so any discard stands;
		// no-trump: there is no trump to cut with
		return append([]deck.Card(nil), hand...)
	}

	trumpSuit, _ := k.TrumpSuit()
	trumps := filterSuit(hand, trumpSuit)
	if len(trumps) == 0 {
		return append([]deck.Card(nil), hand...)
	}
	if higher := strongerThanBest(trumps, trick, k, trumpSuit); len(higher) > 0 {
		return higher
	}
	return trumps
}

// ValidatePlay checks a single card against LegalPlays and returns the
// violations explaining an illegal choice.
func ValidatePlay(hand []deck.Card, trick []Play, k Kind, seat int, card deck.Card) []string {
	held := false
	for _, c := range hand {
		if c == card {
			held = true
			break
		}
	}
	if !held {
		return []string{"card not held"}
	}

	legal := LegalPlays(hand, trick, k, seat)
	for _, c := range legal {
		if c == card {
			return nil
		}
	}

	led, _ := LedSuit(trick)
	if card.Suit != led && len(filterSuit(hand, led)) > 0 {
		return []string{"must follow " + led.String()}
	}
	if trumpSuit, ok := k.TrumpSuit(); ok && card.Suit != trumpSuit && len(filterSuit(hand, trumpSuit)) > 0 {
		return []string{"must play trump"}
	}
	return []string{"must overtrump"}
}

func filterSuit(cards []deck.Card, suit deck.Suit) []deck.Card {
	var out []deck.Card
	for _, c := range cards {
		if c.Suit == suit {
			out = append(out, c)
		}
	}
	return out
}

// strongerThanBest returns the candidates of the given trump suit that
// beat the strongest same-suit card already in the trick. When the
// trick holds no card of that suit all candidates qualify.
func strongerThanBest(candidates []deck.Card, trick []Play, k Kind, suit deck.Suit) []deck.Card {
	best := 0
	for _, p := range trick {
		if p.Card.Suit == suit {
			if s := Strength(k, p.Card); s > best {
				best = s
			}
		}
	}
	if best == 0 {
		return candidates
	}
	var out []deck.Card
	for _, c := range candidates {
		if Strength(k, c) > best {
			out = append(out, c)
		}
	}
	return out
}
