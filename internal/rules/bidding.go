package rules

import "fmt"

// Bid is a value bid placed during the auction.
type Bid struct {
	Seat  int  `json:"seat"`
	Kind  Kind `json:"kind"`
	Value int  `json:"value"`
}

// Dominates reports whether next strictly dominates prev: higher value,
// or equal value at strictly higher priority.
func Dominates(prev, next Bid) bool {
	if next.Value != prev.Value {
		return next.Value > prev.Value
	}
	return next.Kind.Priority() > prev.Kind.Priority()
}

// ValidateBid checks the legality of a bid against the standing bid
// (nil for an opening bid) and returns the list of violations, empty
// when the bid is legal. closed is true once a coinche or surcoinche
// has ended the auction.
func ValidateBid(prev *Bid, next Bid, closed bool) []string {
	var violations []string
	if closed {
		violations = append(violations, "bidding is closed")
	}
	if prev == nil {
		if next.Value < MinBid {
			violations = append(violations, fmt.Sprintf("opening bid must be at least %d", MinBid))
		}
		return violations
	}
	if !Dominates(*prev, next) {
		violations = append(violations, fmt.Sprintf("bid must beat %d %s", prev.Value, prev.Kind))
	}
	return violations
}

// ValidateDouble checks the legality of a coinche. There must be a live
// bid, not already doubled, and the caller must oppose the declarer.
func ValidateDouble(current *Bid, doubled bool, closed bool, callerSeat int) []string {
	var violations []string
	switch {
	case closed:
		violations = append(violations, "bidding is closed")
	case current == nil:
		violations = append(violations, "no bid to double")
	case doubled:
		violations = append(violations, "bid is already doubled")
	case TeamOf(callerSeat) == TeamOf(current.Seat):
		violations = append(violations, "cannot double your own team's bid")
	}
	return violations
}

// ValidateRedouble checks the legality of a surcoinche. The bid must be
// doubled, not redoubled, and the caller must be on the declaring team.
func ValidateRedouble(current *Bid, doubled, redoubled bool, callerSeat int) []string {
	var violations []string
	switch {
	case current == nil:
		violations = append(violations, "no bid to redouble")
	case !doubled:
		violations = append(violations, "bid has not been doubled")
	case redoubled:
		violations = append(violations, "bid is already redoubled")
	case TeamOf(callerSeat) != TeamOf(current.Seat):
		violations = append(violations, "only the declaring team may redouble")
	}
	return violations
}
