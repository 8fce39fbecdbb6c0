package game

import (
	"time"

	"github.com/coinchelab/coinched/internal/deck"
	"github.com/coinchelab/coinched/internal/rules"
)

// Event payloads. These are the typed bodies carried inside the event
// fabric's envelopes; the transport serializes them as-is.

// RoundStartedPayload announces a fresh deal.
type RoundStartedPayload struct {
	Round  int `json:"round"`
	Dealer int `json:"dealer"`
	Leader int `json:"leader"`
}

// HandDealtPayload is private to one seat and carries its fresh hand.
type HandDealtPayload struct {
	Seat        int         `json:"seat"`
	Cards       []deck.Card `json:"cards"`
	HandVersion int         `json:"handVersion"`
}

// BidPlacedPayload records an accepted value bid.
type BidPlacedPayload struct {
	Seat   int        `json:"seat"`
	Player string     `json:"player"`
	Kind   rules.Kind `json:"kind"`
	Value  int        `json:"value"`
}

// BidPassedPayload records a pass and the running pass count.
type BidPassedPayload struct {
	Seat   int    `json:"seat"`
	Player string `json:"player"`
	Passes int    `json:"passes"`
}

// BidDoubledPayload records a coinche or surcoinche.
type BidDoubledPayload struct {
	Seat   int    `json:"seat"`
	Player string `json:"player"`
}

// ContractFinalizedPayload announces the resolved contract.
type ContractFinalizedPayload struct {
	Contract rules.Contract `json:"contract"`
}

// RedealRequiredPayload announces four passes with no standing bid.
type RedealRequiredPayload struct {
	Dealer int `json:"dealer"` // the dealer whose deal is thrown in
}

// MoveAcceptedPayload is the public record of an accepted card play.
type MoveAcceptedPayload struct {
	MoveID string    `json:"moveId"`
	Seat   int       `json:"seat"`
	Player string    `json:"player"`
	Card   deck.Card `json:"card"`
}

// HandUpdatedPayload is private to one seat after its hand changed.
type HandUpdatedPayload struct {
	Seat        int         `json:"seat"`
	Cards       []deck.Card `json:"cards"`
	HandVersion int         `json:"handVersion"`
}

// TrickCompletedPayload records a resolved trick.
type TrickCompletedPayload struct {
	TrickNumber int          `json:"trickNumber"`
	Plays       []rules.Play `json:"plays"`
	Winner      int          `json:"winner"`
	Points      int          `json:"points"`
}

// TurnChangedPayload announces the seat now permitted to act.
type TurnChangedPayload struct {
	Seat   int    `json:"seat"`
	Player string `json:"player"`
	Phase  Phase  `json:"phase"`
}

// RoundCompletedPayload carries the round settlement and the cumulative
// scores after it was applied. Replays fold these to reconstruct the
// final score.
type RoundCompletedPayload struct {
	Round      int               `json:"round"`
	Contract   rules.Contract    `json:"contract"`
	Result     rules.RoundResult `json:"result"`
	Cumulative [2]int            `json:"cumulative"`
}

// GameCompletedPayload announces the end of the game.
type GameCompletedPayload struct {
	Winner     rules.Team `json:"winner"`
	Cumulative [2]int     `json:"cumulative"`
}

// GameCancelledPayload carries the externally supplied reason.
type GameCancelledPayload struct {
	Reason string `json:"reason"`
}

// GameAbortedPayload reports a fatal internal invariant violation.
type GameAbortedPayload struct {
	Reason string `json:"reason"`
}

// MoveInvalidatedPayload surfaces a tournament-operator invalidation.
type MoveInvalidatedPayload struct {
	MoveID string    `json:"moveId"`
	Admin  string    `json:"admin"`
	At     time.Time `json:"at"`
}
