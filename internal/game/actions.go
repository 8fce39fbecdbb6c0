package game

import (
	"time"

	"github.com/coinchelab/coinched/internal/deck"
	"github.com/coinchelab/coinched/internal/events"
	"github.com/coinchelab/coinched/internal/gameid"
	"github.com/coinchelab/coinched/internal/rules"
)

// Request identifies the caller of a player action. ClientActionID is
// the caller-chosen idempotency key; a repeated id returns the stored
// MoveResult without touching the game. ExpectedVersion, when non-zero,
// enables the optimistic concurrency check (every post-deal version is
// at least 1, so zero is unambiguous).
type Request struct {
	Player          string
	ClientActionID  string
	ExpectedVersion uint64
	SystemGenerated bool
}

// MoveResult is returned from every accepted player action.
type MoveResult struct {
	MoveID          string    `json:"moveId"`
	ClientActionID  string    `json:"clientActionId,omitempty"`
	Status          string    `json:"status"`
	TurnID          string    `json:"turnId"`
	StateVersion    uint64    `json:"stateVersion"`
	Effects         []string  `json:"effects"`
	SystemGenerated bool      `json:"systemGenerated,omitempty"`
	OccurredAt      time.Time `json:"occurredAt"`
}

// prologueLocked runs the shared action preconditions. A non-nil
// MoveResult is an idempotency replay.
func (g *Game) prologueLocked(req Request, phase Phase) (*MoveResult, int, *Error) {
	if req.ClientActionID != "" {
		if prior, ok := g.idem[req.ClientActionID]; ok {
			return &prior, 0, nil
		}
	}
	seat, ok := g.seatOf(req.Player)
	if !ok {
		return nil, 0, &Error{Kind: KindUnauthorized, Message: "caller is not seated in this game", CurrentVersion: g.version}
	}
	if g.phase != phase {
		return nil, 0, forbidden(g.version, "action requires phase %s, game is %s", phase, g.phase)
	}
	if req.ExpectedVersion != 0 && req.ExpectedVersion != g.version {
		return nil, 0, versionConflict(g.version)
	}
	return nil, seat, nil
}

// commitLocked finalizes an accepted mutation: builds the MoveResult,
// stores it under the idempotency key, and leaves the version where the
// mutation drove it.
func (g *Game) commitLocked(req Request, moveID string, effects []events.Type) MoveResult {
	names := make([]string, len(effects))
	for i, e := range effects {
		names[i] = e.String()
	}
	res := MoveResult{
		MoveID:          moveID,
		ClientActionID:  req.ClientActionID,
		Status:          "accepted",
		TurnID:          g.seats[g.turn].Player,
		StateVersion:    g.version,
		Effects:         names,
		SystemGenerated: req.SystemGenerated,
		OccurredAt:      g.clock.Now(),
	}
	if req.ClientActionID != "" {
		g.idem[req.ClientActionID] = res
	}
	return res
}

// SubmitBid places a value bid for the seat on turn.
func (g *Game) SubmitBid(req Request, kind rules.Kind, value int) (MoveResult, error) {
	g.mu.Lock()
	replay, seat, perr := g.prologueLocked(req, PhaseBidding)
	if replay != nil {
		g.mu.Unlock()
		return *replay, nil
	}
	if perr != nil {
		g.mu.Unlock()
		return MoveResult{}, perr
	}
	if seat != g.turn {
		v := g.version
		g.mu.Unlock()
		return MoveResult{}, forbidden(v, "not %s's turn to bid", req.Player)
	}

	bid := rules.Bid{Seat: seat, Kind: kind, Value: value}
	if violations := rules.ValidateBid(g.bidding.Current, bid, false); len(violations) > 0 {
		v := g.version
		g.mu.Unlock()
		return MoveResult{}, illegalMove(v, violations...)
	}

	g.bump()
	g.bidding.Current = &bid
	g.bidding.Passes = 0
	g.bidding.Log = append(g.bidding.Log, BidEntry{Seat: seat, Action: "bid", Kind: kind, Value: value, At: g.clock.Now()})
	g.turn = rules.NextSeat(seat)

	effects := []events.Type{
		g.emit(events.TypeBidPlaced, BidPlacedPayload{Seat: seat, Player: req.Player, Kind: kind, Value: value}, ""),
	}
	g.emitTurnLocked()
	effects = append(effects, events.TypeTurnChanged)

	res := g.commitLocked(req, gameid.New(gameid.PrefixMove), effects)
	g.mu.Unlock()

	g.notifyChange()
	return res, nil
}

// SubmitPass records a pass. Four passes with no standing bid throw the
// deal in; three passes behind a standing bid freeze it as the winning
// bid and open play.
func (g *Game) SubmitPass(req Request) (MoveResult, error) {
	g.mu.Lock()
	replay, seat, perr := g.prologueLocked(req, PhaseBidding)
	if replay != nil {
		g.mu.Unlock()
		return *replay, nil
	}
	if perr != nil {
		g.mu.Unlock()
		return MoveResult{}, perr
	}
	if seat != g.turn {
		v := g.version
		g.mu.Unlock()
		return MoveResult{}, forbidden(v, "not %s's turn to bid", req.Player)
	}

	g.bump()
	g.bidding.Passes++
	g.bidding.Log = append(g.bidding.Log, BidEntry{Seat: seat, Action: "pass", At: g.clock.Now()})
	g.turn = rules.NextSeat(seat)
	passes := g.bidding.Passes

	effects := []events.Type{
		g.emit(events.TypeBidPassed, BidPassedPayload{Seat: seat, Player: req.Player, Passes: passes}, ""),
	}

	switch {
	case g.bidding.Current == nil && passes == rules.NumSeats:
		g.redealLocked()
		effects = append(effects, events.TypeRedealRequired, events.TypeRoundStarted)
	case g.bidding.Current != nil && passes == rules.NumSeats-1:
		g.bump()
		g.finalizeContractLocked(g.bidding.Doubled, g.bidding.Redoubled)
		effects = append(effects, events.TypeContractFinal, events.TypeTurnChanged)
	default:
		g.emitTurnLocked()
		effects = append(effects, events.TypeTurnChanged)
	}

	res := g.commitLocked(req, gameid.New(gameid.PrefixMove), effects)
	g.mu.Unlock()

	g.notifyChange()
	return res, nil
}

// SubmitCoinche doubles the standing bid. It is legal out of turn; it
// closes the auction immediately and opens play.
func (g *Game) SubmitCoinche(req Request) (MoveResult, error) {
	g.mu.Lock()
	replay, seat, perr := g.prologueLocked(req, PhaseBidding)
	if replay != nil {
		g.mu.Unlock()
		return *replay, nil
	}
	if perr != nil {
		g.mu.Unlock()
		return MoveResult{}, perr
	}

	if violations := rules.ValidateDouble(g.bidding.Current, g.bidding.Doubled, false, seat); len(violations) > 0 {
		v := g.version
		g.mu.Unlock()
		return MoveResult{}, illegalMove(v, violations...)
	}

	g.bump()
	g.bidding.Doubled = true
	g.bidding.DoubledBy = seat
	g.bidding.Log = append(g.bidding.Log, BidEntry{Seat: seat, Action: "coinche", At: g.clock.Now()})

	effects := []events.Type{
		g.emit(events.TypeBidDoubled, BidDoubledPayload{Seat: seat, Player: req.Player}, ""),
	}
	g.bump()
	g.finalizeContractLocked(true, false)
	effects = append(effects, events.TypeContractFinal, events.TypeTurnChanged)

	res := g.commitLocked(req, gameid.New(gameid.PrefixMove), effects)
	g.mu.Unlock()

	g.notifyChange()
	return res, nil
}

// SubmitSurcoinche redoubles a doubled contract. Because a coinche
// closes the auction, the redouble window runs from the coinche until
// the first card of the round is played, by either side.
func (g *Game) SubmitSurcoinche(req Request) (MoveResult, error) {
	g.mu.Lock()
	if req.ClientActionID != "" {
		if prior, ok := g.idem[req.ClientActionID]; ok {
			g.mu.Unlock()
			return prior, nil
		}
	}
	seat, ok := g.seatOf(req.Player)
	if !ok {
		v := g.version
		g.mu.Unlock()
		return MoveResult{}, &Error{Kind: KindUnauthorized, Message: "caller is not seated in this game", CurrentVersion: v}
	}
	if g.phase != PhasePlaying || g.contract == nil || len(g.trick) > 0 || len(g.completed) > 0 {
		v := g.version
		g.mu.Unlock()
		return MoveResult{}, forbidden(v, "redouble window is closed")
	}
	if req.ExpectedVersion != 0 && req.ExpectedVersion != g.version {
		v := g.version
		g.mu.Unlock()
		return MoveResult{}, versionConflict(v)
	}

	if violations := validateRedoubleLocked(g.contract, seat); len(violations) > 0 {
		v := g.version
		g.mu.Unlock()
		return MoveResult{}, illegalMove(v, violations...)
	}

	g.bump()
	g.contract.Redoubled = true

	effects := []events.Type{
		g.emit(events.TypeBidRedoubled, BidDoubledPayload{Seat: seat, Player: req.Player}, ""),
		g.emit(events.TypeContractFinal, ContractFinalizedPayload{Contract: *g.contract}, ""),
	}

	res := g.commitLocked(req, gameid.New(gameid.PrefixMove), effects)
	g.mu.Unlock()

	g.notifyChange()
	return res, nil
}

func validateRedoubleLocked(c *rules.Contract, callerSeat int) []string {
	var violations []string
	switch {
	case !c.Doubled:
		violations = append(violations, "bid has not been doubled")
	case c.Redoubled:
		violations = append(violations, "bid is already redoubled")
	case rules.TeamOf(callerSeat) != c.Team:
		violations = append(violations, "only the declaring team may redouble")
	}
	return violations
}

// SubmitPlay lays a card into the current trick for the seat on turn.
// Completing the eighth trick settles the round atomically with the
// accepted move.
func (g *Game) SubmitPlay(req Request, card deck.Card) (MoveResult, error) {
	g.mu.Lock()
	replay, seat, perr := g.prologueLocked(req, PhasePlaying)
	if replay != nil {
		g.mu.Unlock()
		return *replay, nil
	}
	if perr != nil {
		g.mu.Unlock()
		return MoveResult{}, perr
	}
	if seat != g.turn {
		v := g.version
		g.mu.Unlock()
		return MoveResult{}, forbidden(v, "not %s's turn to play", req.Player)
	}

	hand := g.hands[seat].Cards
	if violations := rules.ValidatePlay(hand, g.trick, g.contract.Kind, seat, card); len(violations) > 0 {
		v := g.version
		g.mu.Unlock()
		return MoveResult{}, illegalMove(v, violations...)
	}

	moveID := gameid.New(gameid.PrefixMove)
	g.bump()

	g.hands[seat].Cards = removeCard(hand, card)
	g.hands[seat].Version++
	g.trick = append(g.trick, rules.Play{Seat: seat, Card: card})

	effects := []events.Type{
		g.emit(events.TypeMoveAccepted, MoveAcceptedPayload{MoveID: moveID, Seat: seat, Player: req.Player, Card: card}, ""),
		g.emit(events.TypeHandUpdated, HandUpdatedPayload{
			Seat:        seat,
			Cards:       append([]deck.Card(nil), g.hands[seat].Cards...),
			HandVersion: g.hands[seat].Version,
		}, req.Player),
	}

	if len(g.trick) < rules.NumSeats {
		g.turn = rules.NextSeat(seat)
		g.emitTurnLocked()
		effects = append(effects, events.TypeTurnChanged)
	} else {
		// a full trick resolves before any further action
		winner := rules.TrickWinner(g.trick, g.contract.Kind)
		record := rules.TrickRecord{
			Plays:  g.trick,
			Winner: winner,
			Points: rules.TrickPoints(g.trick, g.contract.Kind),
		}
		g.completed = append(g.completed, record)
		g.trick = nil
		g.turn = winner

		g.bump()
		g.emit(events.TypeTrickCompleted, TrickCompletedPayload{
			TrickNumber: len(g.completed),
			Plays:       record.Plays,
			Winner:      winner,
			Points:      record.Points,
		}, "")
		g.emitTurnLocked()
		effects = append(effects, events.TypeTrickCompleted, events.TypeTurnChanged)

		if len(g.completed) == rules.TricksPerRound {
			g.settleRoundLocked()
			effects = append(effects, events.TypeRoundCompleted)
		}
	}

	if g.phase != PhaseCompleted && !g.auditLocked() {
		aerr := g.abortLocked("card conservation violated")
		g.mu.Unlock()
		g.notifyChange()
		return MoveResult{}, aerr
	}

	res := g.commitLocked(req, moveID, effects)
	g.mu.Unlock()

	g.notifyChange()
	return res, nil
}

func removeCard(cards []deck.Card, card deck.Card) []deck.Card {
	out := make([]deck.Card, 0, len(cards)-1)
	for _, c := range cards {
		if c != card {
			out = append(out, c)
		}
	}
	return out
}
