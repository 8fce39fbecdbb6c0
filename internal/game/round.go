package game

import (
	"fmt"

	"github.com/coinchelab/coinched/internal/deck"
	"github.com/coinchelab/coinched/internal/events"
	"github.com/coinchelab/coinched/internal/rules"
)

// dealPattern is the fixed 3-2-3 distribution the ruleset specifies.
var dealPattern = []int{3, 2, 3}

// StartRound deals the first round of the game. Subsequent rounds are
// started internally when scoring completes.
func (g *Game) StartRound() error {
	g.mu.Lock()
	if g.phase != PhaseInitial && g.phase != PhaseScoring {
		v := g.version
		g.mu.Unlock()
		return forbidden(v, "round cannot start in phase %s", g.phase)
	}
	g.round++
	g.dealLocked(nil)
	g.mu.Unlock()

	g.notifyChange()
	return nil
}

// startRoundWithDeck is the deterministic-deal seam used by tests.
func (g *Game) startRoundWithDeck(d *deck.Deck) {
	g.mu.Lock()
	g.round++
	g.dealLocked(d)
	g.mu.Unlock()
	g.notifyChange()
}

// dealLocked shuffles (unless handed a stacked deck), deals 3-2-3,
// installs fresh bidding state, and opens the auction one seat after
// the dealer.
func (g *Game) dealLocked(d *deck.Deck) {
	if d == nil {
		d = deck.New(g.rng)
		d.Shuffle()
	}

	for _, n := range dealPattern {
		seat := rules.NextSeat(g.dealer)
		for i := 0; i < rules.NumSeats; i++ {
			h := &g.hands[seat]
			h.Cards = append(h.Cards, d.DealN(n)...)
			h.Version++
			seat = rules.NextSeat(seat)
		}
	}

	g.bidding = &Bidding{}
	g.contract = nil
	g.trick = nil
	g.completed = nil
	g.turn = rules.NextSeat(g.dealer)
	g.phase = PhaseBidding

	g.bump()
	g.emit(events.TypeRoundStarted, RoundStartedPayload{
		Round:  g.round,
		Dealer: g.dealer,
		Leader: g.turn,
	}, "")
	for seat := range g.hands {
		g.emit(events.TypeHandDealt, HandDealtPayload{
			Seat:        seat,
			Cards:       append([]deck.Card(nil), g.hands[seat].Cards...),
			HandVersion: g.hands[seat].Version,
		}, g.seats[seat].Player)
	}

	g.logger.Debug("Round dealt", "round", g.round, "dealer", g.dealer, "leader", g.turn)
}

// redealLocked throws the deal in after four passes with no bid: the
// dealer advances and a fresh deck is dealt under the same round number.
func (g *Game) redealLocked() {
	g.bump()
	g.emit(events.TypeRedealRequired, RedealRequiredPayload{Dealer: g.dealer}, "")

	for seat := range g.hands {
		g.hands[seat].Cards = nil
		g.hands[seat].Version++
	}
	g.dealer = rules.NextSeat(g.dealer)
	g.dealLocked(nil)
}

// finalizeContractLocked freezes the winning bid, clears the auction
// state, and opens play with the seat left of the dealer.
func (g *Game) finalizeContractLocked(doubled, redoubled bool) {
	bid := g.bidding.Current
	g.contract = &rules.Contract{
		Kind:      bid.Kind,
		Value:     bid.Value,
		Doubled:   doubled,
		Redoubled: redoubled,
		Team:      rules.TeamOf(bid.Seat),
	}
	g.bidding = nil
	g.phase = PhasePlaying
	g.turn = rules.NextSeat(g.dealer)

	g.emit(events.TypeContractFinal, ContractFinalizedPayload{Contract: *g.contract}, "")
	g.emitTurnLocked()
}

// settleRoundLocked runs the scoring path after the eighth trick: score
// the round, apply the cumulative totals, then either complete the game
// or rotate the dealer into the next round. All of it commits under the
// same token as the eighth play, so no observer ever sees eight
// completed tricks in the playing phase.
func (g *Game) settleRoundLocked() {
	g.phase = PhaseScoring
	result := rules.ScoreRound(*g.contract, g.completed)
	g.scores[rules.TeamA] += result.Awarded[rules.TeamA]
	g.scores[rules.TeamB] += result.Awarded[rules.TeamB]

	g.bump()
	g.emit(events.TypeRoundCompleted, RoundCompletedPayload{
		Round:      g.round,
		Contract:   *g.contract,
		Result:     result,
		Cumulative: g.scores,
	}, "")
	g.logger.Info("Round completed",
		"round", g.round,
		"fulfilled", result.Fulfilled,
		"teamA", g.scores[rules.TeamA],
		"teamB", g.scores[rules.TeamB])

	if winner, over := rules.GameOver(g.scores, g.target); over {
		g.phase = PhaseCompleted
		g.winner = winner
		g.won = true
		g.endReason = fmt.Sprintf("team %s reached %d", winner, g.target)
		g.bump()
		g.emit(events.TypeGameCompleted, GameCompletedPayload{
			Winner:     winner,
			Cumulative: g.scores,
		}, "")
		return
	}

	g.dealer = rules.NextSeat(g.dealer)
	g.round++
	g.dealLocked(nil)
}

// emitTurnLocked announces the seat now on turn at the current version.
func (g *Game) emitTurnLocked() {
	g.emit(events.TypeTurnChanged, TurnChangedPayload{
		Seat:   g.turn,
		Player: g.seats[g.turn].Player,
		Phase:  g.phase,
	}, "")
}
