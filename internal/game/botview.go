package game

import (
	"github.com/coinchelab/coinched/internal/deck"
	"github.com/coinchelab/coinched/internal/rules"
)

// BotView is the coherent read snapshot the bot driver plans from. It
// is taken under the game token; the plan it produces is re-validated
// when the scheduled action re-enters the state machine.
type BotView struct {
	Phase         Phase
	Version       uint64
	TurnSeat      int
	TurnPlayer    string
	TurnIsBot     bool
	Hand          []deck.Card
	Trick         []rules.Play
	ContractKind  rules.Kind
	HasContract   bool
	HasCurrentBid bool
}

// BotView projects the state the driver needs to act for the seat
// currently on turn.
func (g *Game) BotView() BotView {
	g.mu.Lock()
	defer g.mu.Unlock()

	v := BotView{
		Phase:      g.phase,
		Version:    g.version,
		TurnSeat:   g.turn,
		TurnPlayer: g.seats[g.turn].Player,
		TurnIsBot:  g.seats[g.turn].Bot,
		Hand:       append([]deck.Card(nil), g.hands[g.turn].Cards...),
		Trick:      append([]rules.Play(nil), g.trick...),
	}
	if g.contract != nil {
		v.ContractKind = g.contract.Kind
		v.HasContract = true
	}
	if g.bidding != nil {
		v.HasCurrentBid = g.bidding.Current != nil
	}
	return v
}
