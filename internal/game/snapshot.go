package game

import (
	"time"

	"github.com/coinchelab/coinched/internal/deck"
	"github.com/coinchelab/coinched/internal/rules"
)

// PublicBidding is the redacted auction view.
type PublicBidding struct {
	CurrentBid *rules.Bid `json:"currentBid,omitempty"`
	Doubled    bool       `json:"doubled"`
	Redoubled  bool       `json:"redoubled"`
	Passes     int        `json:"passes"`
}

// PublicContainers exposes the card containers a spectator may see:
// counts only, never cards that are still hidden.
type PublicContainers struct {
	DrawPileCount     int          `json:"drawPileCount"`
	CurrentTrick      []rules.Play `json:"currentTrick"`
	TrickHistoryCount int          `json:"trickHistoryCount"`
}

// PublicState is the spectator-safe snapshot of a game. It is built by
// projection from the aggregate: only public fields are materialized
// and hands are translated to an aggregate count, so no hidden value is
// ever reachable from it.
type PublicState struct {
	GameID          string            `json:"gameId"`
	RoomID          string            `json:"roomId"`
	Status          Phase             `json:"status"`
	Round           int               `json:"round"`
	Dealer          int               `json:"dealer"`
	TurnSeat        int               `json:"turnSeat"`
	TurnID          string            `json:"turnId"`
	TurnOrder       []string          `json:"turnOrder"`
	StateVersion    uint64            `json:"stateVersion"`
	CumulativeScore map[string]int    `json:"cumulativeScore"`
	Contract        *rules.Contract   `json:"contract,omitempty"`
	Bidding         *PublicBidding    `json:"bidding,omitempty"`
	Containers      PublicContainers  `json:"publicContainers"`
	HandCardCount   int               `json:"handCardCount"`
	Winner          *rules.Team       `json:"winner,omitempty"`
	EndReason       string            `json:"endReason,omitempty"`
	LastUpdatedAt   time.Time         `json:"lastUpdatedAt"`
}

// PrivateHand is the owner-only view of one seat's cards.
type PrivateHand struct {
	SeatIdentity  string      `json:"seatIdentity"`
	Seat          int         `json:"seat"`
	GameID        string      `json:"gameId"`
	Cards         []deck.Card `json:"cards"`
	HandVersion   int         `json:"handVersion"`
	LastUpdatedAt time.Time   `json:"lastUpdatedAt"`
}

// State takes the token briefly and projects the public snapshot.
func (g *Game) State() PublicState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stateLocked()
}

// StateSince returns the snapshot along with whether anything changed
// past the supplied version.
func (g *Game) StateSince(version uint64) (PublicState, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stateLocked(), g.version > version
}

func (g *Game) stateLocked() PublicState {
	order := make([]string, rules.NumSeats)
	handCount := 0
	for i, s := range g.seats {
		order[i] = s.Player
		handCount += len(g.hands[i].Cards)
	}

	st := PublicState{
		GameID:       g.id,
		RoomID:       g.roomID,
		Status:       g.phase,
		Round:        g.round,
		Dealer:       g.dealer,
		TurnSeat:     g.turn,
		TurnID:       g.seats[g.turn].Player,
		TurnOrder:    order,
		StateVersion: g.version,
		CumulativeScore: map[string]int{
			"teamA": g.scores[rules.TeamA],
			"teamB": g.scores[rules.TeamB],
		},
		Containers: PublicContainers{
			DrawPileCount:     0, // every card is dealt in coinche
			CurrentTrick:      append([]rules.Play(nil), g.trick...),
			TrickHistoryCount: len(g.completed),
		},
		HandCardCount: handCount,
		EndReason:     g.endReason,
		LastUpdatedAt: g.updatedAt,
	}
	if g.contract != nil {
		c := *g.contract
		st.Contract = &c
	}
	if g.bidding != nil {
		b := &PublicBidding{
			Doubled:   g.bidding.Doubled,
			Redoubled: g.bidding.Redoubled,
			Passes:    g.bidding.Passes,
		}
		if g.bidding.Current != nil {
			cur := *g.bidding.Current
			b.CurrentBid = &cur
		}
		st.Bidding = b
	}
	if g.won {
		w := g.winner
		st.Winner = &w
	}
	return st
}

// Turn returns the seat on turn, its player identity, and the version.
func (g *Game) Turn() (int, string, uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.turn, g.seats[g.turn].Player, g.version
}

// HandFor returns the private hand view for the given seat identity.
// It does not check who is asking; an identity with no seat in the game
// gets not-found.
func (g *Game) HandFor(player string) (PrivateHand, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	seat, ok := g.seatOf(player)
	if !ok {
		return PrivateHand{}, notFound("no seat for player %s", player)
	}
	h := g.hands[seat]
	return PrivateHand{
		SeatIdentity:  player,
		Seat:          seat,
		GameID:        g.id,
		Cards:         append([]deck.Card(nil), h.Cards...),
		HandVersion:   h.Version,
		LastUpdatedAt: g.updatedAt,
	}, nil
}
