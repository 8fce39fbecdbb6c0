// Package game owns the Game aggregate: the sole writer of match state.
// Every mutation is serialized behind the aggregate's token (a per-game
// mutex), validated against the rules kernel, applied, and appended to
// the game's event stream before the token is released.
package game

import (
	rand "math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/coinchelab/coinched/internal/deck"
	"github.com/coinchelab/coinched/internal/events"
	"github.com/coinchelab/coinched/internal/gameid"
	"github.com/coinchelab/coinched/internal/randutil"
	"github.com/coinchelab/coinched/internal/rules"
)

// Phase is the per-round position of the state machine.
type Phase string

const (
	PhaseInitial   Phase = "initial"
	PhaseBidding   Phase = "bidding"
	PhasePlaying   Phase = "playing"
	PhaseScoring   Phase = "scoring"
	PhaseCompleted Phase = "completed"
)

// DefaultTargetScore ends the game once a team's cumulative score
// reaches it with a strictly higher score than the other team.
const DefaultTargetScore = 1000

// RulesetVersion names the scoring decisions this engine implements
// (see DESIGN.md for the open-question resolutions it records).
const RulesetVersion = "coinche-v1"

// SeatInfo binds a seat index to a player identity.
type SeatInfo struct {
	Player string `json:"player"`
	Bot    bool   `json:"bot"`
}

// Hand is one seat's private cards plus its change counter.
type Hand struct {
	Cards   []deck.Card
	Version int
}

// BidEntry is one line of the auction log.
type BidEntry struct {
	Seat   int        `json:"seat"`
	Action string     `json:"action"` // bid, pass, coinche, surcoinche
	Kind   rules.Kind `json:"kind,omitempty"`
	Value  int        `json:"value,omitempty"`
	At     time.Time  `json:"at"`
}

// Bidding is the auction state present only during the bidding phase.
type Bidding struct {
	Current   *rules.Bid
	Doubled   bool
	DoubledBy int
	Redoubled bool
	Passes    int
	Log       []BidEntry
}

// Config assembles a Game's collaborators.
type Config struct {
	GameID      string
	RoomID      string
	Seats       [rules.NumSeats]SeatInfo
	TargetScore int
	Stream      *events.Stream
	Clock       quartz.Clock
	RNG         *rand.Rand
	Logger      *log.Logger

	// OnChange runs after every committed mutation, outside the
	// serialization token. Orchestration uses it to drive bot seats.
	OnChange func(*Game)
}

// Game is the aggregate for one match. All fields below mu are guarded
// by it; public methods take the token, private ...Locked helpers
// assume it is held.
type Game struct {
	id     string
	roomID string
	seats  [rules.NumSeats]SeatInfo
	target int

	stream   *events.Stream
	clock    quartz.Clock
	rng      *rand.Rand
	logger   *log.Logger
	onChange func(*Game)

	mu        sync.Mutex
	phase     Phase
	round     int
	dealer    int
	turn      int
	hands     [rules.NumSeats]Hand
	bidding   *Bidding
	contract  *rules.Contract
	trick     []rules.Play
	completed []rules.TrickRecord
	scores    [2]int
	version   uint64
	idem      map[string]MoveResult
	updatedAt time.Time
	winner    rules.Team
	won       bool
	endReason string
}

// New constructs a Game in the initial phase. StartRound deals the
// first round.
func New(cfg Config) *Game {
	if cfg.GameID == "" {
		cfg.GameID = gameid.New(gameid.PrefixGame)
	}
	if cfg.TargetScore <= 0 {
		cfg.TargetScore = DefaultTargetScore
	}
	if cfg.Clock == nil {
		cfg.Clock = quartz.NewReal()
	}
	if cfg.RNG == nil {
		cfg.RNG = randutil.NewWallClock()
	}
	g := &Game{
		id:       cfg.GameID,
		roomID:   cfg.RoomID,
		seats:    cfg.Seats,
		target:   cfg.TargetScore,
		stream:   cfg.Stream,
		clock:    cfg.Clock,
		rng:      cfg.RNG,
		logger:   cfg.Logger.WithPrefix("game").With("id", cfg.GameID),
		onChange: cfg.OnChange,
		phase:    PhaseInitial,
		idem:     make(map[string]MoveResult),
	}
	g.updatedAt = g.clock.Now()
	return g
}

// ID returns the game id.
func (g *Game) ID() string { return g.id }

// RoomID returns the owning room's id.
func (g *Game) RoomID() string { return g.roomID }

// Seats returns the fixed seat order.
func (g *Game) Seats() [rules.NumSeats]SeatInfo { return g.seats }

// Version returns the current state version.
func (g *Game) Version() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.version
}

// seatOf resolves a player identity to its seat.
func (g *Game) seatOf(player string) (int, bool) {
	for i, s := range g.seats {
		if s.Player == player {
			return i, true
		}
	}
	return 0, false
}

// bump advances the state version. Strictly increasing, never reused.
func (g *Game) bump() uint64 {
	g.version++
	g.updatedAt = g.clock.Now()
	return g.version
}

// emit appends an event at the current version.
func (g *Game) emit(t events.Type, payload any, recipient string) events.Type {
	g.stream.Append(events.Event{
		ID:         gameid.New(gameid.PrefixEvent),
		Type:       t,
		OccurredAt: g.clock.Now(),
		Source:     "engine",
		GameID:     g.id,
		Payload:    payload,
		Recipient:  recipient,
		Version:    g.version,
	})
	return t
}

// notifyChange runs the post-commit hook outside the token.
func (g *Game) notifyChange() {
	if g.onChange != nil {
		g.onChange(g)
	}
}

// abortLocked handles an internal invariant violation: fatal for this
// game, invisible to every other game.
func (g *Game) abortLocked(reason string) *Error {
	g.logger.Error("Aborting game on invariant violation", "reason", reason)
	g.phase = PhaseCompleted
	g.endReason = reason
	g.bump()
	g.emit(events.TypeGameAborted, GameAbortedPayload{Reason: reason}, "")
	return &Error{Kind: KindIllegalMove, Message: "game aborted: " + reason, CurrentVersion: g.version}
}

// auditLocked verifies card conservation: every card of the round's
// deck lies in exactly one of hands, current trick, completed tricks.
func (g *Game) auditLocked() bool {
	seen := make(map[deck.Card]int, deck.Size)
	count := 0
	add := func(c deck.Card) {
		seen[c]++
		count++
	}
	for _, h := range g.hands {
		for _, c := range h.Cards {
			add(c)
		}
	}
	for _, p := range g.trick {
		add(p.Card)
	}
	for _, t := range g.completed {
		for _, p := range t.Plays {
			add(p.Card)
		}
	}
	if count != deck.Size {
		return false
	}
	for _, n := range seen {
		if n != 1 {
			return false
		}
	}
	return true
}

// Cancel completes the game with an external cancellation reason. It
// serializes on the game token like any other action; stale bot
// schedules fail their precondition checks afterwards and are dropped.
func (g *Game) Cancel(reason string) error {
	g.mu.Lock()
	if g.phase == PhaseCompleted {
		g.mu.Unlock()
		return forbidden(g.version, "game already completed")
	}
	g.phase = PhaseCompleted
	g.endReason = reason
	g.bump()
	g.emit(events.TypeGameCancelled, GameCancelledPayload{Reason: reason}, "")
	g.mu.Unlock()

	g.notifyChange()
	return nil
}

// InvalidateMove is the tournament-only escape hatch: it surfaces the
// invalidation for operator workflow without attempting rollback.
func (g *Game) InvalidateMove(admin, moveID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase == PhaseCompleted {
		return forbidden(g.version, "game is completed")
	}
	g.bump()
	g.emit(events.TypeMoveInvalidated, MoveInvalidatedPayload{
		MoveID: moveID,
		Admin:  admin,
		At:     g.clock.Now(),
	}, "")
	g.logger.Warn("Move invalidated by operator", "move", moveID, "admin", admin)
	return nil
}

// ListEvents exposes the replay API of the game's log.
func (g *Game) ListEvents(afterEventID string) []events.Event {
	return g.stream.ListAfter(afterEventID)
}
