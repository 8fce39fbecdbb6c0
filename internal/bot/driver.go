package bot

import (
	rand "math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/coinchelab/coinched/internal/game"
)

// Thinking-delay bounds for scheduled bot actions. The delay simulates
// deliberation and yields to concurrent human input.
const (
	MinDelay = 1 * time.Second
	MaxDelay = 2 * time.Second
)

// Driver watches games after every committed mutation and schedules
// actions for bot-owned seats, plus forfeit plays for expired human
// turn deadlines. At most one schedule is in flight per seat; the flag
// clears when the scheduled action enters the state machine.
type Driver struct {
	logger *log.Logger
	clock  quartz.Clock
	policy *Policy

	mu      sync.Mutex
	rng     *rand.Rand
	pending map[string]map[int]bool // gameID -> seat -> scheduled
	timers  map[string]*quartz.Timer
}

// NewDriver creates a driver. rng feeds both delays and the policy.
func NewDriver(logger *log.Logger, clock quartz.Clock, rng *rand.Rand) *Driver {
	return &Driver{
		logger:  logger.WithPrefix("bot"),
		clock:   clock,
		policy:  NewPolicy(rng),
		rng:     rng,
		pending: make(map[string]map[int]bool),
		timers:  make(map[string]*quartz.Timer),
	}
}

// Notify is the post-mutation hook: wired as the game's OnChange
// callback, it runs outside the serialization token.
func (d *Driver) Notify(g *game.Game) {
	v := g.BotView()
	if v.Phase == game.PhaseCompleted {
		d.forget(g.ID())
		return
	}
	if v.Phase != game.PhaseBidding && v.Phase != game.PhasePlaying {
		return
	}
	if !v.TurnIsBot {
		return
	}

	d.mu.Lock()
	seats := d.pending[g.ID()]
	if seats == nil {
		seats = make(map[int]bool)
		d.pending[g.ID()] = seats
	}
	if seats[v.TurnSeat] {
		d.mu.Unlock()
		return
	}
	seats[v.TurnSeat] = true
	delay := MinDelay + time.Duration(d.rng.Int64N(int64(MaxDelay-MinDelay)))
	d.mu.Unlock()

	seat := v.TurnSeat
	d.clock.AfterFunc(delay, func() {
		d.act(g, seat)
	}, "bot", g.ID())
}

// act fires the deferred action. It clears the in-flight flag, takes a
// fresh view, and re-enters the state machine through the same
// serialized entry points as a human; a failed precondition means the
// world moved during the delay and the action is dropped.
func (d *Driver) act(g *game.Game, seat int) {
	d.mu.Lock()
	if seats := d.pending[g.ID()]; seats != nil {
		delete(seats, seat)
	}
	d.mu.Unlock()

	v := g.BotView()
	if v.TurnSeat != seat || !v.TurnIsBot {
		return
	}

	err := d.submit(g, v, game.Request{Player: v.TurnPlayer})
	if err != nil {
		d.logger.Debug("Scheduled action rejected, dropping", "game", g.ID(), "seat", seat, "error", err)
	}
}

// submit plans from the view and performs the action.
func (d *Driver) submit(g *game.Game, v game.BotView, req game.Request) error {
	switch v.Phase {
	case game.PhaseBidding:
		d.mu.Lock()
		kind, value, ok := d.policy.Bid(v.Hand, v.HasCurrentBid)
		d.mu.Unlock()
		if !ok {
			_, err := g.SubmitPass(req)
			return err
		}
		_, err := g.SubmitBid(req, kind, value)
		return err
	case game.PhasePlaying:
		if !v.HasContract || len(v.Hand) == 0 {
			return nil
		}
		d.mu.Lock()
		card := d.policy.Play(v.Hand, v.Trick, v.ContractKind, v.TurnSeat)
		d.mu.Unlock()
		_, err := g.SubmitPlay(req, card)
		return err
	default:
		return nil
	}
}

// WatchDeadline arms the per-turn deadline for a human seat. When it
// expires with the same seat still on turn, a forfeit action is
// synthesized by the bot policy and tagged systemGenerated. Each game
// keeps a single deadline timer; re-arming replaces it.
func (d *Driver) WatchDeadline(g *game.Game, timeout time.Duration) {
	if timeout <= 0 {
		return
	}
	v := g.BotView()
	if v.Phase != game.PhaseBidding && v.Phase != game.PhasePlaying {
		d.mu.Lock()
		if t := d.timers[g.ID()]; t != nil {
			t.Stop()
			delete(d.timers, g.ID())
		}
		d.mu.Unlock()
		return
	}
	if v.TurnIsBot {
		return
	}

	version := v.Version
	seat := v.TurnSeat
	timer := d.clock.AfterFunc(timeout, func() {
		d.forfeit(g, seat, version)
	}, "deadline", g.ID())

	d.mu.Lock()
	if prev := d.timers[g.ID()]; prev != nil {
		prev.Stop()
	}
	d.timers[g.ID()] = timer
	d.mu.Unlock()
}

// forfeit plays on behalf of an absent human after deadline expiry.
func (d *Driver) forfeit(g *game.Game, seat int, version uint64) {
	v := g.BotView()
	if v.Version != version || v.TurnSeat != seat {
		return
	}

	d.logger.Info("Turn deadline expired, forfeiting", "game", g.ID(), "seat", seat, "player", v.TurnPlayer)
	err := d.submit(g, v, game.Request{Player: v.TurnPlayer, SystemGenerated: true})
	if err != nil {
		d.logger.Debug("Forfeit action rejected, dropping", "game", g.ID(), "seat", seat, "error", err)
	}
}

// forget releases all driver state for a finished game.
func (d *Driver) forget(gameID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.pending, gameID)
	if t := d.timers[gameID]; t != nil {
		t.Stop()
		delete(d.timers, gameID)
	}
}
