package room

import (
	"fmt"
	rand "math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/coinchelab/coinched/internal/bot"
	"github.com/coinchelab/coinched/internal/events"
	"github.com/coinchelab/coinched/internal/game"
	"github.com/coinchelab/coinched/internal/gameid"
	"github.com/coinchelab/coinched/internal/rules"
)

// Bot seat identities assigned by fill-with-bots, indexed by seat.
var botNames = [rules.NumSeats]string{"bot:north", "bot:east", "bot:south", "bot:west"}

// Defaults applies to rooms created without explicit options.
type Defaults struct {
	TargetScore int
	TurnTimeout time.Duration
	Visibility  Visibility
}

// CreateOptions parameterize a new room.
type CreateOptions struct {
	GameType    string
	Visibility  Visibility
	TargetScore int
	TurnTimeout time.Duration
}

// ListFilter narrows List results; zero values match everything.
type ListFilter struct {
	GameType   string
	Visibility Visibility
	Status     Status
	Offset     int
	Limit      int
}

// Manager is the room registry and the orchestration entry point: it
// owns room lifecycle and constructs games from started rooms.
type Manager struct {
	logger *log.Logger
	hub    *events.Hub
	driver *bot.Driver
	clock  quartz.Clock
	seed   func() *rand.Rand

	mu    sync.RWMutex
	rooms map[string]*Room
	games map[string]*Room // gameID -> owning room
	defs  Defaults
}

// NewManager constructs an empty registry. seed produces the per-game
// random source for shuffling.
func NewManager(logger *log.Logger, hub *events.Hub, driver *bot.Driver, clock quartz.Clock, seed func() *rand.Rand, defs Defaults) *Manager {
	if defs.TargetScore <= 0 {
		defs.TargetScore = game.DefaultTargetScore
	}
	if defs.Visibility == "" {
		defs.Visibility = VisibilityPublic
	}
	return &Manager{
		logger: logger.WithPrefix("rooms"),
		hub:    hub,
		driver: driver,
		clock:  clock,
		seed:   seed,
		rooms:  make(map[string]*Room),
		games:  make(map[string]*Room),
		defs:   defs,
	}
}

// Create opens a lobby with the host seated at seat 0.
func (m *Manager) Create(host string, opts CreateOptions) (*Room, error) {
	if host == "" {
		return nil, &game.Error{Kind: game.KindUnauthorized, Message: "host identity required"}
	}
	if opts.GameType == "" {
		opts.GameType = "coinche"
	}
	if opts.Visibility == "" {
		opts.Visibility = m.defs.Visibility
	}
	if opts.TargetScore <= 0 {
		opts.TargetScore = m.defs.TargetScore
	}
	if opts.TurnTimeout < 0 {
		return nil, &game.Error{Kind: game.KindInvalidPayload, Message: "turn timeout cannot be negative"}
	}
	if opts.TurnTimeout == 0 {
		opts.TurnTimeout = m.defs.TurnTimeout
	}

	now := m.clock.Now()
	r := &Room{
		ID:             gameid.New(gameid.PrefixRoom),
		GameType:       opts.GameType,
		Host:           host,
		Visibility:     opts.Visibility,
		RulesetVersion: game.RulesetVersion,
		Status:         StatusLobby,
		TargetScore:    opts.TargetScore,
		TurnTimeout:    opts.TurnTimeout,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	r.Seats[0] = Seat{Player: host}

	m.mu.Lock()
	m.rooms[r.ID] = r
	m.mu.Unlock()

	m.logger.Info("Room created", "room", r.ID, "host", host, "type", opts.GameType)
	m.publish(r, events.TypeRoomUpdated, r.summary())
	return r, nil
}

// Get returns a room by id.
func (m *Manager) Get(roomID string) (*Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[roomID]
	if !ok {
		return nil, &game.Error{Kind: game.KindNotFound, Message: fmt.Sprintf("room %s not found", roomID)}
	}
	return r, nil
}

// GameByID resolves a running game by its id.
func (m *Manager) GameByID(gameID string) (*game.Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.games[gameID]
	if !ok || r.game == nil {
		return nil, &game.Error{Kind: game.KindNotFound, Message: fmt.Sprintf("game %s not found", gameID)}
	}
	return r.game, nil
}

// List returns summaries matching the filter, newest first, paginated.
func (m *Manager) List(f ListFilter) []Summary {
	m.mu.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		if f.GameType != "" && r.GameType != f.GameType {
			continue
		}
		if f.Visibility != "" && r.Visibility != f.Visibility {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		rooms = append(rooms, r)
	}
	m.mu.RUnlock()

	sort.Slice(rooms, func(i, j int) bool { return rooms[i].CreatedAt.After(rooms[j].CreatedAt) })

	if f.Offset > len(rooms) {
		f.Offset = len(rooms)
	}
	rooms = rooms[f.Offset:]
	if f.Limit > 0 && f.Limit < len(rooms) {
		rooms = rooms[:f.Limit]
	}

	out := make([]Summary, len(rooms))
	for i, r := range rooms {
		out[i] = r.summary()
	}
	return out
}

// Join seats a player, optionally at a requested index.
func (m *Manager) Join(roomID, player string, seatIndex *int) (*Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[roomID]
	if !ok {
		return nil, &game.Error{Kind: game.KindNotFound, Message: fmt.Sprintf("room %s not found", roomID)}
	}
	if r.Status != StatusLobby {
		return nil, &game.Error{Kind: game.KindForbidden, Message: "room is not accepting players"}
	}
	if r.Locked {
		return nil, &game.Error{Kind: game.KindForbidden, Message: "room is locked"}
	}
	if _, seated := r.seatOf(player); seated {
		return nil, &game.Error{Kind: game.KindForbidden, Message: "player already seated"}
	}

	idx := -1
	if seatIndex != nil {
		if *seatIndex < 0 || *seatIndex >= rules.NumSeats {
			return nil, &game.Error{Kind: game.KindInvalidPayload, Message: "seat index out of range"}
		}
		if r.Seats[*seatIndex].Occupied() {
			return nil, &game.Error{Kind: game.KindForbidden, Message: "seat is taken"}
		}
		idx = *seatIndex
	} else {
		for i, s := range r.Seats {
			if !s.Occupied() {
				idx = i
				break
			}
		}
		if idx == -1 {
			return nil, &game.Error{Kind: game.KindForbidden, Message: "room is full"}
		}
	}

	r.Seats[idx] = Seat{Player: player}
	m.touchLocked(r)
	m.publish(r, events.TypeRoomPlayerJoined, map[string]any{"player": player, "seat": idx})
	return r, nil
}

// Leave vacates a player's seat; a running game cannot be left. A host
// who leaves keeps the host role and the room stays open; it is not
// disbanded.
func (m *Manager) Leave(roomID, player string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[roomID]
	if !ok {
		return &game.Error{Kind: game.KindNotFound, Message: fmt.Sprintf("room %s not found", roomID)}
	}
	idx, seated := r.seatOf(player)
	if !seated {
		return &game.Error{Kind: game.KindNotFound, Message: "player not seated"}
	}
	if r.Status == StatusInProgress {
		return &game.Error{Kind: game.KindForbidden, Message: "cannot leave a running game"}
	}

	r.Seats[idx] = Seat{}
	m.touchLocked(r)
	m.publish(r, events.TypeRoomPlayerLeft, map[string]any{"player": player, "seat": idx})
	return nil
}

// Kick removes a seat's occupant; host only.
func (m *Manager) Kick(roomID, host string, seatIndex int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[roomID]
	if !ok {
		return &game.Error{Kind: game.KindNotFound, Message: fmt.Sprintf("room %s not found", roomID)}
	}
	if r.Host != host {
		return &game.Error{Kind: game.KindForbidden, Message: "only the host may remove seats"}
	}
	if r.Status != StatusLobby {
		return &game.Error{Kind: game.KindForbidden, Message: "room has started"}
	}
	if seatIndex < 0 || seatIndex >= rules.NumSeats || !r.Seats[seatIndex].Occupied() {
		return &game.Error{Kind: game.KindNotFound, Message: "seat is empty"}
	}

	kicked := r.Seats[seatIndex].Player
	r.Seats[seatIndex] = Seat{}
	m.touchLocked(r)
	m.publish(r, events.TypeRoomPlayerLeft, map[string]any{"player": kicked, "seat": seatIndex, "kicked": true})
	return nil
}

// ToggleReady flips a player's readiness flag.
func (m *Manager) ToggleReady(roomID, player string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[roomID]
	if !ok {
		return false, &game.Error{Kind: game.KindNotFound, Message: fmt.Sprintf("room %s not found", roomID)}
	}
	idx, seated := r.seatOf(player)
	if !seated {
		return false, &game.Error{Kind: game.KindNotFound, Message: "player not seated"}
	}
	if r.Status != StatusLobby {
		return false, &game.Error{Kind: game.KindForbidden, Message: "room has started"}
	}

	r.Seats[idx].Ready = !r.Seats[idx].Ready
	m.touchLocked(r)
	m.publish(r, events.TypeRoomUpdated, r.summary())
	return r.Seats[idx].Ready, nil
}

// SetLocked locks or unlocks a lobby; host only.
func (m *Manager) SetLocked(roomID, host string, locked bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[roomID]
	if !ok {
		return &game.Error{Kind: game.KindNotFound, Message: fmt.Sprintf("room %s not found", roomID)}
	}
	if r.Host != host {
		return &game.Error{Kind: game.KindForbidden, Message: "only the host may lock the room"}
	}
	if r.Status != StatusLobby {
		return &game.Error{Kind: game.KindForbidden, Message: "room has started"}
	}

	r.Locked = locked
	m.touchLocked(r)
	m.publish(r, events.TypeRoomUpdated, r.summary())
	return nil
}

// FillWithBots seats bots in every empty chair and readies them.
func (m *Manager) FillWithBots(roomID, host string) (*Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[roomID]
	if !ok {
		return nil, &game.Error{Kind: game.KindNotFound, Message: fmt.Sprintf("room %s not found", roomID)}
	}
	if r.Host != host {
		return nil, &game.Error{Kind: game.KindForbidden, Message: "only the host may add bots"}
	}
	if r.Status != StatusLobby {
		return nil, &game.Error{Kind: game.KindForbidden, Message: "room has started"}
	}

	for i := range r.Seats {
		if !r.Seats[i].Occupied() {
			r.Seats[i] = Seat{Player: botNames[i], Ready: true, Bot: true}
		}
	}
	m.touchLocked(r)
	m.publish(r, events.TypeRoomUpdated, r.summary())
	return r, nil
}

// Start transitions a full, ready, unlocked room into a running game
// and deals the first round.
func (m *Manager) Start(roomID, host string) (*game.Game, error) {
	m.mu.Lock()

	r, ok := m.rooms[roomID]
	if !ok {
		m.mu.Unlock()
		return nil, &game.Error{Kind: game.KindNotFound, Message: fmt.Sprintf("room %s not found", roomID)}
	}
	if r.Host != host {
		m.mu.Unlock()
		return nil, &game.Error{Kind: game.KindForbidden, Message: "only the host may start the game"}
	}
	if r.Status != StatusLobby {
		m.mu.Unlock()
		return nil, &game.Error{Kind: game.KindForbidden, Message: "room has already started"}
	}
	if r.Locked {
		m.mu.Unlock()
		return nil, &game.Error{Kind: game.KindForbidden, Message: "room is locked"}
	}
	if !r.full() {
		m.mu.Unlock()
		return nil, &game.Error{Kind: game.KindForbidden, Message: "all seats must be occupied"}
	}
	if !r.allReady() {
		m.mu.Unlock()
		return nil, &game.Error{Kind: game.KindForbidden, Message: "all occupants must be ready"}
	}

	var seats [rules.NumSeats]game.SeatInfo
	for i, s := range r.Seats {
		seats[i] = game.SeatInfo{Player: s.Player, Bot: s.Bot}
		r.Seats[i].Ready = false
	}

	gid := gameid.New(gameid.PrefixGame)
	timeout := r.TurnTimeout
	g := game.New(game.Config{
		GameID:      gid,
		RoomID:      r.ID,
		Seats:       seats,
		TargetScore: r.TargetScore,
		Stream:      m.hub.Stream(gid),
		Clock:       m.clock,
		RNG:         m.seed(),
		Logger:      m.logger,
		OnChange: func(g *game.Game) {
			m.driver.Notify(g)
			m.driver.WatchDeadline(g, timeout)
		},
	})

	r.game = g
	r.GameID = gid
	r.Status = StatusInProgress
	r.Locked = true
	m.games[gid] = r
	m.touchLocked(r)
	m.mu.Unlock()

	m.logger.Info("Game starting", "room", r.ID, "game", gid)
	m.publish(r, events.TypeRoomGameStarted, map[string]any{"gameId": gid})

	if err := g.StartRound(); err != nil {
		return nil, err
	}
	return g, nil
}

// Cancel cancels a running game. Only the room's host may call it; there
// is no admin path.
func (m *Manager) Cancel(roomID, caller, reason string) error {
	m.mu.Lock()
	r, ok := m.rooms[roomID]
	if !ok {
		m.mu.Unlock()
		return &game.Error{Kind: game.KindNotFound, Message: fmt.Sprintf("room %s not found", roomID)}
	}
	if r.Host != caller {
		m.mu.Unlock()
		return &game.Error{Kind: game.KindForbidden, Message: "only the host may cancel the game"}
	}
	g := r.game
	if g == nil {
		m.mu.Unlock()
		return &game.Error{Kind: game.KindNotFound, Message: "room has no running game"}
	}
	r.Status = StatusCompleted
	m.touchLocked(r)
	m.mu.Unlock()

	return g.Cancel(reason)
}

// touchLocked bumps the room revision used as event version.
func (m *Manager) touchLocked(r *Room) {
	r.rev++
	r.UpdatedAt = m.clock.Now()
}

// publish emits a room event on the room's own channel.
func (m *Manager) publish(r *Room, t events.Type, payload any) {
	m.hub.Stream(r.ID).Append(events.Event{
		ID:         gameid.New(gameid.PrefixEvent),
		Type:       t,
		OccurredAt: m.clock.Now(),
		Source:     "rooms",
		GameID:     r.ID,
		Payload:    payload,
		Version:    r.rev,
	})
}
