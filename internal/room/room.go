// Package room manages pre-game state: seat assignment, readiness,
// locking, and the transition that turns a full, ready room into a
// running game.
package room

import (
	"time"

	"github.com/coinchelab/coinched/internal/game"
	"github.com/coinchelab/coinched/internal/rules"
)

// Status is a room's lifecycle position.
type Status string

const (
	StatusLobby      Status = "lobby"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// Visibility controls listing exposure.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Seat is one chair at the table.
type Seat struct {
	Player string `json:"player,omitempty"`
	Ready  bool   `json:"ready"`
	Bot    bool   `json:"bot"`
}

// Occupied reports whether a player (human or bot) holds the seat.
func (s Seat) Occupied() bool { return s.Player != "" }

// Room is the pre-game aggregate. The manager serializes all access,
// so Room itself carries no lock.
type Room struct {
	ID             string                `json:"roomId"`
	GameType       string                `json:"gameType"`
	Host           string                `json:"hostPlayer"`
	Visibility     Visibility            `json:"visibility"`
	RulesetVersion string                `json:"rulesetVersion"`
	Status         Status                `json:"status"`
	Locked         bool                  `json:"locked"`
	Seats          [rules.NumSeats]Seat  `json:"seats"`
	TargetScore    int                   `json:"targetScore"`
	TurnTimeout    time.Duration         `json:"turnTimeout"`
	GameID         string                `json:"gameId,omitempty"`
	CreatedAt      time.Time             `json:"createdAt"`
	UpdatedAt      time.Time             `json:"updatedAt"`

	rev  uint64
	game *game.Game
}

// Game returns the running game, if the room has started.
func (r *Room) Game() *game.Game { return r.game }

// seatOf finds the seat index a player occupies.
func (r *Room) seatOf(player string) (int, bool) {
	for i, s := range r.Seats {
		if s.Player == player {
			return i, true
		}
	}
	return 0, false
}

// full reports whether every seat is occupied.
func (r *Room) full() bool {
	for _, s := range r.Seats {
		if !s.Occupied() {
			return false
		}
	}
	return true
}

// allReady reports whether every occupant has toggled ready.
func (r *Room) allReady() bool {
	for _, s := range r.Seats {
		if !s.Occupied() || !s.Ready {
			return false
		}
	}
	return true
}

// Summary is the listing projection of a room.
type Summary struct {
	ID         string     `json:"roomId"`
	GameType   string     `json:"gameType"`
	Host       string     `json:"hostPlayer"`
	Visibility Visibility `json:"visibility"`
	Status     Status     `json:"status"`
	Locked     bool       `json:"locked"`
	SeatsTaken int        `json:"seatsTaken"`
	SeatCount  int        `json:"seatCount"`
	GameID     string     `json:"gameId,omitempty"`
}

func (r *Room) summary() Summary {
	taken := 0
	for _, s := range r.Seats {
		if s.Occupied() {
			taken++
		}
	}
	return Summary{
		ID:         r.ID,
		GameType:   r.GameType,
		Host:       r.Host,
		Visibility: r.Visibility,
		Status:     r.Status,
		Locked:     r.Locked,
		SeatsTaken: taken,
		SeatCount:  rules.NumSeats,
		GameID:     r.GameID,
	}
}
