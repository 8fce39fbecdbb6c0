package server

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/charmbracelet/log"

	"github.com/coinchelab/coinched/internal/deck"
	"github.com/coinchelab/coinched/internal/events"
	"github.com/coinchelab/coinched/internal/game"
	"github.com/coinchelab/coinched/internal/room"
	"github.com/coinchelab/coinched/internal/rules"
)

// Service routes decoded client messages onto the room manager and
// game aggregates, enforcing caller identity and roles. The transport
// knows nothing about rules; the core knows nothing about sockets.
type Service struct {
	logger *log.Logger
	rooms  *room.Manager
	hub    *events.Hub
}

// NewService creates the routing layer.
func NewService(logger *log.Logger, rooms *room.Manager, hub *events.Hub) *Service {
	return &Service{
		logger: logger.WithPrefix("service"),
		rooms:  rooms,
		hub:    hub,
	}
}

// Handle dispatches one inbound message on behalf of its connection.
func (s *Service) Handle(c *Connection, msg *Message) {
	if msg.Type == MessageTypeHello {
		s.handleHello(c, msg)
		return
	}
	if c.Player() == "" {
		c.sendError(msg.RequestID, ErrorData{Kind: string(game.KindUnauthorized), Message: "hello required before any operation"})
		return
	}

	switch msg.Type {
	case MessageTypeRoomCreate:
		s.handleRoomCreate(c, msg)
	case MessageTypeRoomList:
		s.handleRoomList(c, msg)
	case MessageTypeRoomGet:
		s.withRoomTarget(c, msg, func(d RoomTargetData) (any, MessageType, error) {
			r, err := s.rooms.Get(d.RoomID)
			return r, MessageTypeRoomInfo, err
		})
	case MessageTypeRoomJoin:
		s.withRoomTarget(c, msg, func(d RoomTargetData) (any, MessageType, error) {
			r, err := s.rooms.Join(d.RoomID, c.Player(), d.Seat)
			return r, MessageTypeRoomInfo, err
		})
	case MessageTypeRoomLeave:
		s.withRoomTarget(c, msg, func(d RoomTargetData) (any, MessageType, error) {
			return okPayload, MessageTypeRoomInfo, s.rooms.Leave(d.RoomID, c.Player())
		})
	case MessageTypeRoomKick:
		s.withRoomTarget(c, msg, func(d RoomTargetData) (any, MessageType, error) {
			if d.Seat == nil {
				return nil, "", &game.Error{Kind: game.KindInvalidPayload, Message: "seat index required"}
			}
			return okPayload, MessageTypeRoomInfo, s.rooms.Kick(d.RoomID, c.Player(), *d.Seat)
		})
	case MessageTypeRoomReady:
		s.withRoomTarget(c, msg, func(d RoomTargetData) (any, MessageType, error) {
			ready, err := s.rooms.ToggleReady(d.RoomID, c.Player())
			return map[string]any{"ready": ready}, MessageTypeRoomInfo, err
		})
	case MessageTypeRoomLock:
		s.withRoomTarget(c, msg, func(d RoomTargetData) (any, MessageType, error) {
			return okPayload, MessageTypeRoomInfo, s.rooms.SetLocked(d.RoomID, c.Player(), true)
		})
	case MessageTypeRoomUnlock:
		s.withRoomTarget(c, msg, func(d RoomTargetData) (any, MessageType, error) {
			return okPayload, MessageTypeRoomInfo, s.rooms.SetLocked(d.RoomID, c.Player(), false)
		})
	case MessageTypeRoomFillBots:
		s.withRoomTarget(c, msg, func(d RoomTargetData) (any, MessageType, error) {
			r, err := s.rooms.FillWithBots(d.RoomID, c.Player())
			return r, MessageTypeRoomInfo, err
		})
	case MessageTypeRoomStart:
		s.withRoomTarget(c, msg, func(d RoomTargetData) (any, MessageType, error) {
			g, err := s.rooms.Start(d.RoomID, c.Player())
			if err != nil {
				return nil, "", err
			}
			return g.State(), MessageTypeStateInfo, nil
		})
	case MessageTypeGameState:
		s.handleGameState(c, msg)
	case MessageTypeGameTurn:
		s.handleGameTurn(c, msg)
	case MessageTypeGameHand:
		s.handleGameHand(c, msg)
	case MessageTypeGameEvents:
		s.handleGameEvents(c, msg)
	case MessageTypeGameBid, MessageTypeGamePass, MessageTypeGameCoinche, MessageTypeGameSurcoinche, MessageTypeGamePlay:
		s.handleGameAction(c, msg)
	case MessageTypeGameInvalidate:
		s.handleInvalidate(c, msg)
	case MessageTypeSubscribe:
		s.handleSubscribe(c, msg)
	default:
		s.invalidPayload(c, msg.RequestID, "unknown message type "+msg.Type.String())
	}
}

var okPayload = map[string]any{"ok": true}

func (s *Service) handleHello(c *Connection, msg *Message) {
	var d HelloData
	if err := json.Unmarshal(msg.Data, &d); err != nil || d.Player == "" {
		s.invalidPayload(c, msg.RequestID, "player identity required")
		return
	}
	c.setIdentity(d.Player, d.Admin)
	c.reply(msg.RequestID, MessageTypeWelcome, map[string]any{"player": d.Player})
}

func (s *Service) handleRoomCreate(c *Connection, msg *Message) {
	var d RoomCreateData
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &d); err != nil {
			s.invalidPayload(c, msg.RequestID, "malformed room options")
			return
		}
	}
	r, err := s.rooms.Create(c.Player(), room.CreateOptions{
		GameType:    d.GameType,
		Visibility:  room.Visibility(d.Visibility),
		TargetScore: d.TargetScore,
		TurnTimeout: millis(d.TurnTimeoutMs),
	})
	if err != nil {
		s.replyError(c, msg.RequestID, err)
		return
	}
	c.reply(msg.RequestID, MessageTypeRoomInfo, r)
}

func (s *Service) handleRoomList(c *Connection, msg *Message) {
	var d RoomListData
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &d); err != nil {
			s.invalidPayload(c, msg.RequestID, "malformed list filter")
			return
		}
	}
	summaries := s.rooms.List(room.ListFilter{
		GameType:   d.GameType,
		Visibility: room.Visibility(d.Visibility),
		Status:     room.Status(d.Status),
		Offset:     d.Offset,
		Limit:      d.Limit,
	})
	c.reply(msg.RequestID, MessageTypeRoomsList, summaries)
}

func (s *Service) withRoomTarget(c *Connection, msg *Message, fn func(RoomTargetData) (any, MessageType, error)) {
	var d RoomTargetData
	if err := json.Unmarshal(msg.Data, &d); err != nil || d.RoomID == "" {
		s.invalidPayload(c, msg.RequestID, "roomId required")
		return
	}
	payload, t, err := fn(d)
	if err != nil {
		s.replyError(c, msg.RequestID, err)
		return
	}
	c.reply(msg.RequestID, t, payload)
}

func (s *Service) handleGameState(c *Connection, msg *Message) {
	var d GameQueryData
	if err := json.Unmarshal(msg.Data, &d); err != nil || d.GameID == "" {
		s.invalidPayload(c, msg.RequestID, "gameId required")
		return
	}
	g, err := s.rooms.GameByID(d.GameID)
	if err != nil {
		s.replyError(c, msg.RequestID, err)
		return
	}
	if d.SinceVersion > 0 {
		st, changed := g.StateSince(d.SinceVersion)
		c.reply(msg.RequestID, MessageTypeStateInfo, map[string]any{"state": st, "changed": changed})
		return
	}
	c.reply(msg.RequestID, MessageTypeStateInfo, g.State())
}

func (s *Service) handleGameTurn(c *Connection, msg *Message) {
	var d GameQueryData
	if err := json.Unmarshal(msg.Data, &d); err != nil || d.GameID == "" {
		s.invalidPayload(c, msg.RequestID, "gameId required")
		return
	}
	g, err := s.rooms.GameByID(d.GameID)
	if err != nil {
		s.replyError(c, msg.RequestID, err)
		return
	}
	seat, player, version := g.Turn()
	c.reply(msg.RequestID, MessageTypeStateInfo, map[string]any{
		"seat": seat, "player": player, "stateVersion": version,
	})
}

func (s *Service) handleGameHand(c *Connection, msg *Message) {
	var d GameQueryData
	if err := json.Unmarshal(msg.Data, &d); err != nil || d.GameID == "" {
		s.invalidPayload(c, msg.RequestID, "gameId required")
		return
	}
	g, err := s.rooms.GameByID(d.GameID)
	if err != nil {
		s.replyError(c, msg.RequestID, err)
		return
	}
	// the identity on the socket is the only seat it may read
	hand, err := g.HandFor(c.Player())
	if err != nil {
		s.replyError(c, msg.RequestID, err)
		return
	}
	c.reply(msg.RequestID, MessageTypeHandInfo, hand)
}

func (s *Service) handleGameEvents(c *Connection, msg *Message) {
	var d GameQueryData
	if err := json.Unmarshal(msg.Data, &d); err != nil || d.GameID == "" {
		s.invalidPayload(c, msg.RequestID, "gameId required")
		return
	}
	g, err := s.rooms.GameByID(d.GameID)
	if err != nil {
		s.replyError(c, msg.RequestID, err)
		return
	}
	// redact other seats' private events from the replay
	all := g.ListEvents(d.AfterEventID)
	visible := make([]events.Event, 0, len(all))
	for _, ev := range all {
		if ev.Type.Private() && ev.Recipient != c.Player() {
			continue
		}
		visible = append(visible, ev)
	}
	c.reply(msg.RequestID, MessageTypeEventList, visible)
}

func (s *Service) handleGameAction(c *Connection, msg *Message) {
	var d GameActionData
	if err := json.Unmarshal(msg.Data, &d); err != nil || d.GameID == "" {
		s.invalidPayload(c, msg.RequestID, "gameId required")
		return
	}
	g, err := s.rooms.GameByID(d.GameID)
	if err != nil {
		s.replyError(c, msg.RequestID, err)
		return
	}

	req := game.Request{
		Player:          c.Player(),
		ClientActionID:  d.ClientActionID,
		ExpectedVersion: d.ExpectedVersion,
	}

	var result game.MoveResult
	switch msg.Type {
	case MessageTypeGameBid:
		kind, kerr := rules.ParseKind(d.Kind)
		if kerr != nil {
			s.invalidPayload(c, msg.RequestID, kerr.Error())
			return
		}
		result, err = g.SubmitBid(req, kind, d.Value)
	case MessageTypeGamePass:
		result, err = g.SubmitPass(req)
	case MessageTypeGameCoinche:
		result, err = g.SubmitCoinche(req)
	case MessageTypeGameSurcoinche:
		result, err = g.SubmitSurcoinche(req)
	case MessageTypeGamePlay:
		card, cerr := deck.Parse(d.Card)
		if cerr != nil {
			s.invalidPayload(c, msg.RequestID, cerr.Error())
			return
		}
		result, err = g.SubmitPlay(req, card)
	}
	if err != nil {
		s.replyError(c, msg.RequestID, err)
		return
	}
	c.reply(msg.RequestID, MessageTypeMoveResult, result)
}

func (s *Service) handleInvalidate(c *Connection, msg *Message) {
	if !c.IsAdmin() {
		c.sendError(msg.RequestID, ErrorData{Kind: string(game.KindForbidden), Message: "operator role required"})
		return
	}
	var d GameActionData
	if err := json.Unmarshal(msg.Data, &d); err != nil || d.GameID == "" || d.MoveID == "" {
		s.invalidPayload(c, msg.RequestID, "gameId and moveId required")
		return
	}
	g, err := s.rooms.GameByID(d.GameID)
	if err != nil {
		s.replyError(c, msg.RequestID, err)
		return
	}
	if err := g.InvalidateMove(c.Player(), d.MoveID); err != nil {
		s.replyError(c, msg.RequestID, err)
		return
	}
	c.reply(msg.RequestID, MessageTypeMoveResult, okPayload)
}

func (s *Service) handleSubscribe(c *Connection, msg *Message) {
	var d SubscribeData
	if err := json.Unmarshal(msg.Data, &d); err != nil || d.Channel == "" {
		s.invalidPayload(c, msg.RequestID, "channel required")
		return
	}

	scope := events.ScopePublic
	key := d.Channel + "/public"
	if d.Private {
		scope = events.PrivateScope(c.Player())
		key = d.Channel + "/private"
	}
	sub := s.hub.Stream(d.Channel).Subscribe(scope)
	c.attachSubscription(key, sub)
	c.reply(msg.RequestID, MessageTypeEvent, map[string]any{"subscribed": d.Channel, "scope": scope})
}

// replyError maps core errors onto wire error frames.
func (s *Service) replyError(c *Connection, requestID string, err error) {
	var gerr *game.Error
	if errors.As(err, &gerr) {
		c.sendError(requestID, ErrorData{
			Kind:           string(gerr.Kind),
			Message:        gerr.Message,
			Violations:     gerr.Violations,
			CurrentVersion: gerr.CurrentVersion,
		})
		return
	}
	c.sendError(requestID, ErrorData{Kind: string(game.KindInvalidPayload), Message: err.Error()})
}

// invalidPayload frames a malformed-request rejection.
func (s *Service) invalidPayload(c *Connection, requestID, message string) {
	c.sendError(requestID, ErrorData{Kind: string(game.KindInvalidPayload), Message: message})
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
