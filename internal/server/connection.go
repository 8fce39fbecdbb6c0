package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/coinchelab/coinched/internal/events"
	"github.com/coinchelab/coinched/internal/game"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 256
)

// Connection is one websocket client: its identity, send queue, and
// fabric subscriptions.
type Connection struct {
	conn    *websocket.Conn
	service *Service
	logger  *log.Logger
	send    chan []byte
	ctx     context.Context
	cancel  context.CancelFunc

	mu     sync.Mutex
	player string
	admin  bool
	subs   map[string]*events.Subscription // channel key -> subscription
}

// NewConnection wraps an upgraded websocket.
func NewConnection(conn *websocket.Conn, logger *log.Logger, service *Service) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	return &Connection{
		conn:    conn,
		service: service,
		logger:  logger.WithPrefix("conn"),
		send:    make(chan []byte, sendBuffer),
		ctx:     ctx,
		cancel:  cancel,
		subs:    make(map[string]*events.Subscription),
	}
}

// Start launches the read and write pumps.
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close tears the connection down and releases its subscriptions.
func (c *Connection) Close() error {
	c.cancel()

	c.mu.Lock()
	for _, sub := range c.subs {
		sub.Close()
	}
	c.subs = make(map[string]*events.Subscription)
	c.mu.Unlock()

	return c.conn.Close()
}

// Player returns the authenticated identity, empty before hello.
func (c *Connection) Player() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.player
}

func (c *Connection) setIdentity(player string, admin bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.player = player
	c.admin = admin
}

// IsAdmin reports whether the hello claimed the operator role.
func (c *Connection) IsAdmin() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.admin
}

// SendMessage queues a message; a full queue drops the connection
// rather than blocking the caller.
func (c *Connection) SendMessage(msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	select {
	case c.send <- data:
		return nil
	case <-c.ctx.Done():
		return context.Canceled
	default:
		c.logger.Warn("Send queue full, closing connection", "player", c.Player())
		c.cancel()
		return context.Canceled
	}
}

// attachSubscription registers a fabric subscription and forwards its
// events to the socket until it drains or the connection dies.
func (c *Connection) attachSubscription(key string, sub *events.Subscription) {
	c.mu.Lock()
	if prev, ok := c.subs[key]; ok {
		prev.Close()
	}
	c.subs[key] = sub
	c.mu.Unlock()

	go func() {
		for {
			select {
			case ev, ok := <-sub.Events():
				if !ok {
					return
				}
				msg, err := NewMessage(MessageTypeEvent, ev)
				if err != nil {
					c.logger.Error("Failed to encode event", "error", err)
					continue
				}
				if err := c.SendMessage(msg); err != nil {
					return
				}
			case <-c.ctx.Done():
				return
			}
		}
	}()
}

// readPump consumes client frames and routes them to the service.
func (c *Connection) readPump() {
	defer func() {
		_ = c.Close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Error("Unexpected close", "error", err, "player", c.Player())
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.sendError(msg.RequestID, ErrorData{Kind: string(game.KindInvalidPayload), Message: "malformed message"})
			continue
		}
		c.service.Handle(c, &msg)
	}
}

// writePump drains the send queue onto the socket and keeps pings going.
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Connection) sendError(requestID string, data ErrorData) {
	msg, err := NewMessage(MessageTypeError, data)
	if err != nil {
		return
	}
	msg.RequestID = requestID
	_ = c.SendMessage(msg)
}

func (c *Connection) reply(requestID string, t MessageType, data any) {
	msg, err := NewMessage(t, data)
	if err != nil {
		c.logger.Error("Failed to encode reply", "type", t, "error", err)
		return
	}
	msg.RequestID = requestID
	_ = c.SendMessage(msg)
}
