package events

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/coinchelab/coinched/internal/gameid"
)

// HeartbeatInterval is the cadence at which system.heartbeat frames are
// broadcast to active subscribers.
const HeartbeatInterval = 15 * time.Second

// Hub is the shared event fabric. Streams are partitioned per channel
// id (game or room); there is no cross-channel contention beyond the
// registry map.
type Hub struct {
	logger *log.Logger
	clock  quartz.Clock

	mu      sync.RWMutex
	streams map[string]*Stream
}

// NewHub creates an empty fabric.
func NewHub(logger *log.Logger, clock quartz.Clock) *Hub {
	return &Hub{
		logger:  logger.WithPrefix("events"),
		clock:   clock,
		streams: make(map[string]*Stream),
	}
}

// Stream returns the channel for the given id, creating it on demand.
func (h *Hub) Stream(id string) *Stream {
	h.mu.RLock()
	s, ok := h.streams[id]
	h.mu.RUnlock()
	if ok {
		return s
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok = h.streams[id]; ok {
		return s
	}
	s = newStream(id, h.logger)
	h.streams[id] = s
	return s
}

// Remove drops a channel from the registry, closing its subscribers.
func (h *Hub) Remove(id string) {
	h.mu.Lock()
	s, ok := h.streams[id]
	delete(h.streams, id)
	h.mu.Unlock()
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for sub := range s.subs {
		s.removeLocked(sub)
	}
}

// Run broadcasts heartbeats to every active subscriber until the
// context is cancelled. Heartbeats carry the channel's last known
// version, do not bump it, and are not replayable.
func (h *Hub) Run(ctx context.Context) error {
	ticker := h.clock.NewTicker(HeartbeatInterval, "heartbeat")
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			h.broadcastHeartbeats(now)
		}
	}
}

func (h *Hub) broadcastHeartbeats(now time.Time) {
	h.mu.RLock()
	streams := make([]*Stream, 0, len(h.streams))
	for _, s := range h.streams {
		streams = append(streams, s)
	}
	h.mu.RUnlock()

	for _, s := range streams {
		if s.SubscriberCount() == 0 {
			continue
		}
		s.Broadcast(Event{
			ID:         gameid.New(gameid.PrefixEvent),
			Type:       TypeSystemHeartbeat,
			OccurredAt: now,
			Source:     "fabric",
			GameID:     s.ID(),
			Version:    s.LastVersion(),
		})
	}
}
