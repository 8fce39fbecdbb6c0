package events

import (
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// subscriberBuffer is the per-subscriber queue depth. A subscriber that
// falls this far behind is dropped rather than allowed to stall the
// producing game.
const subscriberBuffer = 256

// ScopePublic subscribes to the public view of a channel.
const ScopePublic = "public"

// PrivateScope returns the subscription scope for a seat identity,
// which receives public events interleaved with that identity's
// private events in version order.
func PrivateScope(player string) string {
	return "private:" + player
}

// Stream is one channel of the fabric: the append-only log for a game
// (or room) plus its subscriber set.
type Stream struct {
	id     string
	logger *log.Logger

	mu     sync.Mutex
	events []Event
	subs   map[*Subscription]struct{}
}

// Subscription is a registered consumer of a stream. Events arrive on
// Events() in version order; the channel closes when the subscriber is
// dropped or the subscription is closed.
type Subscription struct {
	stream  *Stream
	scope   string
	player  string
	ch      chan Event
	closed  bool
	dropped bool
}

func newStream(id string, logger *log.Logger) *Stream {
	return &Stream{
		id:     id,
		logger: logger.With("channel", id),
		subs:   make(map[*Subscription]struct{}),
	}
}

// ID returns the channel id the stream serves.
func (s *Stream) ID() string { return s.id }

// Subscribe registers a consumer on the given scope: ScopePublic or
// PrivateScope(player).
func (s *Stream) Subscribe(scope string) *Subscription {
	sub := &Subscription{
		stream: s,
		scope:  scope,
		ch:     make(chan Event, subscriberBuffer),
	}
	if player, ok := strings.CutPrefix(scope, "private:"); ok {
		sub.player = player
	}

	s.mu.Lock()
	s.subs[sub] = struct{}{}
	s.mu.Unlock()
	return sub
}

// Events returns the subscription's delivery channel.
func (sub *Subscription) Events() <-chan Event { return sub.ch }

// Close unregisters the subscription and closes its channel.
func (sub *Subscription) Close() {
	sub.stream.mu.Lock()
	defer sub.stream.mu.Unlock()
	sub.stream.removeLocked(sub)
}

func (s *Stream) removeLocked(sub *Subscription) {
	if sub.closed {
		return
	}
	sub.closed = true
	delete(s.subs, sub)
	close(sub.ch)
}

// Append records an event in the log and fans it out. Appends happen in
// commit order under the producing game's serialization token, so every
// subscriber observes versions in the order they were produced.
func (s *Stream) Append(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	s.fanoutLocked(ev)
}

// Broadcast fans an event out without appending it to the replayable
// log. Used for heartbeats.
func (s *Stream) Broadcast(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fanoutLocked(ev)
}

func (s *Stream) fanoutLocked(ev Event) {
	for sub := range s.subs {
		if ev.Type.Private() && ev.Recipient != sub.player {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			// slow subscriber: drop it rather than block the game
			sub.dropped = true
			s.logger.Warn("Dropping slow subscriber", "scope", sub.scope, "buffered", len(sub.ch))
			s.removeLocked(sub)
		}
	}
}

// ListAfter returns the suffix of the log following the named event id.
// An empty or unknown id returns the entire log: a caller that lost its
// cursor needs a fresh baseline.
func (s *Stream) ListAfter(afterEventID string) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := 0
	if afterEventID != "" {
		for i, ev := range s.events {
			if ev.ID == afterEventID {
				start = i + 1
				break
			}
		}
	}
	out := make([]Event, len(s.events)-start)
	copy(out, s.events[start:])
	return out
}

// LastVersion returns the version of the most recently appended event.
func (s *Stream) LastVersion() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.events) == 0 {
		return 0
	}
	return s.events[len(s.events)-1].Version
}

// SubscriberCount returns the number of live subscriptions.
func (s *Stream) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}
