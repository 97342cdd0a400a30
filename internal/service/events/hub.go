package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Action describes what happened to a record.
type Action string

const (
	Created Action = "created"
	Updated Action = "updated"
	Deleted Action = "deleted"
)

// Event is one record mutation as seen by change-feed subscribers.
type Event struct {
	Collection string    `json:"collection"`
	Action     Action    `json:"action"`
	ID         string    `json:"id"`
	Record     any       `json:"record,omitempty"`
	At         time.Time `json:"at"`
}

// Publisher accepts events. A nil *Hub is a valid Publisher that drops everything.
type Publisher interface {
	Publish(Event)
}

const defaultBuffer = 64

// Hub fans events out to subscribers. Publish never blocks: a subscriber
// whose buffer is full misses the event.
type Hub struct {
	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	buffer int
	closed bool
	log    zerolog.Logger
}

// NewHub creates a hub whose subscriptions buffer up to 64 events.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		subs:   make(map[*Subscription]struct{}),
		buffer: defaultBuffer,
		log:    logger.With().Str("component", "events").Logger(),
	}
}

// Subscription receives events for one collection, or all when collection is empty.
type Subscription struct {
	ch         chan Event
	collection string
	once       sync.Once
}

// Events is closed when the subscription ends.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

func (s *Subscription) wants(e Event) bool {
	return s.collection == "" || s.collection == e.Collection
}

func (s *Subscription) close() {
	s.once.Do(func() { close(s.ch) })
}

// Subscribe registers a new subscription.
func (h *Hub) Subscribe(collection string) *Subscription {
	sub := &Subscription{ch: make(chan Event, h.buffer), collection: collection}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		sub.close()
		return sub
	}
	h.subs[sub] = struct{}{}
	return sub
}

// Unsubscribe removes sub and closes its channel.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	delete(h.subs, sub)
	h.mu.Unlock()
	sub.close()
}

// Publish delivers e to every interested subscriber.
func (h *Hub) Publish(e Event) {
	if h == nil {
		return
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs {
		if !sub.wants(e) {
			continue
		}
		select {
		case sub.ch <- e:
		default:
			h.log.Warn().
				Str("collection", e.Collection).
				Str("id", e.ID).
				Msg("subscriber buffer full, dropping event")
		}
	}
}

// Subscribers reports the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close ends every subscription. Later subscriptions are closed immediately.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for sub := range h.subs {
		sub.close()
		delete(h.subs, sub)
	}
}
