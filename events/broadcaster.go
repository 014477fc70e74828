// Package events carries the storefront's announcement stream. Every cart
// mutation, theme change, order confirmation and auth state change publishes an
// Event here; connected clients receive them over Server-Sent Events. This is
// the service-side counterpart of the original storefront's toast notifications
// and screen-reader announcements.
package events

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// client holds the channel and state for one connected listener.
type client struct {
	events chan Event
}

// Broadcaster manages SSE clients and fans every published event out to all of
// them. Publishing never blocks: a client whose buffer is full simply misses
// the event, the same way a toast that nobody watches just expires.
type Broadcaster struct {
	clients map[string]*client
	// RWMutex: publishes only read the map, subscribe/unsubscribe write it.
	mu     sync.RWMutex
	logger *zap.Logger
}

// NewBroadcaster creates an empty Broadcaster.
func NewBroadcaster(logger *zap.Logger) *Broadcaster {
	return &Broadcaster{
		clients: make(map[string]*client),
		logger:  logger,
	}
}

// Subscribe registers a new listener and returns its id plus a receive-only
// event channel. The caller must eventually call Unsubscribe with the id.
func (b *Broadcaster) Subscribe() (string, <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.New().String()
	c := &client{
		// Buffered so a briefly slow reader does not stall publishers.
		events: make(chan Event, 32),
	}
	b.clients[id] = c
	b.logger.Debug("event listener subscribed", zap.String("client_id", id))
	return id, c.events
}

// Unsubscribe removes a listener and closes its channel.
func (b *Broadcaster) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if c, ok := b.clients[id]; ok {
		close(c.events)
		delete(b.clients, id)
		b.logger.Debug("event listener unsubscribed", zap.String("client_id", id))
	}
}

// Publish delivers the event to every subscribed listener without blocking.
// Returns the number of listeners that received it.
func (b *Broadcaster) Publish(event Event) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	delivered := 0
	for id, c := range b.clients {
		select {
		case c.events <- event:
			delivered++
		default:
			// Buffer full: drop for this client rather than stall the caller.
			b.logger.Warn("dropping event for slow listener",
				zap.String("client_id", id), zap.String("type", string(event.Type)))
		}
	}
	return delivered
}

// ListenerCount reports how many clients are currently subscribed.
func (b *Broadcaster) ListenerCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}
