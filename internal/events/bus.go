// Package events is the change notification bus used to tell open views that
// library data changed and should be reloaded.
//
// Repositories publish one Event per successful mutation. Subscribers get a
// buffered channel; an event is dropped for a subscriber whose buffer is
// full, so a slow listener never blocks a write.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entity names carried in events.
const (
	EntityCategory    = "category"
	EntityBook        = "book"
	EntityPatron      = "patron"
	EntityTransaction = "transaction"
)

// Actions carried in events.
const (
	ActionCreated  = "created"
	ActionUpdated  = "updated"
	ActionDeleted  = "deleted"
	ActionBorrowed = "borrowed"
	ActionReturned = "returned"
)

// DefaultBuffer is the per-subscriber channel size when none is configured.
const DefaultBuffer = 16

// Event describes one committed change.
type Event struct {
	ID       string    `json:"id"`
	Entity   string    `json:"entity"`
	Action   string    `json:"action"`
	EntityID string    `json:"entity_id"`
	At       time.Time `json:"at"`
}

// New builds an event with a fresh ID and the current time.
func New(entity, action, entityID string) Event {
	return Event{
		ID:       uuid.NewString(),
		Entity:   entity,
		Action:   action,
		EntityID: entityID,
		At:       time.Now().UTC(),
	}
}

// Publisher is what repositories need to announce changes.
type Publisher interface {
	Publish(Event)
}

// Noop discards every event.
type Noop struct{}

func (Noop) Publish(Event) {}

// Bus fans events out to subscribers.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string]chan Event
	buffer int
	closed bool
}

// NewBus creates a bus. buffer <= 0 uses DefaultBuffer.
func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Bus{
		subs:   make(map[string]chan Event),
		buffer: buffer,
	}
}

// Subscribe registers a listener. The returned cancel func unregisters it and
// closes the channel; it is safe to call more than once.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, b.buffer)
	id := uuid.NewString()

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if c, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(c)
			}
		})
	}
}

// Publish delivers e to every subscriber without blocking.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribers returns the number of active listeners.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close unregisters all subscribers and closes their channels.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
