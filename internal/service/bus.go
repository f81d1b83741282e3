package service

import "sync"

// Resources named in events.
const (
	ResourceLayers   = "layers"
	ResourceMap      = "map"
	ResourceSessions = "sessions"
)

// Event describes a change to a resource.
type Event struct {
	Resource string   // ResourceLayers, ResourceMap, ResourceSessions
	Action   string   // "created", "updated", "deleted", "reordered", ...
	ID       string   // resource ID, empty for the map
	Layers   []string // map draw order after a map change
}

// EventBus fans change events out to subscribers.
type EventBus struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
}

// NewEventBus creates an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[chan Event]struct{})}
}

// Publish sends an event to every subscriber without blocking. Subscribers
// whose buffer is full miss the event.
func (b *EventBus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribe returns a buffered channel that receives events.
func (b *EventBus) Subscribe() chan Event {
	ch := make(chan Event, 16)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *EventBus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
	close(ch)
}
