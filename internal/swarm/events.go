package swarm

import (
	"sync"
	"time"
)

// EventKind names the operation that changed the fleet.
type EventKind string

const (
	EventScan    EventKind = "scan"
	EventRefresh EventKind = "refresh"
	EventAdd     EventKind = "add"
	EventRemove  EventKind = "remove"
)

// Event is published once per completed batch or manual change.
type Event struct {
	Kind EventKind
	// Added is the number of new devices; only set for scans and adds.
	Added int
	// Total is the fleet size after the change.
	Total int
	At    time.Time
}

const eventBuffer = 16

type broker struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

// subscribe registers a listener. The returned func unsubscribes and
// closes the channel.
func (b *broker) subscribe() (<-chan Event, func()) {
	ch := make(chan Event, eventBuffer)
	b.mu.Lock()
	if b.subs == nil {
		b.subs = make(map[chan Event]struct{})
	}
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// publish never blocks; a full subscriber misses the event.
func (b *broker) publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}
