// Package eventbus carries dispatch, telemetry and broadcast events
// from the coordinator's domain logic to the metrics recorder without
// coupling either side to the other.
package eventbus

import "sync"

// Event is any value published on the bus, in practice one of the
// core/events types.
type Event any

// EventBus is a non-blocking publish/subscribe bus. The dispatch and
// broadcast paths publish on it; publishing must never block them.
type EventBus interface {
	Publish(Event)
	Subscribe() <-chan Event
	Unsubscribe(<-chan Event)
	Close()
}

// subscriberBuffer absorbs event bursts between recorder reads, e.g.
// a request, its instruction and a broadcast landing in one cycle.
const subscriberBuffer = 16

// Bus fans events out to channel subscribers. A subscriber that falls
// behind misses events; it never stalls a publisher.
type Bus struct {
	mu     sync.RWMutex
	subs   []chan Event
	closed bool
}

// New creates an open Bus.
func New() *Bus { return &Bus{} }

// Publish delivers the event to every subscriber whose buffer has room
// and returns immediately.
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

// Subscribe returns a channel receiving future events. The channel is
// closed by Unsubscribe or Close.
func (b *Bus) Subscribe() <-chan Event {
	ch := make(chan Event, subscriberBuffer)
	b.mu.Lock()
	if b.closed {
		close(ch)
	} else {
		b.subs = append(b.subs, ch)
	}
	b.mu.Unlock()
	return ch
}

// Unsubscribe detaches the subscriber and closes its channel.
func (b *Bus) Unsubscribe(sub <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, ch := range b.subs {
		if ch == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			if !b.closed {
				close(ch)
			}
			return
		}
	}
}

// Close shuts the bus down and closes all subscriber channels.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}
