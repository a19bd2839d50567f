// Package signals is a small in-process publish/subscribe bus for the
// session and connectivity events the sync scheduler reacts to.
package signals

import "sync"

// Signal names an event.
type Signal string

const (
	// AuthChanged fires after login, logout and a dropped session.
	AuthChanged Signal = "auth-changed"
	Online      Signal = "online"
	Offline     Signal = "offline"
)

// Bus fans published signals out to subscribers. Publish never blocks:
// a subscriber whose buffer is full misses the signal.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Signal
	closed bool
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Signal)}
}

// Subscribe returns a channel of signals and a function that detaches it.
// The channel is closed by the returned function.
func (b *Bus) Subscribe(buffer int) (<-chan Signal, func()) {
	ch := make(chan Signal, buffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			// Close may have closed ch already.
			if _, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(ch)
			}
		})
	}
}

func (b *Bus) Publish(sig Signal) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- sig:
		default:
		}
	}
}

// Close closes every subscriber channel. Later publishes are dropped and
// later subscriptions get a closed channel.
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
