// Package events is the in-process subscription registry of one store instance.
package events

import (
	"sync"

	"github.com/rs/zerolog"
)

// Listener receives the payload published on a channel
type Listener func(data any)

// Bus delivers published payloads to the listeners of a channel.
// Delivery is synchronous and happens in the publisher's goroutine.
type Bus struct {
	mu        sync.RWMutex
	nextID    uint64
	listeners map[string]map[uint64]Listener
	log       zerolog.Logger
}

// NewBus creates an empty registry
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		listeners: make(map[string]map[uint64]Listener),
		log:       log,
	}
}

// Subscribe registers fn on channel and returns a func removing exactly this registration
func (b *Bus) Subscribe(channel string, fn Listener) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	if b.listeners[channel] == nil {
		b.listeners[channel] = make(map[uint64]Listener)
	}
	b.listeners[channel][id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.listeners[channel], id)
			if len(b.listeners[channel]) == 0 {
				delete(b.listeners, channel)
			}
		})
	}
}

// Publish calls every listener of channel with data. A panicking listener is
// logged and does not stop delivery to the others.
func (b *Bus) Publish(channel string, data any) {
	b.mu.RLock()
	fns := make([]Listener, 0, len(b.listeners[channel]))
	for _, fn := range b.listeners[channel] {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		b.deliver(channel, fn, data)
	}
}

// Count returns the number of listeners on channel
func (b *Bus) Count(channel string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners[channel])
}

func (b *Bus) deliver(channel string, fn Listener, data any) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Warn().Str("channel", channel).Interface("panic", r).Msg("listener panicked")
		}
	}()
	fn(data)
}
