package service

import (
	"context"
	"slices"
	"sync"
)

// ─────────────────────────────────────────────────────────────
// Event fan-out
// ─────────────────────────────────────────────────────────────

// EventEmitter is an interface for publishing events to renderers.
// The store receives this interface instead of a concrete transport,
// which makes it independently testable with a mock emitter.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// Listener receives every event published through a Broadcaster.
type Listener func(event string, data any)

// Broadcaster fans events out to any number of in-process listeners.
// Listeners run synchronously on the emitting goroutine and must not call
// back into the store that emitted the event.
type Broadcaster struct {
	mu        sync.RWMutex
	nextID    int
	listeners map[int]Listener
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{listeners: make(map[int]Listener)}
}

// Subscribe registers l and returns a function that removes it.
func (b *Broadcaster) Subscribe(l Listener) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = l
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.listeners, id)
			b.mu.Unlock()
		})
	}
}

// Emit delivers the event to listeners in subscription order.
func (b *Broadcaster) Emit(ctx context.Context, event string, data any) {
	if ctx != nil && ctx.Err() != nil {
		return
	}
	b.mu.RLock()
	ids := make([]int, 0, len(b.listeners))
	for id := range b.listeners {
		ids = append(ids, id)
	}
	b.mu.RUnlock()

	slices.Sort(ids)
	for _, id := range ids {
		b.mu.RLock()
		l, ok := b.listeners[id]
		b.mu.RUnlock()
		if ok {
			l(event, data)
		}
	}
}

// MockEmitter is a test-friendly EventEmitter that records all calls.
type MockEmitter struct {
	mu     sync.Mutex
	Events []EmittedEvent
}

// EmittedEvent holds a single recorded emission for test assertions.
type EmittedEvent struct {
	Event string
	Data  any
}

func (m *MockEmitter) Emit(_ context.Context, event string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, EmittedEvent{Event: event, Data: data})
}

// Recorded returns a copy of the events emitted so far.
func (m *MockEmitter) Recorded() []EmittedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]EmittedEvent(nil), m.Events...)
}
