// Package realtime carries server-pushed events to the application over a
// single websocket connection per signed-in session.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

var ErrNotConnected = errors.New("realtime: not connected")

type Status int

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "online"
	default:
		return "offline"
	}
}

// Message is one inbound event. Status is set only for StatusChanged.
type Message struct {
	Event  Event
	Data   json.RawMessage
	Status Status
}

type Handler func(Message)

// Source is anything that delivers named events and accepts outbound ones.
type Source interface {
	Subscribe(event Event, h Handler) (unsubscribe func())
	OnStatus(fn func(Status)) (unsubscribe func())
	Emit(ctx context.Context, event Event, payload any) error
	Status() Status
}

// Bus fans events out to subscribers. Handlers run on the dispatching
// goroutine and must not block.
type Bus struct {
	mu         sync.RWMutex
	handlers   map[Event]map[int]Handler
	statusSubs map[int]func(Status)
	next       int
	status     Status
}

func NewBus() *Bus {
	return &Bus{
		handlers:   make(map[Event]map[int]Handler),
		statusSubs: make(map[int]func(Status)),
	}
}

func (b *Bus) Subscribe(event Event, h Handler) func() {
	b.mu.Lock()
	id := b.next
	b.next++
	if b.handlers[event] == nil {
		b.handlers[event] = make(map[int]Handler)
	}
	b.handlers[event][id] = h
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.handlers[event], id)
			if len(b.handlers[event]) == 0 {
				delete(b.handlers, event)
			}
			b.mu.Unlock()
		})
	}
}

func (b *Bus) OnStatus(fn func(Status)) func() {
	b.mu.Lock()
	id := b.next
	b.next++
	b.statusSubs[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.statusSubs, id)
			b.mu.Unlock()
		})
	}
}

// Dispatch delivers m to the handlers of m.Event and reports how many there
// were.
func (b *Bus) Dispatch(m Message) int {
	b.mu.RLock()
	hs := make([]Handler, 0, len(b.handlers[m.Event]))
	for _, h := range b.handlers[m.Event] {
		hs = append(hs, h)
	}
	b.mu.RUnlock()

	for _, h := range hs {
		h(m)
	}
	return len(hs)
}

// Subscribers reports how many handlers are registered for event.
func (b *Bus) Subscribers(event Event) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[event])
}

func (b *Bus) Status() Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status
}

// SetStatus records s and notifies status subscribers when it changed.
func (b *Bus) SetStatus(s Status) bool {
	b.mu.Lock()
	if b.status == s {
		b.mu.Unlock()
		return false
	}
	b.status = s
	fns := make([]func(Status), 0, len(b.statusSubs))
	for _, fn := range b.statusSubs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
	return true
}
