// Package realtimetest provides an in-memory realtime.Source for tests.
package realtimetest

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/hilthontt/parley/internal/realtime"
)

type Emitted struct {
	Event   realtime.Event
	Payload any
}

// Source records emits and lets tests push inbound events synchronously.
type Source struct {
	*realtime.Bus

	mu      sync.Mutex
	emitted []Emitted
	// EmitErr, when set, is returned by Emit and nothing is recorded.
	EmitErr error
}

func NewSource() *Source {
	s := &Source{Bus: realtime.NewBus()}
	s.Bus.SetStatus(realtime.StatusConnected)
	return s
}

func (s *Source) Emit(_ context.Context, event realtime.Event, payload any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.EmitErr != nil {
		return s.EmitErr
	}
	s.emitted = append(s.emitted, Emitted{Event: event, Payload: payload})
	return nil
}

func (s *Source) Emitted() []Emitted {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Emitted(nil), s.emitted...)
}

func (s *Source) Reset() {
	s.mu.Lock()
	s.emitted = nil
	s.mu.Unlock()
}

// Push marshals payload and dispatches it as event.
func (s *Source) Push(event realtime.Event, payload any) int {
	raw, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}
	return s.Bus.Dispatch(realtime.Message{Event: event, Data: raw})
}
