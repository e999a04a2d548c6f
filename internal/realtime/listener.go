package realtime

import (
	"context"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/hilthontt/parley/internal/infrastructure/logging"
)

const DefaultListenerBuffer = 256

// Listener forwards a fixed set of events, plus connection status changes,
// into a buffered channel. A screen opens one when it mounts and closes it
// when it unmounts.
type Listener struct {
	events mapset.Set[Event]
	ch     chan Message
	done   chan struct{}
	logger logging.Logger

	mu     sync.Mutex
	unsubs []func()
	once   sync.Once
}

func Listen(src Source, logger logging.Logger, events ...Event) *Listener {
	if logger == nil {
		logger = logging.NewNop()
	}

	l := &Listener{
		events: mapset.NewSet(events...),
		ch:     make(chan Message, DefaultListenerBuffer),
		done:   make(chan struct{}),
		logger: logger,
	}

	l.events.Each(func(ev Event) bool {
		l.unsubs = append(l.unsubs, src.Subscribe(ev, l.forward))
		return false
	})
	l.unsubs = append(l.unsubs, src.OnStatus(func(st Status) {
		l.forward(Message{Event: StatusChanged, Status: st})
	}))

	return l
}

func (l *Listener) forward(m Message) {
	select {
	case <-l.done:
		return
	default:
	}

	select {
	case l.ch <- m:
	case <-l.done:
	default:
		l.logger.Warn(logging.Realtime, logging.Inbound, "listener buffer full, dropping event", map[logging.ExtraKey]any{
			logging.Event: string(m.Event),
		})
	}
}

// Handles reports whether the listener was registered for event.
func (l *Listener) Handles(event Event) bool {
	return l.events.Contains(event)
}

// Next blocks until an event arrives. ok is false once the listener is
// closed or ctx is done.
func (l *Listener) Next(ctx context.Context) (m Message, ok bool) {
	select {
	case m = <-l.ch:
		return m, true
	case <-l.done:
		return Message{}, false
	case <-ctx.Done():
		return Message{}, false
	}
}

// Close deregisters every event. Pending events are discarded.
func (l *Listener) Close() {
	l.once.Do(func() {
		close(l.done)
		l.mu.Lock()
		for _, fn := range l.unsubs {
			fn()
		}
		l.unsubs = nil
		l.mu.Unlock()
	})
}
