package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/hilthontt/parley/internal/infrastructure/logging"
)

const emitTimeout = 5 * time.Second

// RoomSubscriptions counts the screens interested in each room. The first
// acquire emits room:join, the last release emits room:leave, and every
// counted room is joined again after a reconnect.
type RoomSubscriptions struct {
	src    Source
	logger logging.Logger

	mu     sync.Mutex
	counts map[string]int
	unsub  func()
}

func NewRoomSubscriptions(src Source, logger logging.Logger) *RoomSubscriptions {
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &RoomSubscriptions{
		src:    src,
		logger: logger,
		counts: make(map[string]int),
	}
	r.unsub = src.OnStatus(func(st Status) {
		if st == StatusConnected {
			go r.rejoin()
		}
	})
	return r
}

// Acquire registers interest in roomID. The returned release is idempotent.
func (r *RoomSubscriptions) Acquire(roomID string) (release func()) {
	r.mu.Lock()
	r.counts[roomID]++
	first := r.counts[roomID] == 1
	r.mu.Unlock()

	if first {
		r.emit(RoomJoin, roomID)
	}

	var once sync.Once
	return func() {
		once.Do(func() { r.release(roomID) })
	}
}

func (r *RoomSubscriptions) release(roomID string) {
	r.mu.Lock()
	r.counts[roomID]--
	last := r.counts[roomID] <= 0
	if last {
		delete(r.counts, roomID)
	}
	r.mu.Unlock()

	if last {
		r.emit(RoomLeave, roomID)
	}
}

// Count reports the current reference count of roomID.
func (r *RoomSubscriptions) Count(roomID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[roomID]
}

func (r *RoomSubscriptions) rejoin() {
	r.mu.Lock()
	rooms := make([]string, 0, len(r.counts))
	for id := range r.counts {
		rooms = append(rooms, id)
	}
	r.mu.Unlock()

	for _, id := range rooms {
		r.emit(RoomJoin, id)
	}
}

func (r *RoomSubscriptions) emit(event Event, roomID string) {
	ctx, cancel := context.WithTimeout(context.Background(), emitTimeout)
	defer cancel()

	if err := r.src.Emit(ctx, event, roomID); err != nil {
		r.logger.Debug(logging.Realtime, logging.Outbound, "room emit skipped", map[logging.ExtraKey]any{
			logging.Event:        string(event),
			logging.RoomID:       roomID,
			logging.ErrorMessage: err.Error(),
		})
	}
}

func (r *RoomSubscriptions) Close() {
	if r.unsub != nil {
		r.unsub()
	}
}
