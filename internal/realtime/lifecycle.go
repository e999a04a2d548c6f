package realtime

import (
	"sync"

	"github.com/hilthontt/parley/internal/infrastructure/logging"
	"github.com/hilthontt/parley/internal/session"
)

// Connector is the part of Socket the lifecycle drives.
type Connector interface {
	Connect(token string)
	Disconnect()
	Running() bool
	OnStatus(fn func(Status)) (unsubscribe func())
}

// Lifecycle keeps at most one connection open, and only while the session
// has both a token and a profile. Connection status is mirrored into the
// session's online flag.
type Lifecycle struct {
	store  *session.Store
	conn   Connector
	logger logging.Logger

	wake chan struct{}
	done chan struct{}
	wg   sync.WaitGroup

	mu     sync.Mutex
	token  string
	unsubs []func()
	once   sync.Once
}

func NewLifecycle(store *session.Store, conn Connector, logger logging.Logger) *Lifecycle {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Lifecycle{
		store:  store,
		conn:   conn,
		logger: logger,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Start subscribes to the session and performs the first sync. Session
// changes are applied on a dedicated goroutine so that store subscribers
// never call back into the socket.
func (l *Lifecycle) Start() {
	l.mu.Lock()
	l.unsubs = append(l.unsubs,
		l.store.Subscribe(func(session.Snapshot) { l.poke() }),
		l.conn.OnStatus(func(st Status) { l.store.SetOnline(st == StatusConnected) }),
	)
	l.mu.Unlock()

	l.sync()

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		for {
			select {
			case <-l.wake:
				l.sync()
			case <-l.done:
				return
			}
		}
	}()
}

func (l *Lifecycle) poke() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *Lifecycle) sync() {
	snap := l.store.Snapshot()

	l.mu.Lock()
	defer l.mu.Unlock()

	switch {
	case snap.Authenticated() && snap.Token != l.token:
		l.token = snap.Token
		l.logger.Info(logging.Realtime, logging.Connect, "session ready, opening connection", map[logging.ExtraKey]any{
			logging.UserID: snap.User.ID,
		})
		l.conn.Connect(snap.Token)
	case !snap.Authenticated() && l.token != "":
		l.token = ""
		l.logger.Info(logging.Realtime, logging.Disconnect, "session ended, closing connection", nil)
		l.conn.Disconnect()
	}
}

// Resync reopens the connection after reconnection attempts ran out. Screens
// call it when they mount.
func (l *Lifecycle) Resync() {
	l.mu.Lock()
	token := l.token
	l.mu.Unlock()

	if token != "" && !l.conn.Running() {
		l.conn.Connect(token)
	}
}

// Stop unsubscribes, waits for the sync goroutine and closes the
// connection.
func (l *Lifecycle) Stop() {
	l.once.Do(func() {
		close(l.done)
		l.wg.Wait()

		l.mu.Lock()
		for _, fn := range l.unsubs {
			fn()
		}
		l.unsubs = nil
		l.token = ""
		l.mu.Unlock()

		l.conn.Disconnect()
	})
}
