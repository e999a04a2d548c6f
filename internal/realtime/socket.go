package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gorilla/websocket"
	apisdk "github.com/hilthontt/parley/api-sdk"
	"github.com/hilthontt/parley/internal/infrastructure/logging"
	"golang.org/x/time/rate"
)

var errUnauthorized = errors.New("realtime: unauthorized")

// Dialer opens the websocket. apisdk.RealtimeService satisfies it.
type Dialer interface {
	Dial(ctx context.Context, endpoint *url.URL, token string, handshakeTimeout time.Duration) (*websocket.Conn, error)
}

type Config struct {
	Endpoint          *url.URL
	ReconnectAttempts int
	ReconnectDelay    time.Duration
	HandshakeTimeout  time.Duration
	EmitRatePerSecond float64
	EmitBurst         int
}

func DefaultConfig() Config {
	return Config{
		ReconnectAttempts: 5,
		ReconnectDelay:    time.Second,
		HandshakeTimeout:  10 * time.Second,
		EmitRatePerSecond: 10,
		EmitBurst:         5,
	}
}

type connWrapper struct {
	conn  *websocket.Conn
	mutex sync.Mutex
}

func newConnWrapper(c *websocket.Conn) *connWrapper {
	return &connWrapper{conn: c}
}

func (w *connWrapper) WriteJSON(v any) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.conn.WriteJSON(v)
}

func (w *connWrapper) Close() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.conn.Close()
}

// Socket is the websocket-backed Source. Connect starts a background loop
// that dials, reads frames and redials after a drop, up to
// ReconnectAttempts tries per outage. After that the socket stays
// disconnected until Connect is called again.
type Socket struct {
	*Bus

	cfg     Config
	dialer  Dialer
	logger  logging.Logger
	limiter *rate.Limiter

	mu      sync.Mutex
	conn    *connWrapper
	token   string
	cancel  context.CancelFunc
	running bool

	statusMu sync.Mutex
	gen      atomic.Uint64
}

func NewSocket(dialer Dialer, cfg Config, logger logging.Logger) *Socket {
	if logger == nil {
		logger = logging.NewNop()
	}
	def := DefaultConfig()
	if cfg.ReconnectAttempts <= 0 {
		cfg.ReconnectAttempts = def.ReconnectAttempts
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = def.ReconnectDelay
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = def.HandshakeTimeout
	}

	limit := rate.Inf
	if cfg.EmitRatePerSecond > 0 {
		limit = rate.Limit(cfg.EmitRatePerSecond)
	}
	burst := cfg.EmitBurst
	if burst <= 0 {
		burst = 1
	}

	return &Socket{
		Bus:     NewBus(),
		cfg:     cfg,
		dialer:  dialer,
		logger:  logger,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Connect starts the connection loop for token. It is a no-op when a loop
// for the same token is already running.
func (s *Socket) Connect(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running && s.token == token {
		return
	}
	s.stopLocked()

	gen := s.gen.Add(1)
	ctx, cancel := context.WithCancel(context.Background())
	s.token = token
	s.cancel = cancel
	s.running = true

	go s.run(ctx, gen, token)
}

// Disconnect stops the loop and closes the connection without waiting for
// the read goroutine to exit.
func (s *Socket) Disconnect() {
	s.mu.Lock()
	s.stopLocked()
	s.token = ""
	s.mu.Unlock()

	s.statusMu.Lock()
	s.gen.Add(1)
	s.Bus.SetStatus(StatusDisconnected)
	s.statusMu.Unlock()
}

func (s *Socket) stopLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
	s.running = false
}

// Running reports whether a connection loop is active.
func (s *Socket) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Socket) setStatus(gen uint64, st Status) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()

	if s.gen.Load() != gen {
		return
	}
	s.Bus.SetStatus(st)
}

func (s *Socket) run(ctx context.Context, gen uint64, token string) {
	defer func() {
		s.mu.Lock()
		if s.gen.Load() == gen {
			s.running = false
			s.cancel = nil
		}
		s.mu.Unlock()
	}()

	for {
		conn, err := s.dial(ctx, gen, token)
		if err != nil {
			s.setStatus(gen, StatusDisconnected)
			if apisdk.IsUnauthorized(err) {
				s.logger.Warn(logging.Realtime, logging.Connect, "handshake rejected", nil)
				s.Bus.Dispatch(Message{Event: Unauthorized})
			} else if ctx.Err() == nil {
				s.logger.Error(logging.Realtime, logging.Connect, "giving up on reconnecting", map[logging.ExtraKey]any{
					logging.ErrorMessage: err.Error(),
				})
			}
			return
		}

		cw := newConnWrapper(conn)
		s.mu.Lock()
		if s.gen.Load() != gen {
			s.mu.Unlock()
			_ = cw.Close()
			return
		}
		s.conn = cw
		s.mu.Unlock()

		s.setStatus(gen, StatusConnected)
		s.logger.Info(logging.Realtime, logging.Connect, "connected", nil)

		err = s.readLoop(cw)

		s.mu.Lock()
		if s.conn == cw {
			s.conn = nil
		}
		s.mu.Unlock()
		_ = cw.Close()
		s.setStatus(gen, StatusDisconnected)

		if ctx.Err() != nil || errors.Is(err, errUnauthorized) {
			return
		}
		s.logger.Warn(logging.Realtime, logging.Disconnect, "connection lost", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
		})
	}
}

func (s *Socket) dial(ctx context.Context, gen uint64, token string) (*websocket.Conn, error) {
	attempt := 0
	op := func() (*websocket.Conn, error) {
		attempt++
		s.setStatus(gen, StatusConnecting)

		conn, err := s.dialer.Dial(ctx, s.cfg.Endpoint, token, s.cfg.HandshakeTimeout)
		if err != nil {
			if apisdk.IsUnauthorized(err) || ctx.Err() != nil {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		return conn, nil
	}

	notify := func(err error, next time.Duration) {
		s.logger.Warn(logging.Realtime, logging.Reconnect, "connect failed, retrying", map[logging.ExtraKey]any{
			logging.Attempt:      attempt,
			logging.ErrorMessage: err.Error(),
		})
	}

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewConstantBackOff(s.cfg.ReconnectDelay)),
		backoff.WithMaxTries(uint(s.cfg.ReconnectAttempts)),
		backoff.WithNotify(notify),
	)
}

func (s *Socket) readLoop(cw *connWrapper) error {
	for {
		_, data, err := cw.conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("websocket read error: %w", err)
		}

		var frame apisdk.Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			s.logger.Warn(logging.Realtime, logging.Inbound, "dropping malformed frame", map[logging.ExtraKey]any{
				logging.ErrorMessage: err.Error(),
			})
			continue
		}

		msg := Message{Event: Event(frame.Event), Data: frame.Data}
		if msg.Event == Unauthorized {
			s.logger.Warn(logging.Realtime, logging.Inbound, "server revoked the session", nil)
			s.Bus.Dispatch(msg)
			return errUnauthorized
		}

		if n := s.Bus.Dispatch(msg); n == 0 {
			s.logger.Debug(logging.Realtime, logging.Inbound, "no subscriber for event", map[logging.ExtraKey]any{
				logging.Event: frame.Event,
			})
		}
	}
}

// Emit sends one frame. It waits on the outbound rate limit and fails with
// ErrNotConnected while the socket is down.
func (s *Socket) Emit(ctx context.Context, event Event, payload any) error {
	s.mu.Lock()
	cw := s.conn
	s.mu.Unlock()
	if cw == nil {
		return ErrNotConnected
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	var data json.RawMessage
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode %s: %w", event, err)
		}
		data = raw
	}

	if err := cw.WriteJSON(apisdk.Frame{Event: string(event), Data: data}); err != nil {
		return fmt.Errorf("emit %s: %w", event, err)
	}

	s.logger.Debug(logging.Realtime, logging.Outbound, "emitted", map[logging.ExtraKey]any{
		logging.Event: string(event),
	})
	return nil
}
