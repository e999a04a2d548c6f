// Package session holds the authenticated identity of the running client:
// the access token, the current user's profile and the derived connection
// flags. It is shared by the REST layer, the realtime lifecycle and the UI.
package session

import (
	"sync"
	"time"

	apisdk "github.com/hilthontt/parley/api-sdk"
	"github.com/hilthontt/parley/internal/infrastructure/logging"
)

// Snapshot is a point-in-time copy of the store.
type Snapshot struct {
	Token       string
	User        *apisdk.User
	Online      bool
	Initialized bool
}

// Authenticated reports whether both a token and a profile are present.
func (s Snapshot) Authenticated() bool {
	return s.Token != "" && s.User != nil
}

type Store struct {
	mu          sync.RWMutex
	token       string
	user        *apisdk.User
	online      bool
	initialized bool
	redirect    string

	persist TokenStore
	logger  logging.Logger

	subMu   sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int
}

func NewStore(persist TokenStore, logger logging.Logger) *Store {
	if persist == nil {
		persist = NewMemoryTokenStore()
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	return &Store{
		persist: persist,
		logger:  logger,
		subs:    make(map[int]func(Snapshot)),
	}
}

// Restore loads the persisted token. A token whose JWT expiry has passed is
// purged without a round trip. When nothing usable is stored the store is
// marked initialized, since the outcome (anonymous) is already known.
func (s *Store) Restore(now time.Time) bool {
	token, err := s.persist.Load()
	if err != nil {
		s.logger.Warn(logging.Auth, logging.Startup, "failed to read persisted token", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
		})
	}

	if token != "" {
		if exp, ok := TokenExpiry(token); ok && !exp.After(now) {
			s.logger.Info(logging.Auth, logging.Startup, "dropping expired token", nil)
			_ = s.persist.Clear()
			token = ""
		}
	}

	if token == "" {
		s.MarkInitialized()
		return false
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	s.notify()

	return true
}

func (s *Store) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	if err := s.persist.Save(token); err != nil {
		s.logger.Warn(logging.Auth, logging.Login, "failed to persist token", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
		})
	}

	s.notify()
}

// SetCurrentUser stores the profile and latches initialization.
func (s *Store) SetCurrentUser(user apisdk.User) {
	s.mu.Lock()
	u := user
	s.user = &u
	s.initialized = true
	s.mu.Unlock()

	s.notify()
}

// UpdateCurrentUser applies fn to the stored profile. It is a no-op when no
// profile is loaded.
func (s *Store) UpdateCurrentUser(fn func(apisdk.User) apisdk.User) {
	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return
	}
	u := fn(*s.user)
	s.user = &u
	s.mu.Unlock()

	s.notify()
}

func (s *Store) SetOnline(online bool) {
	s.mu.Lock()
	changed := s.online != online
	s.online = online
	s.mu.Unlock()

	if changed {
		s.notify()
	}
}

func (s *Store) MarkInitialized() {
	s.mu.Lock()
	changed := !s.initialized
	s.initialized = true
	s.mu.Unlock()

	if changed {
		s.notify()
	}
}

// Clear forgets the token and profile, purges the persisted token and resets
// every derived flag, initialization included.
func (s *Store) Clear() {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.online = false
	s.initialized = false
	s.mu.Unlock()

	if err := s.persist.Clear(); err != nil {
		s.logger.Warn(logging.Auth, logging.Logout, "failed to purge persisted token", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
		})
	}

	s.notify()
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Token:       s.token,
		Online:      s.online,
		Initialized: s.initialized,
	}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	return snap
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// CurrentUser returns a copy of the profile and whether one is loaded.
func (s *Store) CurrentUser() (apisdk.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return apisdk.User{}, false
	}
	return *s.user, true
}

func (s *Store) IsAuthenticated() bool {
	return s.Snapshot().Authenticated()
}

// SetRedirectAfterLogin remembers where to return once signed in again.
func (s *Store) SetRedirectAfterLogin(path string) {
	s.mu.Lock()
	s.redirect = path
	s.mu.Unlock()
}

// TakeRedirectAfterLogin returns and forgets the remembered path.
func (s *Store) TakeRedirectAfterLogin() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	path := s.redirect
	s.redirect = ""
	return path
}

// Subscribe registers fn for every state change. fn runs on the goroutine
// that made the change and must not block.
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

func (s *Store) notify() {
	snap := s.Snapshot()

	s.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
