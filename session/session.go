// Package session owns the authenticated principal and its bearer token.
// Durable storage is only read once, by Initialize; afterwards memory is the
// source of truth and storage is a mirror.
package session

import (
	"fmt"
	"sync"

	"github.com/jrsteele09/go-hr-portal/gateway"
	hrerrors "github.com/jrsteele09/go-hr-portal/internal/errors"
	"github.com/jrsteele09/go-hr-portal/internal/utils"
	"github.com/jrsteele09/go-hr-portal/storage"
	"github.com/jrsteele09/go-hr-portal/users"
	"github.com/rs/zerolog"
)

// State of the session lifecycle
type State int

const (
	StateChecking State = iota
	StateUnauthenticated
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateChecking:
		return "checking"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Gateway is the part of the gateway client the store binds to
type Gateway interface {
	RegisterErrorHandler(code string, h gateway.ErrorHandler) (unregister func())
	SetBearerSource(src gateway.BearerSource)
	UnbindBearerSource(src gateway.BearerSource)
}

var _ gateway.BearerSource = (*Store)(nil)

// Store is the process-wide session. It is safe for concurrent use.
type Store struct {
	storage storage.Storage
	gw      Gateway
	logger  zerolog.Logger

	mu         sync.RWMutex
	state      State
	principal  *users.Principal
	token      string
	unregister func()

	listeners utils.Listeners[State]
	initOnce  sync.Once
	ready     chan struct{}
}

func New(s storage.Storage, gw Gateway, logger zerolog.Logger) *Store {
	return &Store{
		storage: s,
		gw:      gw,
		logger:  logger.With().Str("component", "session").Logger(),
		state:   StateChecking,
		ready:   make(chan struct{}),
	}
}

// Initialize restores a persisted session, binds the store to the gateway
// and leaves the Checking state. Read failures count as "no prior session".
// Only the first call has any effect.
func (s *Store) Initialize() {
	s.initOnce.Do(func() {
		principal, token := s.restore()

		s.mu.Lock()
		if s.state == StateChecking {
			if principal != nil {
				s.principal, s.token, s.state = principal, token, StateAuthenticated
			} else {
				s.state = StateUnauthenticated
			}
		}
		state := s.state
		s.mu.Unlock()

		if s.gw != nil {
			s.gw.SetBearerSource(s)
			unregister := s.gw.RegisterErrorHandler(gateway.CodeTokenExpired, s.expire)
			s.mu.Lock()
			s.unregister = unregister
			s.mu.Unlock()
		}

		s.logger.Debug().Stringer("state", state).Msg("session initialised")
		close(s.ready)
		s.listeners.Notify(state)
	})
}

func (s *Store) restore() (*users.Principal, string) {
	token, ok, err := s.storage.Get(storage.KeyToken)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to read stored token, starting without a session")
		return nil, ""
	}
	if !ok || token == "" {
		return nil, ""
	}

	var principal users.Principal
	found, err := storage.GetJSON(s.storage, storage.KeyUser, &principal)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to read stored principal, starting without a session")
		return nil, ""
	}
	if !found {
		return nil, ""
	}
	if err := principal.Validate(); err != nil {
		s.logger.Warn().Err(err).Msg("stored principal is invalid, starting without a session")
		return nil, ""
	}
	return &principal, token
}

// Ready is closed once Initialize has completed
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// Login commits the result of a credential exchange. Token and principal
// are persisted together: if either write fails nothing changes in memory,
// the previous stored token is put back, and an ErrPersist error is returned.
func (s *Store) Login(principal *users.Principal, token string) error {
	if token == "" {
		return hrerrors.Wrapf(hrerrors.ErrInvalidToken, "[session Login] token is empty")
	}
	if err := principal.Validate(); err != nil {
		return hrerrors.Join(hrerrors.ErrInvalidPrincipal, err)
	}
	p := principal.Clone()

	s.mu.Lock()
	prevToken := s.token

	if err := s.storage.Set(storage.KeyToken, token); err != nil {
		s.mu.Unlock()
		return hrerrors.Join(hrerrors.ErrPersist, fmt.Errorf("[session Login] store token: %w", err))
	}
	if err := storage.SetJSON(s.storage, storage.KeyUser, p); err != nil {
		s.rollbackToken(prevToken)
		s.mu.Unlock()
		return hrerrors.Join(hrerrors.ErrPersist, fmt.Errorf("[session Login] store principal: %w", err))
	}

	s.principal, s.token, s.state = p, token, StateAuthenticated
	s.mu.Unlock()

	s.logger.Info().Str("user_id", p.ID).Str("role", string(p.Role)).Msg("logged in")
	s.listeners.Notify(StateAuthenticated)
	return nil
}

func (s *Store) rollbackToken(prev string) {
	var err error
	if prev != "" {
		err = s.storage.Set(storage.KeyToken, prev)
	} else {
		err = s.storage.Remove(storage.KeyToken)
	}
	if err != nil {
		s.logger.Err(err).Msg("failed to roll back stored token after a failed login")
	}
}

// expire handles TOKEN_EXPIRED. A reply for a token other than the one held
// now is stale and leaves the session alone.
func (s *Store) expire(apiErr *gateway.APIError) {
	if !s.logout(apiErr.SentBearer) {
		s.logger.Debug().Msg("ignoring expiry for a token that is no longer current")
		return
	}
	s.logger.Info().Msg("session expired on the server")
}

// Logout clears the session from memory and storage. Calling it when no
// session exists is a no-op; storage failures are logged, never returned.
func (s *Store) Logout() {
	s.mu.Lock()
	s.clearLocked()
}

// logout clears the session only while token is the one held.
func (s *Store) logout(token string) bool {
	s.mu.Lock()
	if token == "" || token != s.token {
		s.mu.Unlock()
		return false
	}
	s.clearLocked()
	return true
}

// clearLocked is entered with s.mu held and releases it.
func (s *Store) clearLocked() {
	wasAuthenticated := s.token != ""
	changed := s.state != StateUnauthenticated
	s.principal, s.token, s.state = nil, "", StateUnauthenticated

	for _, key := range []string{storage.KeyToken, storage.KeyUser} {
		if err := s.storage.Remove(key); err != nil {
			s.logger.Err(err).Str("key", key).Msg("failed to remove stored session key")
		}
	}
	s.mu.Unlock()

	if wasAuthenticated {
		s.logger.Info().Msg("logged out")
	}
	if changed {
		s.listeners.Notify(StateUnauthenticated)
	}
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsAuthenticated is exactly "a token is held"
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

// Principal returns a copy of the current principal, or nil
func (s *Store) Principal() *users.Principal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.principal.Clone()
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// BearerToken implements gateway.BearerSource
func (s *Store) BearerToken() string {
	return s.Token()
}

// Subscribe calls fn with the new state after every transition.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	return s.listeners.Add(fn)
}

// Close detaches the store from the gateway: its expiry signal and, if the
// store is still the bearer source, the Authorization header.
func (s *Store) Close() {
	s.mu.Lock()
	unregister := s.unregister
	s.unregister = nil
	s.mu.Unlock()

	if unregister != nil {
		unregister()
	}
	if s.gw != nil {
		s.gw.UnbindBearerSource(s)
	}
}
