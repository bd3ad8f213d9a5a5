// Package paymentaccess holds the OTP-issued credential that unlocks payslips.
// Its lifecycle is independent of the session: logging out does not clear it.
package paymentaccess

import (
	"fmt"
	"sync"

	"github.com/jrsteele09/go-hr-portal/gateway"
	hrerrors "github.com/jrsteele09/go-hr-portal/internal/errors"
	"github.com/jrsteele09/go-hr-portal/internal/utils"
	"github.com/jrsteele09/go-hr-portal/storage"
	"github.com/rs/zerolog"
)

type State int

const (
	StateChecking State = iota
	StateNoGrant
	StateGranted
)

func (s State) String() string {
	switch s {
	case StateChecking:
		return "checking"
	case StateNoGrant:
		return "no-grant"
	case StateGranted:
		return "granted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Registrar is satisfied by *gateway.Client
type Registrar interface {
	RegisterErrorHandler(code string, h gateway.ErrorHandler) (unregister func())
}

// Store is safe for concurrent use.
type Store struct {
	storage storage.Storage
	gw      Registrar
	logger  zerolog.Logger

	mu         sync.RWMutex
	state      State
	token      string
	unregister func()

	listeners utils.Listeners[State]
	initOnce  sync.Once
	ready     chan struct{}
}

func New(s storage.Storage, gw Registrar, logger zerolog.Logger) *Store {
	return &Store{
		storage: s,
		gw:      gw,
		logger:  logger.With().Str("component", "paymentaccess").Logger(),
		state:   StateChecking,
		ready:   make(chan struct{}),
	}
}

// Initialize restores a persisted grant and registers for the backend's
// invalid-grant signal. Only the first call has any effect.
func (s *Store) Initialize() {
	s.initOnce.Do(func() {
		token, ok, err := s.storage.Get(storage.KeyPaymentAccessToken)
		if err != nil {
			s.logger.Warn().Err(err).Msg("failed to read stored payment access token")
			ok = false
		}

		s.mu.Lock()
		if s.state == StateChecking {
			if ok && token != "" {
				s.token, s.state = token, StateGranted
			} else {
				s.state = StateNoGrant
			}
		}
		state := s.state
		s.mu.Unlock()

		if s.gw != nil {
			unregister := s.gw.RegisterErrorHandler(gateway.CodeInvalidPaymentAccessToken, s.reject)
			s.mu.Lock()
			s.unregister = unregister
			s.mu.Unlock()
		}

		close(s.ready)
		s.listeners.Notify(state)
	})
}

func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// SetAccessToken records a grant issued after OTP verification.
func (s *Store) SetAccessToken(token string) error {
	if token == "" {
		return hrerrors.Wrapf(hrerrors.ErrInvalidToken, "[paymentaccess SetAccessToken] token is empty")
	}

	s.mu.Lock()
	if err := s.storage.Set(storage.KeyPaymentAccessToken, token); err != nil {
		s.mu.Unlock()
		return hrerrors.Join(hrerrors.ErrPersist, fmt.Errorf("[paymentaccess SetAccessToken] %w", err))
	}
	s.token, s.state = token, StateGranted
	s.mu.Unlock()

	s.listeners.Notify(StateGranted)
	return nil
}

// reject handles INVALID_PAYMENT_ACCESS_TOKEN. Only the grant the failed
// request carried is dropped; a newer grant survives a late rejection.
func (s *Store) reject(apiErr *gateway.APIError) {
	s.mu.Lock()
	if apiErr.SentPaymentToken == "" || apiErr.SentPaymentToken != s.token {
		s.mu.Unlock()
		s.logger.Debug().Msg("ignoring rejection of a payment grant that is no longer current")
		return
	}
	s.logger.Info().Msg("payment access rejected by the server, clearing grant")
	s.clearLocked()
}

// ClearAccessToken drops the grant. Idempotent; storage errors are logged.
func (s *Store) ClearAccessToken() {
	s.mu.Lock()
	s.clearLocked()
}

// clearLocked is entered with s.mu held and releases it.
func (s *Store) clearLocked() {
	changed := s.state != StateNoGrant
	s.token, s.state = "", StateNoGrant
	if err := s.storage.Remove(storage.KeyPaymentAccessToken); err != nil {
		s.logger.Err(err).Msg("failed to remove stored payment access token")
	}
	s.mu.Unlock()

	if changed {
		s.listeners.Notify(StateNoGrant)
	}
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Store) HasGrant() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// RequestOption attaches the current grant to a gateway request, or returns
// ErrNoPaymentAccess when there is none.
func (s *Store) RequestOption() (gateway.RequestOption, error) {
	token := s.AccessToken()
	if token == "" {
		return nil, hrerrors.ErrNoPaymentAccess
	}
	return gateway.WithPaymentAccessToken(token), nil
}

func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	return s.listeners.Add(fn)
}

func (s *Store) Close() {
	s.mu.Lock()
	unregister := s.unregister
	s.unregister = nil
	s.mu.Unlock()

	if unregister != nil {
		unregister()
	}
}
