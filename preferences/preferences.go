// Package preferences persists UI choices that survive restarts: whether
// the sidebar is open and the colour theme.
package preferences

import (
	"fmt"
	"sync"

	hrerrors "github.com/jrsteele09/go-hr-portal/internal/errors"
	"github.com/jrsteele09/go-hr-portal/storage"
	"github.com/rs/zerolog"
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

// Preferences is a snapshot of the stored choices
type Preferences struct {
	SidebarOpen bool
	Theme       Theme
}

// Defaults applied when nothing, or something unreadable, is stored
var Defaults = Preferences{SidebarOpen: true, Theme: ThemeLight}

type Store struct {
	storage storage.Storage
	logger  zerolog.Logger

	mu    sync.RWMutex
	prefs Preferences
}

// Load reads stored preferences, falling back to Defaults per field.
func Load(s storage.Storage, logger zerolog.Logger) *Store {
	st := &Store{storage: s, logger: logger, prefs: Defaults}

	var open bool
	if found, err := storage.GetJSON(s, storage.KeySidebarOpen, &open); err != nil {
		logger.Warn().Err(err).Msg("ignoring stored sidebar preference")
	} else if found {
		st.prefs.SidebarOpen = open
	}

	if raw, ok, err := s.Get(storage.KeyTheme); err != nil {
		logger.Warn().Err(err).Msg("ignoring stored theme preference")
	} else if ok && Theme(raw).Valid() {
		st.prefs.Theme = Theme(raw)
	}
	return st
}

func (s *Store) Get() Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs
}

// SetSidebarOpen stores the sidebar state as a JSON boolean
func (s *Store) SetSidebarOpen(open bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := storage.SetJSON(s.storage, storage.KeySidebarOpen, open); err != nil {
		return hrerrors.Join(hrerrors.ErrPersist, err)
	}
	s.prefs.SidebarOpen = open
	return nil
}

// ToggleSidebar flips the sidebar state and returns the new value
func (s *Store) ToggleSidebar() (bool, error) {
	open := !s.Get().SidebarOpen
	return open, s.SetSidebarOpen(open)
}

func (s *Store) SetTheme(t Theme) error {
	if !t.Valid() {
		return hrerrors.Join(hrerrors.ErrInvalidArgument, fmt.Errorf("unknown theme %q", t))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.storage.Set(storage.KeyTheme, string(t)); err != nil {
		return hrerrors.Join(hrerrors.ErrPersist, err)
	}
	s.prefs.Theme = t
	return nil
}
