// Package session holds the signed-in user and credential token for the
// client process, optionally persisted to a JSON file so separate CLI
// invocations share one session.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/atinyakov/Workboard/internal/models"
	"go.uber.org/multierr"
)

// ErrIncomplete is returned when a session is set without both a user and a token.
var ErrIncomplete = errors.New("session requires both user and token")

type persisted struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// Store is the process-wide session. User and token are always set together.
type Store struct {
	mu    sync.Mutex
	user  *models.User
	token string
	path  string
	hooks []func()
}

// NewStore creates an empty store. When path is non-empty the session is
// saved there on every change.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load restores a saved session. A missing file, or a file holding only
// half a session, leaves the store empty.
func (s *Store) Load() error {
	if s.path == "" {
		return nil
	}
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	var p persisted
	if err := json.NewDecoder(f).Decode(&p); err != nil {
		return fmt.Errorf("decode session: %w", err)
	}
	if p.User == nil || p.Token == "" {
		return nil
	}
	s.mu.Lock()
	s.user, s.token = p.User, p.Token
	s.mu.Unlock()
	return nil
}

// SetSession stores user and token together and persists them.
func (s *Store) SetSession(user models.User, token string) error {
	if user.ID == "" || token == "" {
		return ErrIncomplete
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user, s.token = &user, token
	return s.save()
}

// Clear drops the session and removes the saved file, then runs the clear
// hooks in registration order.
func (s *Store) Clear() error {
	_, err := s.clear(false)
	return err
}

// ClearIfAuthenticated is Clear for a store that still holds a session. The
// check and the clear are one step, so of several concurrent callers exactly
// one reports cleared and runs the hooks.
func (s *Store) ClearIfAuthenticated() (bool, error) {
	return s.clear(true)
}

func (s *Store) clear(onlyIfSet bool) (bool, error) {
	s.mu.Lock()
	if onlyIfSet && s.token == "" {
		s.mu.Unlock()
		return false, nil
	}
	s.user, s.token = nil, ""
	var err error
	if s.path != "" {
		if rmErr := os.Remove(s.path); rmErr != nil && !os.IsNotExist(rmErr) {
			err = rmErr
		}
	}
	hooks := append([]func(){}, s.hooks...)
	s.mu.Unlock()

	for _, h := range hooks {
		h()
	}
	return true, err
}

// OnClear registers fn to run after every Clear.
func (s *Store) OnClear(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

// IsAuthenticated reports whether a token is present.
func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token != ""
}

// User returns the signed-in user.
func (s *Store) User() (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return models.User{}, false
	}
	return *s.user, true
}

// Token returns the bearer token, or "" when signed out.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// save writes the session file. s.mu must be held.
func (s *Store) save() (err error) {
	if s.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("open session file: %w", err)
	}
	defer func() { err = multierr.Append(err, f.Close()) }()
	return json.NewEncoder(f).Encode(persisted{User: s.user, Token: s.token})
}
