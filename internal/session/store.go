// Package session persists the bearer token and display name of the
// signed-in user.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Session is the authenticated actor. It is authenticated iff Token is set.
type Session struct {
	Token       string `json:"token"`
	DisplayName string `json:"display_name"`
}

// Authenticated reports whether the session carries a token.
func (s Session) Authenticated() bool {
	return s.Token != ""
}

// Provider yields the current session. The gateway reads it on every request.
type Provider interface {
	Current() Session
}

// Manager is a Provider that can also be cleared, as on logout.
type Manager interface {
	Provider
	Clear() error
}

// Store keeps the session in a single JSON file. Both fields are written and
// removed together, so no reader sees one without the other.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore returns a Store backed by path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Current reads the stored session. A missing or unreadable file, or one
// without a token, yields the zero Session.
func (s *Store) Current() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *Store) read() Session {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Session{}
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil || sess.Token == "" {
		return Session{}
	}
	return sess
}

// Token returns the stored token, or "".
func (s *Store) Token() string {
	return s.Current().Token
}

// DisplayName returns the stored display name, or "" when unauthenticated.
func (s *Store) DisplayName() string {
	return s.Current().DisplayName
}

// Set replaces the stored session.
func (s *Store) Set(token, displayName string) error {
	if token == "" {
		return errors.New("empty token")
	}
	data, err := json.MarshalIndent(Session{Token: token, DisplayName: displayName}, "", "  ")
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*")
	if err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write session: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write session: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

// Clear removes the stored session. Clearing an absent session is not an
// error.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	return nil
}

// Exists reports whether a session file is present, even one without a token.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}
