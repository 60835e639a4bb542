package testutil

import (
	"sync"

	"taskctl/internal/session"
)

// MemSession is an in-memory session.Manager.
type MemSession struct {
	mu      sync.Mutex
	sess    session.Session
	Cleared int
}

// NewMemSession returns a session holding token and name.
func NewMemSession(token, displayName string) *MemSession {
	return &MemSession{sess: session.Session{Token: token, DisplayName: displayName}}
}

// Current implements session.Provider.
func (m *MemSession) Current() session.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sess
}

// Set replaces the session.
func (m *MemSession) Set(token, displayName string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess = session.Session{Token: token, DisplayName: displayName}
}

// Clear implements session.Manager.
func (m *MemSession) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess = session.Session{}
	m.Cleared++
	return nil
}
