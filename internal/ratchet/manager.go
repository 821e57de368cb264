package ratchet

import (
	"sync"

	"github.com/arti-chat/core/internal/coreerr"
)

// Manager holds one live Session per contact, keyed by the contact's
// onion address, and serializes access to each session so concurrent
// dispatcher and sender goroutines never race on the same chain keys.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager returns an empty session manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

// Put installs a newly completed session for a contact, replacing any
// prior session (e.g. after a re-handshake).
func (m *Manager) Put(contactOnionID string, s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.sessions[contactOnionID]; ok {
		old.Zero()
	}
	m.sessions[contactOnionID] = s
}

// Get returns the session for a contact, if one has been established.
func (m *Manager) Get(contactOnionID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[contactOnionID]
	return s, ok
}

// Seal encrypts plaintext using the contact's established session.
func (m *Manager) Seal(selfOnionID, contactOnionID string, plaintext []byte) (Sealed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[contactOnionID]
	if !ok {
		return Sealed{}, coreerr.New(coreerr.CodePeer, "no ratchet session established for "+contactOnionID, coreerr.ErrRatchetNotReady)
	}
	return s.Seal(selfOnionID, plaintext)
}

// Open decrypts msg using the contact's established session.
func (m *Manager) Open(contactOnionID string, msg Sealed) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[contactOnionID]
	if !ok {
		return nil, coreerr.New(coreerr.CodePeer, "no ratchet session established for "+contactOnionID, coreerr.ErrRatchetNotReady)
	}
	return s.Open(msg)
}

// Drop removes and zeroes a contact's session, e.g. on contact deletion.
func (m *Manager) Drop(contactOnionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[contactOnionID]; ok {
		s.Zero()
		delete(m.sessions, contactOnionID)
	}
}
