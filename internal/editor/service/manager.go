package service

import (
	"sync"
	"time"

	"github.com/davinci-studio/studio-backend/internal/editor/domain"
	"github.com/google/uuid"
)

// Manager tracks open editor sessions. Sessions live in memory only and are
// destroyed when closed.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	window   time.Duration
}

// NewManager creates a Manager whose sessions use the given debounce window
func NewManager(window time.Duration) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		window:   window,
	}
}

// Open starts an editor session for an image owned by sessionID
func (m *Manager) Open(sessionID, imageID string) *Session {
	s := NewSession(uuid.New().String(), imageID, m.window)
	s.owner = sessionID

	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()
	return s
}

// Get returns an open editor. Editors opened under another session are
// reported as not found.
func (m *Manager) Get(sessionID, id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok || s.owner != sessionID {
		return nil, domain.ErrSessionNotFound
	}
	return s, nil
}

// Close flushes and removes an editor owned by sessionID
func (m *Manager) Close(sessionID, id string) (domain.SessionView, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok || s.owner != sessionID {
		m.mu.Unlock()
		return domain.SessionView{}, domain.ErrSessionNotFound
	}
	delete(m.sessions, id)
	m.mu.Unlock()
	return s.Close(), nil
}

// SweepIdle closes sessions with no activity for longer than maxIdle and
// returns how many were closed.
func (m *Manager) SweepIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	m.mu.Lock()
	var stale []*Session
	for id, s := range m.sessions {
		if s.idleSince().Before(cutoff) {
			stale = append(stale, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range stale {
		s.Close()
	}
	return len(stale)
}

// Len returns the number of open sessions
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
