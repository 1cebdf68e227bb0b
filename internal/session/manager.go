// Package session holds open presentations between tool calls.
//
// Every open presentation lives in its own Session, addressed by an opaque
// id handed back from Open. Sessions are independent: two callers editing
// two decks never share state. Within one session, operations are
// serialized by the session's own lock.
//
// Sessions stay in memory until explicitly closed or the process exits.
// There is no eviction policy; a long-running server handling many decks
// should close sessions it is done with.
package session

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/deckwright/deckfonts-mcp/internal/deck"
	"github.com/deckwright/deckfonts-mcp/internal/errors"
	"github.com/deckwright/deckfonts-mcp/internal/logging"
)

// Manager owns all live sessions, keyed by session id.
//
// Manager is safe for concurrent use by multiple goroutines.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

// Open loads the presentation at path into a new session and returns it.
// The session id is a fresh UUID; pass it to every subsequent call.
func (m *Manager) Open(ctx context.Context, path string) (*Session, error) {
	doc, err := deck.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	s := &Session{
		id:    uuid.New().String(),
		doc:   doc,
		stale: true,
	}
	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	logging.SessionEvent("opened", s.id, "path", path, "slides", doc.SlideCount())
	return s, nil
}

// Get returns the session with the given id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, errors.NewNotFound("session", id)
	}
	return s, nil
}

// Close discards the session with the given id, releasing its document.
// It reports whether a session was closed.
func (m *Manager) Close(id string) bool {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		logging.SessionEvent("closed", id)
	}
	return ok
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
