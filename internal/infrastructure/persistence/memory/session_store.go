// Package memory holds process-local stand-ins for the Redis stores, used
// when a single instance runs without Redis.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/tlu-hub/tlu-group-hub/internal/domain/registration"
	"github.com/tlu-hub/tlu-group-hub/internal/domain/shared"
)

// SessionStore keeps sessions in a map. Expired entries are dropped lazily
// and by Sweep.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]registration.Session
	now      func() time.Time
}

var _ registration.SessionStore = (*SessionStore)(nil)

// NewSessionStore creates an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]registration.Session),
		now:      time.Now,
	}
}

// Save stores a copy of the session.
func (s *SessionStore) Save(_ context.Context, sess *registration.Session) error {
	if sess.IsExpired(s.now()) {
		return shared.ErrSessionExpired
	}
	s.mu.Lock()
	s.sessions[sess.ID] = *sess
	s.mu.Unlock()
	return nil
}

// Get returns a copy of the session.
func (s *SessionStore) Get(_ context.Context, id string) (*registration.Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		return nil, shared.ErrSessionNotFound
	}
	if sess.IsExpired(s.now()) {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		return nil, shared.ErrSessionNotFound
	}
	return &sess, nil
}

// Delete removes a session.
func (s *SessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

// Sweep drops expired sessions and returns how many were removed.
func (s *SessionStore) Sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if sess.IsExpired(now) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored sessions, expired ones included.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
