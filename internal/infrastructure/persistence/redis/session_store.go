package redis

import (
	"context"
	"errors"
	"time"

	"github.com/tlu-hub/tlu-group-hub/internal/domain/registration"
	"github.com/tlu-hub/tlu-group-hub/internal/domain/shared"
)

// SessionStore implements registration.SessionStore; Redis expires the keys.
type SessionStore struct {
	cache *Cache
	now   func() time.Time
}

var _ registration.SessionStore = (*SessionStore)(nil)

// NewSessionStore creates a new SessionStore.
func NewSessionStore(cache *Cache) *SessionStore {
	return &SessionStore{cache: cache, now: time.Now}
}

// Save stores the session until it expires.
func (s *SessionStore) Save(ctx context.Context, sess *registration.Session) error {
	ttl := TTLSessionData
	if !sess.ExpiresAt.IsZero() {
		ttl = sess.ExpiresAt.Sub(s.now())
	}
	if ttl <= 0 {
		return shared.ErrSessionExpired
	}
	return s.cache.Set(ctx, s.cache.Key(PrefixSession, sess.ID), sess, ttl)
}

// Get loads a session.
func (s *SessionStore) Get(ctx context.Context, id string) (*registration.Session, error) {
	if id == "" {
		return nil, shared.ErrSessionNotFound
	}

	var sess registration.Session
	err := s.cache.Get(ctx, s.cache.Key(PrefixSession, id), &sess)
	if errors.Is(err, ErrCacheMiss) {
		return nil, shared.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	if sess.IsExpired(s.now()) {
		return nil, shared.ErrSessionNotFound
	}
	return &sess, nil
}

// Delete removes a session.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return s.cache.Delete(ctx, s.cache.Key(PrefixSession, id))
}
