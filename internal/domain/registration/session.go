package registration

import (
	"context"
	"time"
)

// Session is a signed-in browser. The portal token stays server side; the
// browser only holds the session id.
type Session struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	AccessToken string    `json:"access_token"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// IsExpired reports whether the session is past its expiry.
func (s *Session) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// SessionStore keeps sessions until they expire.
type SessionStore interface {
	// Save stores the session until its ExpiresAt.
	Save(ctx context.Context, s *Session) error

	// Get returns ErrSessionNotFound for unknown or expired ids.
	Get(ctx context.Context, id string) (*Session, error)

	Delete(ctx context.Context, id string) error
}

// ProfileCache keeps portal profiles for a short while so reloading the form
// does not hit the portal again.
type ProfileCache interface {
	// Get returns ErrNotFound on a miss.
	Get(ctx context.Context, username string) (*Profile, error)
	Set(ctx context.Context, username string, p *Profile, ttl time.Duration) error
	Delete(ctx context.Context, username string) error
}
