package memory

import (
	"context"
	"sync"
	"time"

	"github.com/tlu-hub/tlu-group-hub/internal/domain/registration"
	"github.com/tlu-hub/tlu-group-hub/internal/domain/shared"
)

// DefaultProfileTTL applies when Set is called with a zero ttl.
const DefaultProfileTTL = 10 * time.Minute

type cachedProfile struct {
	profile   registration.Profile
	expiresAt time.Time
}

// ProfileCache is an in-process registration.ProfileCache.
type ProfileCache struct {
	mu      sync.Mutex
	entries map[string]cachedProfile
	now     func() time.Time
}

var _ registration.ProfileCache = (*ProfileCache)(nil)

// NewProfileCache creates an empty cache.
func NewProfileCache() *ProfileCache {
	return &ProfileCache{
		entries: make(map[string]cachedProfile),
		now:     time.Now,
	}
}

// Get returns a copy of a fresh entry.
func (c *ProfileCache) Get(_ context.Context, username string) (*registration.Profile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[username]
	if !ok {
		return nil, shared.ErrNotFound
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, username)
		return nil, shared.ErrNotFound
	}
	p := e.profile
	return &p, nil
}

// Set stores a copy of the profile.
func (c *ProfileCache) Set(_ context.Context, username string, p *registration.Profile, ttl time.Duration) error {
	if p == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = DefaultProfileTTL
	}
	c.mu.Lock()
	c.entries[username] = cachedProfile{profile: *p, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

// Delete drops an entry.
func (c *ProfileCache) Delete(_ context.Context, username string) error {
	c.mu.Lock()
	delete(c.entries, username)
	c.mu.Unlock()
	return nil
}
