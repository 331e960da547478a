package redis

import (
	"context"
	"errors"
	"time"

	"github.com/tlu-hub/tlu-group-hub/internal/domain/registration"
	"github.com/tlu-hub/tlu-group-hub/internal/domain/shared"
)

// ProfileCache implements registration.ProfileCache using the generic Cache.
type ProfileCache struct {
	cache *Cache
}

var _ registration.ProfileCache = (*ProfileCache)(nil)

// NewProfileCache creates a new ProfileCache.
func NewProfileCache(cache *Cache) *ProfileCache {
	return &ProfileCache{cache: cache}
}

// Get returns a cached profile.
func (p *ProfileCache) Get(ctx context.Context, username string) (*registration.Profile, error) {
	var prof registration.Profile
	err := p.cache.Get(ctx, p.cache.Key(PrefixProfile, username), &prof)
	if errors.Is(err, ErrCacheMiss) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &prof, nil
}

// Set caches a profile. A zero ttl uses TTLProfileCache.
func (p *ProfileCache) Set(ctx context.Context, username string, prof *registration.Profile, ttl time.Duration) error {
	if prof == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = TTLProfileCache
	}
	return p.cache.Set(ctx, p.cache.Key(PrefixProfile, username), prof, ttl)
}

// Delete drops a cached profile.
func (p *ProfileCache) Delete(ctx context.Context, username string) error {
	return p.cache.Delete(ctx, p.cache.Key(PrefixProfile, username))
}
