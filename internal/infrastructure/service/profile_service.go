package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/tlu-hub/tlu-group-hub/internal/domain/registration"
	"github.com/tlu-hub/tlu-group-hub/internal/domain/shared"
)

// ProfileFetcher loads a profile from the portal.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, login, accessToken string) (*registration.Profile, error)
}

// ProfileService serves portal profiles cache first. It implements the
// ProfileProvider ports of the command and query packages.
type ProfileService struct {
	fetcher ProfileFetcher
	cache   registration.ProfileCache
	ttl     time.Duration
	logger  *slog.Logger
}

// NewProfileService creates a new ProfileService. cache may be nil.
func NewProfileService(fetcher ProfileFetcher, cache registration.ProfileCache, ttl time.Duration, logger *slog.Logger) *ProfileService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileService{
		fetcher: fetcher,
		cache:   cache,
		ttl:     ttl,
		logger:  logger.With("service", "profile"),
	}
}

// Profile returns the cached profile of the session's user or fetches it.
// Cache failures are logged and fall through to the portal.
func (s *ProfileService) Profile(ctx context.Context, sess *registration.Session) (*registration.Profile, error) {
	if s.cache != nil {
		p, err := s.cache.Get(ctx, sess.Username)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("profile cache read failed", "username", sess.Username, "error", err)
		}
	}

	p, err := s.fetcher.FetchProfile(ctx, sess.Username, sess.AccessToken)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, sess.Username, p, s.ttl); err != nil {
			s.logger.Warn("profile cache write failed", "username", sess.Username, "error", err)
		}
	}
	return p, nil
}
