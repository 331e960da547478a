package service

import (
	"context"
	"errors"

	"github.com/tlu-hub/tlu-group-hub/internal/application/command"
	"github.com/tlu-hub/tlu-group-hub/internal/domain/registration"
	"github.com/tlu-hub/tlu-group-hub/internal/domain/shared"
	"github.com/tlu-hub/tlu-group-hub/internal/infrastructure/external/tlu"
	"github.com/tlu-hub/tlu-group-hub/pkg/circuitbreaker"
)

// PortalClient is the part of tlu.Client the adapter needs.
type PortalClient interface {
	Authenticate(ctx context.Context, username, password string) (*tlu.TokenDTO, error)
	FetchProfile(ctx context.Context, login, accessToken string) (*registration.Profile, error)
}

// PortalAdapter adapts the tlu.Client to the command.PortalAuthenticator
// interface and to ProfileFetcher.
type PortalAdapter struct {
	client PortalClient
}

var _ command.PortalAuthenticator = (*PortalAdapter)(nil)

// NewPortalAdapter creates a new PortalAdapter.
func NewPortalAdapter(client PortalClient) *PortalAdapter {
	return &PortalAdapter{client: client}
}

// Authenticate signs in against the portal.
func (a *PortalAdapter) Authenticate(ctx context.Context, username, password string) (*command.PortalToken, error) {
	dto, err := a.client.Authenticate(ctx, username, password)
	if err != nil {
		return nil, translate(err)
	}
	return &command.PortalToken{AccessToken: dto.AccessToken, ExpiresAt: dto.ExpiresAt}, nil
}

// FetchProfile loads the profile behind an access token.
func (a *PortalAdapter) FetchProfile(ctx context.Context, login, accessToken string) (*registration.Profile, error) {
	p, err := a.client.FetchProfile(ctx, login, accessToken)
	if err != nil {
		return nil, translate(err)
	}
	return p, nil
}

// translate maps transport failures to the portal errors the web layer
// knows how to explain.
func translate(err error) error {
	switch {
	case errors.Is(err, circuitbreaker.ErrCircuitOpen), errors.Is(err, circuitbreaker.ErrTooManyRequests):
		return shared.WrapError("portal", "Request", shared.ErrPortalUnavailable, "circuit open", err)
	case errors.Is(err, context.DeadlineExceeded):
		return shared.WrapError("portal", "Request", shared.ErrPortalTimeout, "deadline exceeded", err)
	case errors.Is(err, shared.ErrInvalidFormat):
		return shared.WrapError("portal", "Parse", shared.ErrPortalInvalidResponse, "unexpected payload", err)
	default:
		return err
	}
}
