// Package command contains write operations (CQRS - Commands).
// Commands change state: sessions, registrations and recorded grouping runs.
package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tlu-hub/tlu-group-hub/internal/domain/registration"
	"github.com/tlu-hub/tlu-group-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LOGIN COMMAND
// Exchanges portal credentials for a token and opens a browser session.
// ══════════════════════════════════════════════════════════════════════════════

// LoginCommand carries the credentials typed into the login form.
type LoginCommand struct {
	Username string
	Password string
}

// Validate validates the command.
func (c LoginCommand) Validate() error {
	if strings.TrimSpace(c.Username) == "" || c.Password == "" {
		return shared.WrapError("session", "Login", shared.ErrEmptyValue, "student id and password are required", nil)
	}
	return nil
}

// LoginResult is the opened session.
type LoginResult struct {
	Session *registration.Session
}

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES (Interfaces)
// ══════════════════════════════════════════════════════════════════════════════

// PortalToken is an access token issued by the portal.
type PortalToken struct {
	AccessToken string
	ExpiresAt   time.Time
}

// PortalAuthenticator signs students in against the university portal.
type PortalAuthenticator interface {
	// Authenticate returns ErrInvalidCredentials when the portal rejects the
	// credentials.
	Authenticate(ctx context.Context, username, password string) (*PortalToken, error)
}

// LoginObserver is told about every login attempt.
type LoginObserver interface {
	ObserveLogin(outcome string)
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// LoginHandlerConfig contains configuration for the handler.
type LoginHandlerConfig struct {
	// SessionTTL caps the session lifetime. The portal token expiry wins when
	// it is earlier.
	SessionTTL time.Duration

	Logger   *slog.Logger
	Observer LoginObserver
}

// LoginHandler handles LoginCommand and logouts.
type LoginHandler struct {
	portal   PortalAuthenticator
	sessions registration.SessionStore
	profiles registration.ProfileCache
	ttl      time.Duration
	logger   *slog.Logger
	observer LoginObserver
	now      func() time.Time
	newID    func() string
}

// NewLoginHandler creates a new LoginHandler. profiles may be nil.
func NewLoginHandler(
	portal PortalAuthenticator,
	sessions registration.SessionStore,
	profiles registration.ProfileCache,
	config LoginHandlerConfig,
) *LoginHandler {
	if config.SessionTTL <= 0 {
		config.SessionTTL = time.Hour
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &LoginHandler{
		portal:   portal,
		sessions: sessions,
		profiles: profiles,
		ttl:      config.SessionTTL,
		logger:   config.Logger.With("handler", "login"),
		observer: config.Observer,
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
	}
}

// Handle authenticates and stores a new session.
func (h *LoginHandler) Handle(ctx context.Context, cmd LoginCommand) (*LoginResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	username := strings.TrimSpace(cmd.Username)

	token, err := h.portal.Authenticate(ctx, username, cmd.Password)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) {
			h.observe("rejected")
			h.logger.Info("login rejected", "username", username)
			return nil, err
		}
		h.observe("error")
		return nil, fmt.Errorf("login: %w", err)
	}

	now := h.now()
	expires := now.Add(h.ttl)
	if !token.ExpiresAt.IsZero() && token.ExpiresAt.Before(expires) {
		expires = token.ExpiresAt
	}
	sess := &registration.Session{
		ID:          h.newID(),
		Username:    username,
		AccessToken: token.AccessToken,
		CreatedAt:   now,
		ExpiresAt:   expires,
	}
	if err := h.sessions.Save(ctx, sess); err != nil {
		h.observe("error")
		return nil, fmt.Errorf("login: save session: %w", err)
	}

	// A fresh login should show fresh portal data.
	if h.profiles != nil {
		if err := h.profiles.Delete(ctx, username); err != nil {
			h.logger.Warn("failed to drop cached profile", "username", username, "error", err)
		}
	}

	h.observe("ok")
	h.logger.Info("login succeeded", "username", username, "expires_at", expires)
	return &LoginResult{Session: sess}, nil
}

// Logout deletes the session. Unknown ids are not an error.
func (h *LoginHandler) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := h.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (h *LoginHandler) observe(outcome string) {
	if h.observer != nil {
		h.observer.ObserveLogin(outcome)
	}
}
