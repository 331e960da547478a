// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tlu-hub/tlu-group-hub/internal/domain/grouping"
	"github.com/tlu-hub/tlu-group-hub/internal/domain/registration"
	"github.com/tlu-hub/tlu-group-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET REGISTRATION FORM QUERY
// Loads everything the registration form shows for a signed-in student.
// ══════════════════════════════════════════════════════════════════════════════

// GetRegistrationFormQuery identifies the browser session.
type GetRegistrationFormQuery struct {
	SessionID string
}

// RegistrationForm is the view model of the form page.
type RegistrationForm struct {
	Session *registration.Session
	Profile *registration.Profile

	// Existing is the student's current registration, nil if none. The form
	// preselects its choices.
	Existing *registration.Registration

	Classes []shared.ClassCode
	Goals   []grouping.Goal
	Skills  []grouping.Skill
	Roles   []string
}

// ProfileProvider loads the portal profile of a session.
type ProfileProvider interface {
	Profile(ctx context.Context, sess *registration.Session) (*registration.Profile, error)
}

// GetRegistrationFormHandler handles GetRegistrationFormQuery.
type GetRegistrationFormHandler struct {
	sessions registration.SessionStore
	profiles ProfileProvider
	repo     registration.Repository
	logger   *slog.Logger
}

// NewGetRegistrationFormHandler creates a new handler.
func NewGetRegistrationFormHandler(
	sessions registration.SessionStore,
	profiles ProfileProvider,
	repo registration.Repository,
	logger *slog.Logger,
) *GetRegistrationFormHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GetRegistrationFormHandler{
		sessions: sessions,
		profiles: profiles,
		repo:     repo,
		logger:   logger.With("handler", "get_registration_form"),
	}
}

// Handle returns ErrSessionNotFound when the browser is not signed in, and
// ErrSessionExpired when the portal no longer accepts the session's token;
// the session is dropped in that case.
func (h *GetRegistrationFormHandler) Handle(ctx context.Context, q GetRegistrationFormQuery) (*RegistrationForm, error) {
	sess, err := h.sessions.Get(ctx, q.SessionID)
	if err != nil {
		return nil, err
	}

	profile, err := h.profiles.Profile(ctx, sess)
	if errors.Is(err, shared.ErrPortalTokenExpired) {
		if delErr := h.sessions.Delete(ctx, sess.ID); delErr != nil {
			h.logger.Warn("failed to drop expired session", "error", delErr)
		}
		return nil, shared.ErrSessionExpired
	}
	if err != nil {
		return nil, fmt.Errorf("get_registration_form: %w", err)
	}

	form := &RegistrationForm{
		Session: sess,
		Profile: profile,
		Classes: shared.KnownClasses,
		Goals:   grouping.Goals,
		Skills:  grouping.Skills,
		Roles:   registration.DesiredRoles,
	}

	existing, err := h.repo.Get(ctx, profile.StudentID)
	switch {
	case err == nil:
		form.Existing = existing
	case errors.Is(err, shared.ErrRegistrationNotFound):
	default:
		// The form still works without the preselection.
		h.logger.Warn("failed to load existing registration", "student_id", profile.StudentID.String(), "error", err)
	}
	return form, nil
}
