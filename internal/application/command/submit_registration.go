package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/tlu-hub/tlu-group-hub/internal/domain/grouping"
	"github.com/tlu-hub/tlu-group-hub/internal/domain/registration"
	"github.com/tlu-hub/tlu-group-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT REGISTRATION COMMAND
// Stores the form a signed-in student submitted. Portal data is reloaded
// server side; only the choices come from the browser.
// ══════════════════════════════════════════════════════════════════════════════

// SubmitRegistrationCommand contains the posted form.
type SubmitRegistrationCommand struct {
	SessionID   string
	Class       string
	Goal        string
	Strengths   []string
	DesiredRole string
}

// Choices validates the posted values. Unknown strengths are dropped.
func (c SubmitRegistrationCommand) Choices() (registration.Choices, error) {
	class, err := shared.NewClassCode(c.Class)
	if err != nil {
		return registration.Choices{}, shared.ErrUnknownClass
	}

	goal := grouping.Goal(strings.TrimSpace(c.Goal))
	if !goal.IsValid() {
		return registration.Choices{}, shared.ErrUnknownGoal
	}

	role := strings.TrimSpace(c.DesiredRole)
	if !slices.Contains(registration.DesiredRoles, role) {
		return registration.Choices{}, shared.ErrInvalidRole
	}

	var strengths []grouping.Skill
	for _, s := range c.Strengths {
		skill := grouping.Skill(strings.TrimSpace(s))
		if slices.Contains(grouping.Skills, skill) && !slices.Contains(strengths, skill) {
			strengths = append(strengths, skill)
		}
	}

	return registration.Choices{
		Class:       class,
		Goal:        goal,
		Strengths:   strengths,
		DesiredRole: role,
	}, nil
}

// SubmitRegistrationResult describes the stored registration.
type SubmitRegistrationResult struct {
	Registration registration.Registration

	// PreviousClass is set when the student moved from another class.
	PreviousClass shared.ClassCode

	// Updated is true when the student had registered before.
	Updated bool
}

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES (Interfaces)
// ══════════════════════════════════════════════════════════════════════════════

// ProfileProvider loads the portal profile of a session.
type ProfileProvider interface {
	Profile(ctx context.Context, sess *registration.Session) (*registration.Profile, error)
}

// RegistrationObserver is told about every submission.
type RegistrationObserver interface {
	ObserveRegistration(class, outcome string)
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// SubmitRegistrationHandler handles SubmitRegistrationCommand.
type SubmitRegistrationHandler struct {
	sessions registration.SessionStore
	profiles ProfileProvider
	repo     registration.Repository
	logger   *slog.Logger
	observer RegistrationObserver
	now      func() time.Time
}

// NewSubmitRegistrationHandler creates a new SubmitRegistrationHandler.
// observer may be nil.
func NewSubmitRegistrationHandler(
	sessions registration.SessionStore,
	profiles ProfileProvider,
	repo registration.Repository,
	logger *slog.Logger,
	observer RegistrationObserver,
) *SubmitRegistrationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SubmitRegistrationHandler{
		sessions: sessions,
		profiles: profiles,
		repo:     repo,
		logger:   logger.With("handler", "submit_registration"),
		observer: observer,
		now:      time.Now,
	}
}

// Handle validates and stores the registration.
func (h *SubmitRegistrationHandler) Handle(ctx context.Context, cmd SubmitRegistrationCommand) (*SubmitRegistrationResult, error) {
	choices, err := cmd.Choices()
	if err != nil {
		h.observe(cmd.Class, "invalid")
		return nil, err
	}

	sess, err := h.sessions.Get(ctx, cmd.SessionID)
	if err != nil {
		return nil, err
	}

	profile, err := h.profiles.Profile(ctx, sess)
	if err != nil {
		h.observe(choices.Class.String(), "error")
		return nil, fmt.Errorf("submit_registration: load profile: %w", err)
	}

	result := &SubmitRegistrationResult{}
	prev, err := h.repo.Get(ctx, profile.StudentID)
	switch {
	case err == nil:
		result.Updated = true
		if prev.Class != choices.Class {
			result.PreviousClass = prev.Class
		}
	case errors.Is(err, shared.ErrRegistrationNotFound):
	default:
		return nil, fmt.Errorf("submit_registration: lookup: %w", err)
	}

	reg := registration.NewRegistration(*profile, choices, h.now())
	if err := h.repo.Upsert(ctx, &reg); err != nil {
		h.observe(choices.Class.String(), "error")
		return nil, fmt.Errorf("submit_registration: store: %w", err)
	}
	result.Registration = reg

	h.observe(choices.Class.String(), "ok")
	h.logger.Info("registration submitted",
		"student_id", reg.StudentID.String(),
		"class", reg.Class.String(),
		"session", reg.Session(),
		"updated", result.Updated,
		"previous_class", result.PreviousClass.String(),
	)
	return result, nil
}

func (h *SubmitRegistrationHandler) observe(class, outcome string) {
	if h.observer != nil {
		h.observer.ObserveRegistration(class, outcome)
	}
}
