package registration

import (
	"context"

	"github.com/tlu-hub/tlu-group-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Implementations live in infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository stores registrations. A student is registered in at most one
// class at a time.
type Repository interface {
	// Upsert stores the registration in its class and removes the student
	// from every other class.
	Upsert(ctx context.Context, reg *Registration) error

	// Get returns the current registration of a student.
	// Returns ErrRegistrationNotFound if the student has not registered.
	Get(ctx context.Context, id shared.StudentID) (*Registration, error)

	// List returns the registrations of one class in submission order.
	List(ctx context.Context, class shared.ClassCode) ([]Registration, error)

	// ListAll returns every registration, class by class in KnownClasses order.
	ListAll(ctx context.Context) ([]Registration, error)
}
