package command

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tlu-hub/tlu-group-hub/internal/domain/grouping"
	"github.com/tlu-hub/tlu-group-hub/internal/domain/registration"
	"github.com/tlu-hub/tlu-group-hub/internal/domain/shared"
)

type fakePortal struct {
	token *PortalToken
	err   error
	calls int
}

func (f *fakePortal) Authenticate(_ context.Context, _, _ string) (*PortalToken, error) {
	f.calls++
	return f.token, f.err
}

type fakeSessions struct {
	mu       sync.Mutex
	sessions map[string]registration.Session
}

func newFakeSessions(sessions ...registration.Session) *fakeSessions {
	f := &fakeSessions{sessions: make(map[string]registration.Session)}
	for _, s := range sessions {
		f.sessions[s.ID] = s
	}
	return f
}

func (f *fakeSessions) Save(_ context.Context, s *registration.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[s.ID] = *s
	return nil
}

func (f *fakeSessions) Get(_ context.Context, id string) (*registration.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, shared.ErrSessionNotFound
	}
	return &s, nil
}

func (f *fakeSessions) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, id)
	return nil
}

type fakeProfileCache struct {
	deleted []string
}

func (f *fakeProfileCache) Get(context.Context, string) (*registration.Profile, error) {
	return nil, shared.ErrNotFound
}

func (f *fakeProfileCache) Set(context.Context, string, *registration.Profile, time.Duration) error {
	return nil
}

func (f *fakeProfileCache) Delete(_ context.Context, username string) error {
	f.deleted = append(f.deleted, username)
	return nil
}

type fakeProfiles struct {
	profile *registration.Profile
	err     error
}

func (f *fakeProfiles) Profile(context.Context, *registration.Session) (*registration.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	p := *f.profile
	return &p, nil
}

// fakeRepo keeps registrations in submission order.
type fakeRepo struct {
	mu   sync.Mutex
	regs []registration.Registration
}

func (f *fakeRepo) Upsert(_ context.Context, reg *registration.Registration) error {
	if err := reg.Validate(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.regs {
		if f.regs[i].StudentID == reg.StudentID {
			f.regs[i] = *reg
			return nil
		}
	}
	f.regs = append(f.regs, *reg)
	return nil
}

func (f *fakeRepo) Get(_ context.Context, id shared.StudentID) (*registration.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.regs {
		if f.regs[i].StudentID == id {
			r := f.regs[i]
			return &r, nil
		}
	}
	return nil, shared.ErrRegistrationNotFound
}

func (f *fakeRepo) List(_ context.Context, class shared.ClassCode) ([]registration.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []registration.Registration
	for _, r := range f.regs {
		if r.Class == class {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListAll(ctx context.Context) ([]registration.Registration, error) {
	var out []registration.Registration
	for _, c := range shared.KnownClasses {
		regs, _ := f.List(ctx, c)
		out = append(out, regs...)
	}
	return out, nil
}

type fakeRecorder struct {
	runs []uuid.UUID
	err  error
}

func (f *fakeRecorder) RecordRun(_ context.Context, runID uuid.UUID, _ string, _ grouping.Result) error {
	f.runs = append(f.runs, runID)
	return f.err
}

type fakeObserver struct {
	logins        []string
	registrations []string
	groupings     int
}

func (f *fakeObserver) ObserveLogin(outcome string) { f.logins = append(f.logins, outcome) }

func (f *fakeObserver) ObserveRegistration(class, outcome string) {
	f.registrations = append(f.registrations, class+":"+outcome)
}

func (f *fakeObserver) ObserveGrouping(string, grouping.Result, time.Duration) { f.groupings++ }
