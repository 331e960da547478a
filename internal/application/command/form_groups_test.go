package command

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tlu-hub/tlu-group-hub/internal/domain/grouping"
	"github.com/tlu-hub/tlu-group-hub/internal/domain/registration"
	"github.com/tlu-hub/tlu-group-hub/internal/domain/shared"
)

func seedRepo(t *testing.T, n int) *fakeRepo {
	t.Helper()
	repo := &fakeRepo{}
	for i := 0; i < n; i++ {
		session := shared.SessionSlots{"Ca 1"}
		if i%3 == 0 {
			session = shared.SessionSlots{"Ca 2"}
		}
		class := shared.KnownClasses[i%2]
		reg := registration.Registration{
			StudentID:   shared.StudentID(fmt.Sprintf("22510600%02d", i)),
			Name:        fmt.Sprintf("SV %d", i),
			GPA:         float64(i%5) * 0.8,
			Sessions:    session,
			Goal:        grouping.Goals[i%len(grouping.Goals)],
			Strengths:   grouping.SkillSet{grouping.Skills[i%len(grouping.Skills)]: {}},
			DesiredRole: grouping.MemberLabel,
			Class:       class,
		}
		require.NoError(t, repo.Upsert(context.Background(), &reg))
	}
	return repo
}

func TestFormGroupsCommand_Validate(t *testing.T) {
	assert.NoError(t, FormGroupsCommand{}.Validate())
	assert.NoError(t, FormGroupsCommand{Class: "64HTTT2", GroupSize: 4}.Validate())
	assert.ErrorIs(t, FormGroupsCommand{GroupSize: -1}.Validate(), shared.ErrInvalidGroupSize)
	assert.ErrorIs(t, FormGroupsCommand{GroupSize: 51}.Validate(), shared.ErrInvalidGroupSize)
	assert.ErrorIs(t, FormGroupsCommand{Class: "X"}.Validate(), shared.ErrUnknownClass)
}

func TestFormGroupsHandler_AllClasses(t *testing.T) {
	repo := seedRepo(t, 20)
	rec := &fakeRecorder{}
	obs := &fakeObserver{}
	h := NewFormGroupsHandler(repo, FormGroupsHandlerConfig{
		Engine:   grouping.Config{GroupSize: 5, Seed: 1},
		Recorder: rec,
		Observer: obs,
	})

	res, err := h.Handle(context.Background(), FormGroupsCommand{Record: true})

	require.NoError(t, err)
	assert.Len(t, res.Result.Students(), 20)
	assert.Equal(t, 5, res.Result.GroupSize)
	require.Len(t, res.Result.Cohorts, 2)
	assert.True(t, res.Recorded)
	assert.Equal(t, []string{res.RunID.String()}, []string{rec.runs[0].String()})
	assert.Equal(t, 1, obs.groupings)
}

func TestFormGroupsHandler_OneClassWithOverrides(t *testing.T) {
	repo := seedRepo(t, 20)
	seed := int64(99)
	h := NewFormGroupsHandler(repo, FormGroupsHandlerConfig{Engine: grouping.DefaultConfig()})

	res, err := h.Handle(context.Background(), FormGroupsCommand{Class: "64HTTT1", GroupSize: 3, Seed: &seed})

	require.NoError(t, err)
	assert.Len(t, res.Result.Students(), 10)
	assert.Equal(t, 3, res.Result.GroupSize)
	assert.Equal(t, int64(99), res.Result.Seed)
	assert.False(t, res.Recorded, "not recorded without a recorder")
	for _, s := range res.Result.Students() {
		assert.NotEmpty(t, s.GroupID)
	}
}

func TestFormGroupsHandler_Deterministic(t *testing.T) {
	repo := seedRepo(t, 23)
	h := NewFormGroupsHandler(repo, FormGroupsHandlerConfig{Engine: grouping.DefaultConfig()})

	a, err := h.Handle(context.Background(), FormGroupsCommand{})
	require.NoError(t, err)
	b, err := h.Handle(context.Background(), FormGroupsCommand{})
	require.NoError(t, err)

	assert.NotEqual(t, a.RunID, b.RunID)
	assert.Equal(t, a.Result, b.Result)
}

func TestFormGroupsHandler_EmptyAndRecordFailure(t *testing.T) {
	h := NewFormGroupsHandler(&fakeRepo{}, FormGroupsHandlerConfig{
		Recorder: &fakeRecorder{err: errors.New("db down")},
	})

	_, err := h.Handle(context.Background(), FormGroupsCommand{Record: true})
	assert.ErrorContains(t, err, "db down")

	res, err := h.Handle(context.Background(), FormGroupsCommand{})
	require.NoError(t, err)
	assert.Empty(t, res.Result.Cohorts)
}
