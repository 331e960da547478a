package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func fail(context.Context) error { return errBoom }

func ok(context.Context) error { return nil }

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	var transitions []State
	cb := New("test",
		WithFailureThreshold(2),
		WithCooldown(time.Second),
		withClock(clock.now),
		WithOnStateChange(func(_ string, _, to State) { transitions = append(transitions, to) }),
	)
	ctx := context.Background()

	assert.ErrorIs(t, cb.Execute(ctx, fail), errBoom)
	assert.Equal(t, StateClosed, cb.State())
	assert.ErrorIs(t, cb.Execute(ctx, fail), errBoom)
	assert.Equal(t, StateOpen, cb.State())

	assert.ErrorIs(t, cb.Execute(ctx, ok), ErrCircuitOpen)

	clock.t = clock.t.Add(time.Second)
	require.NoError(t, cb.Execute(ctx, ok))
	assert.Equal(t, StateHalfOpen, cb.State())
	require.NoError(t, cb.Execute(ctx, ok))
	assert.Equal(t, StateClosed, cb.State())

	assert.Equal(t, []State{StateOpen, StateHalfOpen, StateClosed}, transitions)
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	cb := New("test", WithFailureThreshold(1), WithCooldown(time.Second), withClock(clock.now))
	ctx := context.Background()

	_ = cb.Execute(ctx, fail)
	clock.t = clock.t.Add(2 * time.Second)
	_ = cb.Execute(ctx, fail)

	assert.Equal(t, StateOpen, cb.State())
	assert.ErrorIs(t, cb.Execute(ctx, ok), ErrCircuitOpen)
}

func TestCircuitBreaker_IsFailureFilter(t *testing.T) {
	cb := New("test", WithFailureThreshold(1), WithIsFailure(func(err error) bool {
		return !errors.Is(err, errBoom)
	}))

	_ = cb.Execute(context.Background(), fail)

	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, 1, cb.Counts().TotalSuccesses)
}

func TestCircuitBreaker_CancelledContextNotCounted(t *testing.T) {
	cb := New("test", WithFailureThreshold(1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := cb.Execute(ctx, func(ctx context.Context) error { return ctx.Err() })

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateClosed, cb.State())
	counts := cb.Counts()
	assert.Equal(t, 1, counts.Requests)
	assert.Zero(t, counts.TotalSuccesses)
	assert.Zero(t, counts.TotalFailures)
}

func TestCircuitBreaker_CancelledProbeKeepsHalfOpen(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	cb := New("test", WithFailureThreshold(1), WithCooldown(time.Second), WithSuccessThreshold(1), WithMaxProbes(1), withClock(clock.now))
	_ = cb.Execute(context.Background(), fail)
	require.Equal(t, StateOpen, cb.State())
	clock.t = clock.t.Add(time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	err := cb.Execute(ctx, func(ctx context.Context) error {
		cancel()
		return ctx.Err()
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateHalfOpen, cb.State(), "a cancelled probe proves nothing")

	require.ErrorIs(t, cb.Execute(context.Background(), fail), errBoom, "the probe slot is free again")
	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreaker_HalfOpenProbeLimit(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	cb := New("test", WithFailureThreshold(1), WithCooldown(time.Second), WithMaxProbes(1), withClock(clock.now))
	_ = cb.Execute(context.Background(), fail)
	clock.t = clock.t.Add(time.Second)

	inner := make(chan error, 1)
	err := cb.Execute(context.Background(), func(ctx context.Context) error {
		inner <- cb.Execute(ctx, ok)
		return nil
	})

	require.NoError(t, err)
	assert.ErrorIs(t, <-inner, ErrTooManyRequests)
}

func TestDo_ReturnsValue(t *testing.T) {
	cb := New("test")

	v, err := Do(context.Background(), cb, func(context.Context) (int, error) { return 7, nil })

	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, 1, cb.Counts().Requests)
	assert.Equal(t, "test", cb.Name())
}

func TestPortalBreaker(t *testing.T) {
	cb := PortalBreaker(nil, nil)

	assert.Equal(t, "tlu-portal", cb.Name())
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, time.Minute, cb.cfg.Cooldown)
	assert.Equal(t, 1, cb.cfg.MaxProbes)

	cb = PortalBreaker(nil, nil, WithCooldown(time.Second))
	assert.Equal(t, time.Second, cb.cfg.Cooldown)
}
