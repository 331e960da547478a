package redis

import (
	"context"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tlu-hub/tlu-group-hub/internal/domain/registration"
	"github.com/tlu-hub/tlu-group-hub/internal/domain/shared"
)

// integrationCache connects to REDIS_TEST_URL or skips.
func integrationCache(t *testing.T) *Cache {
	t.Helper()
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}
	cfg := DefaultConfig(url)
	cfg.KeyPrefix = "tlu-test:" + t.Name() + ":"
	c, err := NewCache(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCache_Key(t *testing.T) {
	c := NewCacheFromClient(goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:0"}), "tlu:")
	defer c.Close()

	assert.Equal(t, "tlu:session:abc", c.Key(PrefixSession, "abc"))
	assert.Equal(t, "tlu:profile:2251061234", c.Key(PrefixProfile, "2251061234"))
}

func TestSessionStore_SaveExpired(t *testing.T) {
	c := NewCacheFromClient(goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:0"}), "tlu:")
	defer c.Close()
	store := NewSessionStore(c)

	err := store.Save(context.Background(), &registration.Session{
		ID:        "abc",
		ExpiresAt: time.Now().Add(-time.Second),
	})

	assert.ErrorIs(t, err, shared.ErrSessionExpired)
}

func TestSessionStore_Integration(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(integrationCache(t))

	sess := &registration.Session{
		ID:          "s-1",
		Username:    "2251061234",
		AccessToken: "tok",
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
		ExpiresAt:   time.Now().Add(time.Minute).UTC().Truncate(time.Second),
	}
	require.NoError(t, store.Save(ctx, sess))

	got, err := store.Get(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, sess.Username, got.Username)
	assert.Equal(t, sess.AccessToken, got.AccessToken)

	require.NoError(t, store.Delete(ctx, "s-1"))
	_, err = store.Get(ctx, "s-1")
	assert.ErrorIs(t, err, shared.ErrSessionNotFound)
}

func TestProfileCache_Integration(t *testing.T) {
	ctx := context.Background()
	cache := NewProfileCache(integrationCache(t))

	_, err := cache.Get(ctx, "2251061234")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	mark := 7.5
	require.NoError(t, cache.Set(ctx, "2251061234", &registration.Profile{
		StudentID: "2251061234",
		Name:      "Nguyễn Văn A",
		GPA:       3.1,
		Mark:      &mark,
		Sessions:  shared.SessionSlots{"Ca 2"},
	}, 0))

	got, err := cache.Get(ctx, "2251061234")
	require.NoError(t, err)
	assert.Equal(t, "Nguyễn Văn A", got.Name)
	require.NotNil(t, got.Mark)
	assert.Equal(t, 7.5, *got.Mark)
	assert.Equal(t, shared.SessionSlots{"Ca 2"}, got.Sessions)
}
