package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestSessionStore_CreateGetDelete(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	s := NewSessionStore(rdb, time.Hour, false)

	sid, err := s.Create(ctx, 42)
	require.NoError(t, err)
	require.NotEmpty(t, sid)
	assert.True(t, mr.Exists(sessionPrefix+sid))
	assert.Equal(t, time.Hour, mr.TTL(sessionPrefix+sid))

	userID, ok, err := s.Get(ctx, sid)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(42), userID)

	require.NoError(t, s.Delete(ctx, sid))
	_, ok, err = s.Get(ctx, sid)
	require.NoError(t, err)
	assert.False(t, ok)

	// second delete is harmless
	require.NoError(t, s.Delete(ctx, sid))
}

func TestSessionStore_UnknownAndEmpty(t *testing.T) {
	ctx := context.Background()
	_, rdb := newTestRedis(t)
	s := NewSessionStore(rdb, time.Hour, false)

	for _, sid := range []string{"", "no-such-session"} {
		_, ok, err := s.Get(ctx, sid)
		require.NoError(t, err)
		assert.False(t, ok, sid)
	}
	assert.NoError(t, s.Delete(ctx, ""))
}

func TestSessionStore_Expiry(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	s := NewSessionStore(rdb, time.Minute, false)

	sid, err := s.Create(ctx, 1)
	require.NoError(t, err)

	mr.FastForward(30 * time.Second)
	_, ok, err := s.Get(ctx, sid)
	require.NoError(t, err)
	assert.True(t, ok)

	// absolute expiry: the lookup above did not extend it
	mr.FastForward(31 * time.Second)
	_, ok, err = s.Get(ctx, sid)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionStore_Sliding(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	s := NewSessionStore(rdb, time.Minute, true)

	sid, err := s.Create(ctx, 1)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		mr.FastForward(45 * time.Second)
		_, ok, err := s.Get(ctx, sid)
		require.NoError(t, err)
		require.True(t, ok, "lookup %d", i)
	}

	mr.FastForward(61 * time.Second)
	_, ok, err := s.Get(ctx, sid)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionStore_DefaultTTL(t *testing.T) {
	_, rdb := newTestRedis(t)
	assert.Equal(t, DefaultSessionTTL, NewSessionStore(rdb, 0, false).TTL())
}

func TestSessionStore_CorruptValue(t *testing.T) {
	mr, rdb := newTestRedis(t)
	s := NewSessionStore(rdb, time.Hour, false)
	require.NoError(t, mr.Set(sessionPrefix+"bad", "not-a-number"))

	_, ok, err := s.Get(context.Background(), "bad")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionStore_BackendDown(t *testing.T) {
	mr, rdb := newTestRedis(t)
	s := NewSessionStore(rdb, time.Hour, false)
	mr.Close()

	_, ok, err := s.Get(context.Background(), "whatever")
	assert.Error(t, err)
	assert.False(t, ok)
}
