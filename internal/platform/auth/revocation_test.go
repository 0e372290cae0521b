package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRevocationStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryRevocationStore()
	defer s.Close()

	require.NoError(t, s.Revoke(ctx, "jti-live", time.Now().Add(time.Hour)))
	require.NoError(t, s.Revoke(ctx, "jti-old", time.Now().Add(-time.Minute)))

	ok, _ := s.IsRevoked(ctx, "jti-live")
	assert.True(t, ok)
	ok, _ = s.IsRevoked(ctx, "jti-unknown")
	assert.False(t, ok)

	s.sweep(time.Now())
	ok, _ = s.IsRevoked(ctx, "jti-old")
	assert.False(t, ok, "expired entry should be swept")
	ok, _ = s.IsRevoked(ctx, "jti-live")
	assert.True(t, ok)
}

func TestRedisRevocationStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	s := NewRedisRevocationStore(client)
	require.NoError(t, s.Revoke(ctx, "abc", time.Now().Add(time.Minute)))

	ok, err := s.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(2 * time.Minute)
	ok, err = s.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, ok, "revocation should expire with the token")

	require.NoError(t, s.Revoke(ctx, "already-expired", time.Now().Add(-time.Second)))
	ok, _ = s.IsRevoked(ctx, "already-expired")
	assert.False(t, ok)
}
