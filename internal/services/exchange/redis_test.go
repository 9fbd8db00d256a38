// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package exchange_test

import (
	"context"
	"testing"
	"time"

	"codeberg.org/oliverandrich/go-auth-api/internal/services/exchange"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T, ttl, grace time.Duration) (*exchange.RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return exchange.NewRedisStore(client, ttl, grace), mr
}

func TestRedisExchangeOneShotWithReplay(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t, time.Minute, time.Minute)

	token, err := store.Generate(ctx, payload)
	require.NoError(t, err)
	assert.Equal(t, 1, store.Size(ctx))

	got, ok := store.Exchange(ctx, token)
	require.True(t, ok)
	assert.JSONEq(t, string(payload), string(got))
	assert.Equal(t, 0, store.Size(ctx))

	// Replay within the grace window returns the consumed copy.
	got, ok = store.Exchange(ctx, token)
	require.True(t, ok)
	assert.JSONEq(t, string(payload), string(got))

	// Once the consumed key expires the token is gone.
	mr.FastForward(2 * time.Minute)
	_, ok = store.Exchange(ctx, token)
	assert.False(t, ok)
}

func TestRedisExchangeExpiredToken(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t, time.Minute, time.Minute)

	token, err := store.Generate(ctx, payload)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, ok := store.Exchange(ctx, token)
	assert.False(t, ok)
}

func TestRedisExchangeUnknownToken(t *testing.T) {
	ctx := context.Background()
	store, _ := newRedisStore(t, time.Minute, time.Minute)

	_, ok := store.Exchange(ctx, "nonexistent")
	assert.False(t, ok)
}
