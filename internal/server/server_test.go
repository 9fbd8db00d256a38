// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/oliverandrich/go-auth-api/internal/config"
	"codeberg.org/oliverandrich/go-auth-api/internal/repository"
	"codeberg.org/oliverandrich/go-auth-api/internal/services/exchange"
	"codeberg.org/oliverandrich/go-auth-api/internal/testutil"
)

func TestNewExchangeStoreDefaultsToMemory(t *testing.T) {
	store, err := newExchangeStore(&config.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	_, ok := store.(*exchange.MemoryStore)
	assert.True(t, ok)
}

func TestNewExchangeStoreRejectsBadRedisURL(t *testing.T) {
	_, err := newExchangeStore(&config.Config{
		Exchange: config.ExchangeConfig{Backend: "redis", RedisURL: "not-a-url"},
	})
	assert.Error(t, err)
}

func TestBuildProviders(t *testing.T) {
	cfg := &config.Config{
		Server: config.ServerConfig{BaseURL: "https://api.example.com"},
		OAuth: config.OAuthConfig{
			Google: config.OAuthProviderConfig{ClientID: "id", ClientSecret: "secret"},
		},
	}

	providers := buildProviders(cfg)
	require.Len(t, providers, 1)

	_, err := providers.Get("google")
	assert.NoError(t, err)
	_, err = providers.Get("github")
	assert.Error(t, err, "unconfigured providers are not registered")
}

func TestTokenSweeperRemovesExpiredTokens(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	user := testutil.NewTestUser(t, repo, "sweep@example.com", "hash")

	ctx := context.Background()
	require.NoError(t, repo.CreateEmailVerificationToken(ctx, user.ID, "expired-hash", time.Now().Add(-time.Hour)))
	require.NoError(t, repo.CreatePasswordResetToken(ctx, user.ID, "live-hash", time.Now().Add(time.Hour)))

	sweeper := newTokenSweeper(repo, time.Hour)
	t.Cleanup(sweeper.Stop)
	sweeper.sweep()

	_, err := repo.ConsumeEmailVerificationToken(ctx, "expired-hash")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	live, err := repo.FindValidPasswordResetToken(ctx, "live-hash")
	require.NoError(t, err)
	assert.Equal(t, user.ID, live.UserID)
}
