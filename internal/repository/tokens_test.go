// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository_test

import (
	"context"
	"testing"
	"time"

	"codeberg.org/oliverandrich/go-auth-api/internal/repository"
	"codeberg.org/oliverandrich/go-auth-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsumeEmailVerificationToken(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	user := testutil.NewTestUser(t, repo, "ana@example.com", "hash")
	require.NoError(t, repo.CreateEmailVerificationToken(ctx, user.ID, "hash-1", time.Now().Add(24*time.Hour)))

	token, err := repo.ConsumeEmailVerificationToken(ctx, "hash-1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, token.UserID)

	// Second consume of the same value must miss.
	_, err = repo.ConsumeEmailVerificationToken(ctx, "hash-1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestConsumeExpiredEmailVerificationToken(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	user := testutil.NewTestUser(t, repo, "ana@example.com", "hash")
	require.NoError(t, repo.CreateEmailVerificationToken(ctx, user.ID, "hash-1", time.Now().Add(-time.Minute)))

	_, err := repo.ConsumeEmailVerificationToken(ctx, "hash-1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPasswordResetTokenLifecycle(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	user := testutil.NewTestUser(t, repo, "ana@example.com", "hash")
	require.NoError(t, repo.CreatePasswordResetToken(ctx, user.ID, "reset-1", time.Now().Add(time.Hour)))

	token, err := repo.FindValidPasswordResetToken(ctx, "reset-1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, token.UserID)

	token, err = repo.ConsumePasswordResetToken(ctx, "reset-1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, token.UserID)

	_, err = repo.ConsumePasswordResetToken(ctx, "reset-1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRevokeAllPasswordResetTokensByUser(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	user := testutil.NewTestUser(t, repo, "ana@example.com", "hash")
	require.NoError(t, repo.CreatePasswordResetToken(ctx, user.ID, "reset-1", time.Now().Add(time.Hour)))
	require.NoError(t, repo.RevokeAllPasswordResetTokensByUser(ctx, user.ID))

	// Revoked token is invisible to both lookup and consume.
	_, err := repo.FindValidPasswordResetToken(ctx, "reset-1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repo.ConsumePasswordResetToken(ctx, "reset-1")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	// A fresh token issued after the revoke works.
	require.NoError(t, repo.CreatePasswordResetToken(ctx, user.ID, "reset-2", time.Now().Add(time.Hour)))
	_, err = repo.ConsumePasswordResetToken(ctx, "reset-2")
	assert.NoError(t, err)
}

func TestDeleteExpiredTokens(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	user := testutil.NewTestUser(t, repo, "ana@example.com", "hash")
	require.NoError(t, repo.CreateEmailVerificationToken(ctx, user.ID, "expired", time.Now().Add(-time.Minute)))
	require.NoError(t, repo.CreateEmailVerificationToken(ctx, user.ID, "live", time.Now().Add(time.Hour)))
	require.NoError(t, repo.CreatePasswordResetToken(ctx, user.ID, "expired", time.Now().Add(-time.Minute)))

	require.NoError(t, repo.DeleteExpiredEmailVerificationTokens(ctx))
	require.NoError(t, repo.DeleteExpiredPasswordResetTokens(ctx))

	_, err := repo.ConsumeEmailVerificationToken(ctx, "live")
	assert.NoError(t, err)
}
