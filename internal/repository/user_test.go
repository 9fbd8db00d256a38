// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository_test

import (
	"context"
	"testing"

	"codeberg.org/oliverandrich/go-auth-api/internal/models"
	"codeberg.org/oliverandrich/go-auth-api/internal/repository"
	"codeberg.org/oliverandrich/go-auth-api/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	user := testutil.NewTestUser(t, repo, "ana@example.com", "hash")

	got, err := repo.GetUserByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.True(t, got.HasPassword())
	assert.False(t, got.EmailVerified)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	testutil.NewTestUser(t, repo, "ana@example.com", "hash")

	err := repo.CreateUser(ctx, &models.User{
		ID:    uuid.NewString(),
		Email: "ana@example.com",
		Role:  models.RoleUser,
	})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestGetUserNotFound(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	_, err := repo.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = repo.GetUserByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSetUserEmailVerified(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	user := testutil.NewTestUser(t, repo, "ana@example.com", "hash")
	require.NoError(t, repo.SetUserEmailVerified(ctx, user.ID))

	got, err := repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, got.EmailVerified)

	assert.ErrorIs(t, repo.SetUserEmailVerified(ctx, uuid.NewString()), repository.ErrNotFound)
}

func TestUpdateUserPassword(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	user := testutil.NewTestUser(t, repo, "ana@example.com", "old-hash")
	require.NoError(t, repo.UpdateUserPassword(ctx, user.ID, "new-hash"))

	got, err := repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, got.PasswordHash)
	assert.Equal(t, "new-hash", *got.PasswordHash)
}

func TestUpdateUserProfile(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	user := testutil.NewTestUser(t, repo, "ana@example.com", "")

	// Empty values must not clobber existing data.
	require.NoError(t, repo.UpdateUserProfile(ctx, user.ID, "", "https://cdn.example.com/a.png"))
	require.NoError(t, repo.UpdateUserProfile(ctx, user.ID, "Ana", ""))

	got, err := repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.Name)
	assert.Equal(t, "https://cdn.example.com/a.png", got.Image)
}
