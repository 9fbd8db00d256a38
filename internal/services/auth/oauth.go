// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"codeberg.org/oliverandrich/go-auth-api/internal/models"
	"codeberg.org/oliverandrich/go-auth-api/internal/repository"
	"codeberg.org/oliverandrich/go-auth-api/internal/services/oauth"
)

// OAuthLogin finds or creates the account for a resolved provider
// profile and issues a session. Accounts created here have no password;
// an existing credentials account with the same email is reused, which
// links the provider to it.
func (s *Service) OAuthLogin(ctx context.Context, profile oauth.Profile) Result {
	email := normalizeEmail(profile.Email)
	if email == "" {
		return Error(http.StatusBadRequest, "The provider did not supply an email address")
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		// Backfill profile data the account is missing and trust the
		// provider's verification of the address it vouches for.
		if uerr := s.repo.UpdateUserProfile(ctx, user.ID, profile.Name, profile.AvatarURL); uerr != nil {
			return internalError("oauth_login", "Unable to log in", uerr)
		}
		if profile.EmailVerified && !user.EmailVerified {
			if verr := s.repo.SetUserEmailVerified(ctx, user.ID); verr != nil {
				return internalError("oauth_login", "Unable to log in", verr)
			}
			user.EmailVerified = true
		}
		if user.Name == "" {
			user.Name = profile.Name
		}
		if user.Image == "" {
			user.Image = profile.AvatarURL
		}

	case errors.Is(err, repository.ErrNotFound):
		user = &models.User{
			ID:            uuid.NewString(),
			Email:         email,
			Name:          profile.Name,
			Role:          models.RoleUser,
			EmailVerified: profile.EmailVerified,
			Image:         profile.AvatarURL,
		}
		if cerr := s.repo.CreateUser(ctx, user); cerr != nil {
			if errors.Is(cerr, repository.ErrDuplicate) {
				// Lost a race against a concurrent login with the same
				// address; use the row that won.
				user, cerr = s.repo.GetUserByEmail(ctx, email)
				if cerr != nil {
					return internalError("oauth_login", "Unable to log in", cerr)
				}
			} else {
				return internalError("oauth_login", "Unable to log in", cerr)
			}
		}

	default:
		return internalError("oauth_login", "Unable to log in", err)
	}

	session, err := s.session(user)
	if err != nil {
		return internalError("oauth_login", "Unable to log in", err)
	}
	return Success(http.StatusOK, "Logged in successfully", session)
}
