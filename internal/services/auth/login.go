// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"context"
	"errors"
	"net/http"

	"codeberg.org/oliverandrich/go-auth-api/internal/repository"
	"codeberg.org/oliverandrich/go-auth-api/internal/services/password"
)

const invalidCredentials = "Invalid email or password"

// Login authenticates with email and password. Unknown email, missing
// password (OAuth-only account) and wrong password all answer with the
// same 401 and comparable timing, so the endpoint cannot be used to
// probe which addresses are registered.
func (s *Service) Login(ctx context.Context, email, plaintext string) Result {
	email = normalizeEmail(email)
	if email == "" || plaintext == "" {
		return Error(http.StatusBadRequest, "Email and password are required")
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			password.VerifyDummy(plaintext)
			return Error(http.StatusUnauthorized, invalidCredentials)
		}
		return internalError("login", "Unable to log in", err)
	}

	if !user.HasPassword() {
		password.VerifyDummy(plaintext)
		return Error(http.StatusUnauthorized, invalidCredentials)
	}
	if !password.Verify(plaintext, *user.PasswordHash) {
		return Error(http.StatusUnauthorized, invalidCredentials)
	}

	session, err := s.session(user)
	if err != nil {
		return internalError("login", "Unable to log in", err)
	}
	return Success(http.StatusOK, "Logged in successfully", session)
}

// Refresh exchanges a valid refresh token for a new access/refresh
// pair. The refresh token is rotated on every use.
func (s *Service) Refresh(ctx context.Context, refreshToken string) Result {
	if refreshToken == "" {
		return Error(http.StatusBadRequest, "Refresh token is required")
	}

	claims, err := s.codec.ParseRefresh(refreshToken)
	if err != nil {
		return Error(http.StatusUnauthorized, "Invalid or expired refresh token")
	}

	// Re-read the account so a deleted user cannot keep minting
	// sessions for the remainder of the refresh window.
	user, err := s.repo.GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Error(http.StatusUnauthorized, "Invalid or expired refresh token")
		}
		return internalError("refresh", "Unable to refresh session", err)
	}

	session, err := s.session(user)
	if err != nil {
		return internalError("refresh", "Unable to refresh session", err)
	}
	session.User = nil
	return Success(http.StatusOK, "Token refreshed successfully", session)
}

// Me returns the account behind an authenticated request.
func (s *Service) Me(ctx context.Context, userID string) Result {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Error(http.StatusNotFound, "User not found")
		}
		return internalError("me", "Unable to load user", err)
	}
	return Success(http.StatusOK, "User retrieved successfully", summaryOf(user))
}
