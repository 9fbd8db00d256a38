// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"codeberg.org/oliverandrich/go-auth-api/internal/repository"
	"codeberg.org/oliverandrich/go-auth-api/internal/services/password"
)

const resetRequested = "If an account with that email exists, a password reset link has been sent."

// ForgotPassword starts a password reset. Unknown addresses get the
// same 200 as known ones so the endpoint does not reveal which emails
// are registered. OAuth-only accounts have no password to reset and get
// an explicit 400. The email is awaited: the user is actively waiting
// for it, so delivery failure must surface as an error.
func (s *Service) ForgotPassword(ctx context.Context, email string) Result {
	email = normalizeEmail(email)
	if email == "" {
		return Error(http.StatusBadRequest, "Email is required")
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Success(http.StatusOK, resetRequested, nil)
		}
		return internalError("forgot_password", "Unable to process password reset request", err)
	}

	if !user.HasPassword() {
		return Error(http.StatusBadRequest,
			"This account uses social login. Please sign in with your provider.")
	}

	// Invalidate outstanding tokens first so at most one reset link is
	// live per account.
	if err := s.repo.RevokeAllPasswordResetTokensByUser(ctx, user.ID); err != nil {
		return internalError("forgot_password", "Unable to process password reset request", err)
	}

	plaintext, hash, err := newSingleUseToken()
	if err != nil {
		return internalError("forgot_password", "Unable to process password reset request", err)
	}
	expiresAt := time.Now().Add(ResetTokenTTL)
	if err := s.repo.CreatePasswordResetToken(ctx, user.ID, hash, expiresAt); err != nil {
		return internalError("forgot_password", "Unable to process password reset request", err)
	}

	if err := s.mailer.SendPasswordReset(ctx, user.Email, user.Name, plaintext, expiresAt); err != nil {
		return internalError("forgot_password", "Unable to send password reset email", err)
	}

	return Success(http.StatusOK, resetRequested, nil)
}

// ResetPassword consumes a reset token and replaces the account
// password. The consume is atomic, so concurrent attempts with the same
// token succeed at most once.
func (s *Service) ResetPassword(ctx context.Context, tokenPlaintext, newPassword string) Result {
	if tokenPlaintext == "" || newPassword == "" {
		return Error(http.StatusBadRequest, "Token and new password are required")
	}

	tok, err := s.repo.ConsumePasswordResetToken(ctx, HashToken(tokenPlaintext))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Error(http.StatusBadRequest, "Invalid or expired reset token")
		}
		return internalError("reset_password", "Unable to reset password", err)
	}

	hash, err := password.Hash(newPassword)
	if err != nil {
		return internalError("reset_password", "Unable to reset password", err)
	}

	if err := s.repo.UpdateUserPassword(ctx, tok.UserID, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Error(http.StatusBadRequest, "Invalid or expired reset token")
		}
		return internalError("reset_password", "Unable to reset password", err)
	}

	return Success(http.StatusOK, "Password has been reset successfully", nil)
}
