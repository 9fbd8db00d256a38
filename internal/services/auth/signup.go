// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"codeberg.org/oliverandrich/go-auth-api/internal/models"
	"codeberg.org/oliverandrich/go-auth-api/internal/repository"
	"codeberg.org/oliverandrich/go-auth-api/internal/services/password"
)

// Signup registers a new credentials account. The verification email is
// dispatched through the outbox; a mail failure never fails the signup.
func (s *Service) Signup(ctx context.Context, name, email, plaintext string) Result {
	email = normalizeEmail(email)
	if name == "" || email == "" || plaintext == "" {
		return Error(http.StatusBadRequest, "Name, email and password are required")
	}

	hash, err := password.Hash(plaintext)
	if err != nil {
		return internalError("signup", "Unable to create account", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: &hash,
		Role:         models.RoleUser,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return Error(http.StatusConflict, "An account with this email already exists")
		}
		return internalError("signup", "Unable to create account", err)
	}

	s.dispatchVerification(ctx, user)

	return Success(http.StatusOK,
		"Account created successfully! Please check your email to verify your account.",
		SignupData{User: summaryOf(user)})
}

// dispatchVerification mints a verification token and enqueues the
// email. Failures are logged only; the account already exists and the
// user can request verification again by signing up support flows.
func (s *Service) dispatchVerification(ctx context.Context, user *models.User) {
	plaintext, hash, err := newSingleUseToken()
	if err != nil {
		slog.Error("minting verification token", "user_id", user.ID, "error", err)
		return
	}

	expiresAt := time.Now().Add(VerificationTokenTTL)
	if err := s.repo.CreateEmailVerificationToken(ctx, user.ID, hash, expiresAt); err != nil {
		slog.Error("storing verification token", "user_id", user.ID, "error", err)
		return
	}

	msg, err := s.mailer.VerificationMessage(ctx, user.Email, user.Name, plaintext, expiresAt)
	if err != nil {
		slog.Error("rendering verification email", "user_id", user.ID, "error", err)
		return
	}
	s.outbox.Enqueue(msg)
}

// VerifyEmail consumes a verification token and marks the account
// verified. Tokens are single use; expired or replayed tokens fail.
func (s *Service) VerifyEmail(ctx context.Context, plaintext string) Result {
	if plaintext == "" {
		return Error(http.StatusBadRequest, "Verification token is required")
	}

	tok, err := s.repo.ConsumeEmailVerificationToken(ctx, HashToken(plaintext))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Error(http.StatusBadRequest, "Invalid or expired verification token")
		}
		return internalError("verify_email", "Unable to verify email", err)
	}

	if err := s.repo.SetUserEmailVerified(ctx, tok.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Account deleted between token issue and consume.
			return Error(http.StatusBadRequest, "Invalid or expired verification token")
		}
		return internalError("verify_email", "Unable to verify email", err)
	}

	return Success(http.StatusOK, "Email verified successfully", nil)
}
