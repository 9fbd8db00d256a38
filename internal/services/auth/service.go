// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package auth implements the account flows behind the JSON API:
// signup, email verification, credential and OAuth login, token
// refresh and password reset. Every flow returns a Result envelope;
// unexpected failures are logged and surfaced as a generic 500 so
// internal details never leak to clients.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"codeberg.org/oliverandrich/go-auth-api/internal/models"
	"codeberg.org/oliverandrich/go-auth-api/internal/repository"
	"codeberg.org/oliverandrich/go-auth-api/internal/services/mail"
	"codeberg.org/oliverandrich/go-auth-api/internal/services/token"
)

// Token lifetimes for the persistent single-use tokens.
const (
	VerificationTokenTTL = 24 * time.Hour
	ResetTokenTTL        = time.Hour
)

// Service wires the repositories and side-effect dependencies the
// flows need.
type Service struct {
	repo   *repository.Repository
	codec  *token.Codec
	mailer *mail.Mailer
	outbox *mail.Outbox
}

// NewService creates the auth service.
func NewService(repo *repository.Repository, codec *token.Codec, mailer *mail.Mailer, outbox *mail.Outbox) *Service {
	return &Service{repo: repo, codec: codec, mailer: mailer, outbox: outbox}
}

// normalizeEmail canonicalizes an address for lookup and storage.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// newSingleUseToken returns a fresh random token and its storage hash.
// Only the hash is persisted; the plaintext goes into the email link.
func newSingleUseToken() (plaintext, hash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generating token: %w", err)
	}
	plaintext = hex.EncodeToString(buf)
	return plaintext, HashToken(plaintext), nil
}

// HashToken derives the storage form of a single-use token.
func HashToken(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

func summaryOf(user *models.User) UserSummary {
	return UserSummary{
		ID:            user.ID,
		Email:         user.Email,
		Name:          user.Name,
		Role:          user.Role,
		Image:         user.Image,
		EmailVerified: user.EmailVerified,
		CreatedAt:     user.CreatedAt,
	}
}

// session issues an access/refresh token pair for a user.
func (s *Service) session(user *models.User) (SessionData, error) {
	access, err := s.codec.SignAccess(user.ID, user.Role)
	if err != nil {
		return SessionData{}, fmt.Errorf("signing access token: %w", err)
	}
	refresh, err := s.codec.SignRefresh(user.ID, user.Role)
	if err != nil {
		return SessionData{}, fmt.Errorf("signing refresh token: %w", err)
	}
	summary := summaryOf(user)
	return SessionData{User: &summary, AccessToken: access, RefreshToken: refresh}, nil
}

// internalError logs the underlying cause and returns the generic
// envelope clients see for unexpected failures.
func internalError(flow, message string, err error) Result {
	slog.Error("auth flow failed", "flow", flow, "error", err)
	return Error(http.StatusInternalServerError, message)
}
