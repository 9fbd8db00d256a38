// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"codeberg.org/oliverandrich/go-auth-api/internal/models"
)

// CreatePasswordResetToken creates a new password reset token. Callers
// must revoke prior tokens first so at most one token per user is active.
func (r *Repository) CreatePasswordResetToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO password_reset_tokens (user_id, token_hash, expires_at) VALUES (?, ?, ?)`,
		userID, tokenHash, expiresAt.UTC())
	return wrapError(err)
}

// FindValidPasswordResetToken returns a non-expired, non-revoked token.
func (r *Repository) FindValidPasswordResetToken(ctx context.Context, tokenHash string) (*models.PasswordResetToken, error) {
	var token models.PasswordResetToken
	err := r.db.GetContext(ctx, &token,
		`SELECT * FROM password_reset_tokens
		 WHERE token_hash = ? AND expires_at > ? AND revoked_at IS NULL`,
		tokenHash, time.Now().UTC())
	if err != nil {
		return nil, wrapError(err)
	}
	return &token, nil
}

// ConsumePasswordResetToken atomically deletes a valid token and returns
// it. A second consume of the same value returns ErrNotFound.
func (r *Repository) ConsumePasswordResetToken(ctx context.Context, tokenHash string) (*models.PasswordResetToken, error) {
	var token models.PasswordResetToken
	err := r.db.GetContext(ctx, &token,
		`DELETE FROM password_reset_tokens
		 WHERE token_hash = ? AND expires_at > ? AND revoked_at IS NULL
		 RETURNING id, user_id, token_hash, expires_at, revoked_at, created_at`,
		tokenHash, time.Now().UTC())
	if err != nil {
		return nil, wrapError(err)
	}
	return &token, nil
}

// RevokeAllPasswordResetTokensByUser invalidates every outstanding reset
// token for a user. Runs before issuing a new token; a crash between the
// two calls leaves no token active, which is the safe failure mode.
func (r *Repository) RevokeAllPasswordResetTokensByUser(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE password_reset_tokens SET revoked_at = ? WHERE user_id = ? AND revoked_at IS NULL`,
		time.Now().UTC(), userID)
	return wrapError(err)
}

// DeleteExpiredPasswordResetTokens removes expired and revoked tokens.
func (r *Repository) DeleteExpiredPasswordResetTokens(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM password_reset_tokens WHERE expires_at <= ? OR revoked_at IS NOT NULL`,
		time.Now().UTC())
	return wrapError(err)
}
