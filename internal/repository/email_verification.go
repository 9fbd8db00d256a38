// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"codeberg.org/oliverandrich/go-auth-api/internal/models"
)

// CreateEmailVerificationToken creates a new email verification token.
func (r *Repository) CreateEmailVerificationToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO email_verification_tokens (user_id, token_hash, expires_at) VALUES (?, ?, ?)`,
		userID, tokenHash, expiresAt.UTC())
	return wrapError(err)
}

// ConsumeEmailVerificationToken atomically deletes a valid (non-expired)
// token and returns it. Concurrent consumers of the same token value see
// at most one success; the single DELETE is the linearization point.
func (r *Repository) ConsumeEmailVerificationToken(ctx context.Context, tokenHash string) (*models.EmailVerificationToken, error) {
	var token models.EmailVerificationToken
	err := r.db.GetContext(ctx, &token,
		`DELETE FROM email_verification_tokens
		 WHERE token_hash = ? AND expires_at > ?
		 RETURNING id, user_id, token_hash, expires_at, created_at`,
		tokenHash, time.Now().UTC())
	if err != nil {
		return nil, wrapError(err)
	}
	return &token, nil
}

// DeleteExpiredEmailVerificationTokens removes expired tokens.
func (r *Repository) DeleteExpiredEmailVerificationTokens(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM email_verification_tokens WHERE expires_at <= ?`, time.Now().UTC())
	return wrapError(err)
}
