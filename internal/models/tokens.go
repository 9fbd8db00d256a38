// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// EmailVerificationToken is a single-use token row. Only the SHA-256
// hash of the token value is stored; the plaintext goes out by email.
type EmailVerificationToken struct { //nolint:govet // fieldalignment not critical for models
	ID        int64     `db:"id"`
	UserID    string    `db:"user_id"`
	TokenHash string    `db:"token_hash"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}

// PasswordResetToken is a single-use token row. At most one token per
// user is active; issuing a new one revokes all prior ones.
type PasswordResetToken struct { //nolint:govet // fieldalignment not critical for models
	ID        int64      `db:"id"`
	UserID    string     `db:"user_id"`
	TokenHash string     `db:"token_hash"`
	ExpiresAt time.Time  `db:"expires_at"`
	RevokedAt *time.Time `db:"revoked_at"`
	CreatedAt time.Time  `db:"created_at"`
}
