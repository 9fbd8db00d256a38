// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// Role values carried in bearer tokens.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is an account row. PasswordHash is nil for accounts created
// through an OAuth provider; such accounts cannot log in with
// credentials or request a password reset.
type User struct { //nolint:govet // fieldalignment not critical for models
	ID            string    `db:"id" json:"id"`
	Email         string    `db:"email" json:"email"`
	Name          string    `db:"name" json:"name"`
	PasswordHash  *string   `db:"password_hash" json:"-"`
	Role          string    `db:"role" json:"role"`
	EmailVerified bool      `db:"email_verified" json:"email_verified"`
	Image         string    `db:"image" json:"image"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"-"`
}

// HasPassword reports whether the account can authenticate with credentials.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}
