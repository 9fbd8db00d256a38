// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import "time"

// Result is the uniform envelope every flow returns. Code duplicates
// the HTTP status for client convenience; handlers write the envelope
// verbatim with that status.
type Result struct {
	Code    int    `json:"code"`
	Status  string `json:"status"` // "success" or "error"
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Success builds a success-shaped result.
func Success(code int, message string, data any) Result {
	return Result{Code: code, Status: "success", Message: message, Data: data}
}

// Error builds an error-shaped result. Error results never carry data;
// internal detail belongs in operator logs, not in responses.
func Error(code int, message string) Result {
	return Result{Code: code, Status: "error", Message: message}
}

// UserSummary is the user representation flows hand back to clients.
// It never includes the password hash.
type UserSummary struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	Role          string    `json:"role"`
	Image         string    `json:"image"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
}

// SignupData is the success payload of the Signup flow.
type SignupData struct {
	User UserSummary `json:"user"`
}

// SessionData is the success payload of the Login, OAuthLogin and
// Refresh flows.
type SessionData struct {
	User         *UserSummary `json:"user,omitempty"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
}
