// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package authctx stores the authenticated identity on the request
// context so handlers never parse bearer tokens themselves.
package authctx

import (
	"github.com/labstack/echo/v4"

	"codeberg.org/oliverandrich/go-auth-api/internal/services/token"
)

const claimsKey = "authctx.claims"

// SetClaims attaches verified claims to the request.
func SetClaims(c echo.Context, claims *token.Claims) {
	c.Set(claimsKey, claims)
}

// Claims returns the verified claims of the request, if any.
func Claims(c echo.Context) (*token.Claims, bool) {
	claims, ok := c.Get(claimsKey).(*token.Claims)
	return claims, ok && claims != nil
}

// UserID returns the authenticated user ID, or "" for anonymous
// requests.
func UserID(c echo.Context) string {
	if claims, ok := Claims(c); ok {
		return claims.Subject
	}
	return ""
}

// Role returns the authenticated role, or "" for anonymous requests.
func Role(c echo.Context) string {
	if claims, ok := Claims(c); ok {
		return claims.Role
	}
	return ""
}
