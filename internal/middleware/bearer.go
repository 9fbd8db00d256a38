// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package middleware provides the bearer-token middleware for the JSON
// API routes.
package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"codeberg.org/oliverandrich/go-auth-api/internal/authctx"
	"codeberg.org/oliverandrich/go-auth-api/internal/services/auth"
	"codeberg.org/oliverandrich/go-auth-api/internal/services/token"
)

// bearerToken extracts the token from an Authorization header. A
// malformed scheme or empty value counts as no token at all.
func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	scheme, value, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(value)
}

// OptionalAuth attaches claims to the request when a valid access token
// is present and passes the request through otherwise. It never rejects.
func OptionalAuth(codec *token.Codec) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if raw := bearerToken(c); raw != "" {
				if claims, err := codec.ParseAccess(raw); err == nil {
					authctx.SetClaims(c, claims)
				}
			}
			return next(c)
		}
	}
}

// RequireAuth rejects requests without a valid access token before the
// handler runs. The 401 uses the same envelope as the flows.
func RequireAuth(codec *token.Codec) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearerToken(c)
			if raw == "" {
				return c.JSON(http.StatusUnauthorized,
					auth.Error(http.StatusUnauthorized, "Authentication required"))
			}
			claims, err := codec.ParseAccess(raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized,
					auth.Error(http.StatusUnauthorized, "Invalid or expired access token"))
			}
			authctx.SetClaims(c, claims)
			return next(c)
		}
	}
}
