// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package handlers contains the HTTP layer of the API. Handlers bind
// the request, call a flow and write the returned envelope; all
// decisions live in the services.
package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"codeberg.org/oliverandrich/go-auth-api/internal/middleware"
	"codeberg.org/oliverandrich/go-auth-api/internal/services/auth"
	"codeberg.org/oliverandrich/go-auth-api/internal/services/exchange"
	"codeberg.org/oliverandrich/go-auth-api/internal/services/oauth"
	"codeberg.org/oliverandrich/go-auth-api/internal/services/token"
)

// Handler holds the dependencies of the HTTP layer.
type Handler struct {
	flows       *auth.Service
	codec       *token.Codec
	providers   oauth.Registry
	state       *oauth.StateCookie
	exchange    exchange.Store
	frontendURL string
}

// New creates the HTTP layer.
func New(flows *auth.Service, codec *token.Codec, providers oauth.Registry,
	state *oauth.StateCookie, store exchange.Store, frontendURL string,
) *Handler {
	return &Handler{
		flows:       flows,
		codec:       codec,
		providers:   providers,
		state:       state,
		exchange:    store,
		frontendURL: frontendURL,
	}
}

// Register mounts all routes on the echo instance.
func (h *Handler) Register(e *echo.Echo) {
	e.GET("/health", h.Health)

	// Optional auth on the whole group: flows like signup and login
	// tolerate an (even stale) bearer token, and requests that carry a
	// valid one get their identity attached. RequireAuth below still
	// guards the protected routes.
	api := e.Group("/api/auth", middleware.OptionalAuth(h.codec))
	api.POST("/signup", h.Signup)
	api.GET("/verify-email", h.VerifyEmail)
	api.POST("/login", h.Login)
	api.POST("/refresh", h.Refresh)
	api.POST("/forgot-password", h.ForgotPassword)
	api.POST("/reset-password", h.ResetPassword)
	api.GET("/me", h.Me, middleware.RequireAuth(h.codec))

	api.GET("/oauth/:provider", h.OAuthRedirect)
	api.GET("/oauth/:provider/callback", h.OAuthCallback)
	api.POST("/oauth/exchange", h.OAuthExchange)
}

// Health reports process liveness.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, auth.Success(http.StatusOK, "OK", nil))
}

// respond writes a flow result with its embedded status code.
func respond(c echo.Context, res auth.Result) error {
	return c.JSON(res.Code, res)
}

// badRequest is the envelope for unreadable request bodies.
func badRequest(c echo.Context) error {
	return respond(c, auth.Error(http.StatusBadRequest, "Invalid request body"))
}
