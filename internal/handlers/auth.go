// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"github.com/labstack/echo/v4"

	"codeberg.org/oliverandrich/go-auth-api/internal/authctx"
)

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup handles POST /api/auth/signup.
func (h *Handler) Signup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}
	return respond(c, h.flows.Signup(c.Request().Context(), req.Name, req.Email, req.Password))
}

// VerifyEmail handles GET /api/auth/verify-email?token=...
func (h *Handler) VerifyEmail(c echo.Context) error {
	return respond(c, h.flows.VerifyEmail(c.Request().Context(), c.QueryParam("token")))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}
	return respond(c, h.flows.Login(c.Request().Context(), req.Email, req.Password))
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh handles POST /api/auth/refresh.
func (h *Handler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}
	return respond(c, h.flows.Refresh(c.Request().Context(), req.RefreshToken))
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPassword handles POST /api/auth/forgot-password.
func (h *Handler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}
	return respond(c, h.flows.ForgotPassword(c.Request().Context(), req.Email))
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// ResetPassword handles POST /api/auth/reset-password.
func (h *Handler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}
	return respond(c, h.flows.ResetPassword(c.Request().Context(), req.Token, req.Password))
}

// Me handles GET /api/auth/me. RequireAuth guarantees an identity here.
func (h *Handler) Me(c echo.Context) error {
	return respond(c, h.flows.Me(c.Request().Context(), authctx.UserID(c)))
}
