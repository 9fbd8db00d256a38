// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"codeberg.org/oliverandrich/go-auth-api/internal/services/auth"
	"codeberg.org/oliverandrich/go-auth-api/internal/services/oauth"
)

// OAuthRedirect handles GET /api/auth/oauth/:provider. It issues the
// state cookie and sends the browser to the provider's consent page.
func (h *Handler) OAuthRedirect(c echo.Context) error {
	provider, err := h.providers.Get(c.Param("provider"))
	if err != nil {
		return respond(c, auth.Error(http.StatusNotFound, "Unknown OAuth provider"))
	}

	state, err := h.state.Issue(c.Response())
	if err != nil {
		slog.Error("issuing oauth state", "provider", provider.ID(), "error", err)
		return respond(c, auth.Error(http.StatusInternalServerError, "Unable to start OAuth flow"))
	}

	return c.Redirect(http.StatusFound, provider.AuthURL(state))
}

// OAuthCallback handles GET /api/auth/oauth/:provider/callback. The
// browser lands here from the provider; outcomes are always delivered
// as a redirect to the frontend. On success the session payload is
// parked in the exchange store and only its one-time code travels in
// the URL, so tokens never show up in browser history or server logs.
func (h *Handler) OAuthCallback(c echo.Context) error {
	provider, err := h.providers.Get(c.Param("provider"))
	if err != nil {
		return h.redirectError(c, http.StatusNotFound, "Unknown OAuth provider")
	}

	if err := h.state.Verify(c.Response(), c.Request(), c.QueryParam("state")); err != nil {
		return h.redirectError(c, http.StatusUnauthorized, "OAuth state validation failed")
	}

	code := c.QueryParam("code")
	if code == "" {
		msg := c.QueryParam("error_description")
		if msg == "" {
			msg = "The provider denied the authorization request"
		}
		return h.redirectError(c, http.StatusUnauthorized, msg)
	}

	profile, err := provider.ResolveProfile(c.Request().Context(), code)
	if err != nil {
		switch {
		case errors.Is(err, oauth.ErrInvalidCode):
			return h.redirectError(c, http.StatusUnauthorized, "Invalid authorization code")
		case errors.Is(err, oauth.ErrNoEmail):
			return h.redirectError(c, http.StatusBadRequest, "The provider did not supply an email address")
		default:
			slog.Error("resolving oauth profile", "provider", provider.ID(), "error", err)
			return h.redirectError(c, http.StatusInternalServerError, "Unable to complete OAuth login")
		}
	}

	res := h.flows.OAuthLogin(c.Request().Context(), profile)
	if res.Status != "success" {
		return h.redirectError(c, res.Code, res.Message)
	}

	payload, err := json.Marshal(res.Data)
	if err != nil {
		slog.Error("encoding oauth session payload", "provider", provider.ID(), "error", err)
		return h.redirectError(c, http.StatusInternalServerError, "Unable to complete OAuth login")
	}

	exchangeCode, err := h.exchange.Generate(c.Request().Context(), payload)
	if err != nil {
		slog.Error("storing oauth session payload", "provider", provider.ID(), "error", err)
		return h.redirectError(c, http.StatusInternalServerError, "Unable to complete OAuth login")
	}

	return c.Redirect(http.StatusFound,
		fmt.Sprintf("%s/oauth-callback?code=%s", h.frontendURL, url.QueryEscape(exchangeCode)))
}

func (h *Handler) redirectError(c echo.Context, code int, message string) error {
	target := fmt.Sprintf("%s/oauth-callback?status=error&code=%d&message=%s",
		h.frontendURL, code, url.QueryEscape(message))
	return c.Redirect(http.StatusFound, target)
}

type exchangeRequest struct {
	Code string `json:"code"`
}

// OAuthExchange handles POST /api/auth/oauth/exchange. Within the grace
// window a repeated exchange of the same code returns the same payload,
// which keeps double-mounting frontends from losing the session.
func (h *Handler) OAuthExchange(c echo.Context) error {
	var req exchangeRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}
	if req.Code == "" {
		return respond(c, auth.Error(http.StatusBadRequest, "Exchange code is required"))
	}

	payload, ok := h.exchange.Exchange(c.Request().Context(), req.Code)
	if !ok {
		return respond(c, auth.Error(http.StatusNotFound, "Invalid or expired exchange code"))
	}

	return respond(c, auth.Success(http.StatusOK, "Logged in successfully", json.RawMessage(payload)))
}
