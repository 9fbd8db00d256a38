// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/oliverandrich/go-auth-api/internal/config"
	"codeberg.org/oliverandrich/go-auth-api/internal/handlers"
	"codeberg.org/oliverandrich/go-auth-api/internal/i18n"
	"codeberg.org/oliverandrich/go-auth-api/internal/repository"
	"codeberg.org/oliverandrich/go-auth-api/internal/services/auth"
	"codeberg.org/oliverandrich/go-auth-api/internal/services/exchange"
	"codeberg.org/oliverandrich/go-auth-api/internal/services/mail"
	"codeberg.org/oliverandrich/go-auth-api/internal/services/oauth"
	"codeberg.org/oliverandrich/go-auth-api/internal/services/token"
	"codeberg.org/oliverandrich/go-auth-api/internal/testutil"
)

const frontendURL = "https://app.example.com"

type fakeSender struct {
	mu       sync.Mutex
	received []mail.Message
}

func (f *fakeSender) Send(_ context.Context, msg mail.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.received = append(f.received, msg)
	return nil
}

func (f *fakeSender) messages() []mail.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]mail.Message(nil), f.received...)
}

// stubProvider is a canned OAuth provider for handler tests.
type stubProvider struct {
	profile oauth.Profile
	err     error
}

func (p *stubProvider) ID() string { return "stub" }

func (p *stubProvider) AuthURL(state string) string {
	return "https://provider.example.com/authorize?state=" + url.QueryEscape(state)
}

func (p *stubProvider) ResolveProfile(_ context.Context, code string) (oauth.Profile, error) {
	if p.err != nil {
		return oauth.Profile{}, p.err
	}
	if code != "valid-grant" {
		return oauth.Profile{}, oauth.ErrInvalidCode
	}
	return p.profile, nil
}

type fixture struct {
	e        *echo.Echo
	repo     *repository.Repository
	sender   *fakeSender
	provider *stubProvider
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	require.NoError(t, i18n.Init())

	_, repo := testutil.NewTestDB(t)
	codec, err := token.NewCodec(config.JWTConfig{
		AccessSecret:  "test-access-secret",
		RefreshSecret: "test-refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	})
	require.NoError(t, err)

	sender := &fakeSender{}
	outbox := mail.NewOutbox(sender, time.Second)
	t.Cleanup(outbox.Close)

	store := exchange.NewMemoryStore(0, 0, 0)
	t.Cleanup(func() { _ = store.Close() })

	provider := &stubProvider{profile: oauth.Profile{
		ProviderUserID: "stub-1",
		Email:          "carol@example.com",
		EmailVerified:  true,
		Name:           "Carol",
	}}

	flows := auth.NewService(repo, codec, mail.NewMailer(sender, frontendURL), outbox)
	h := handlers.New(flows, codec, oauth.Registry{"stub": provider},
		oauth.NewStateCookie("test-state-secret", false), store, frontendURL)

	e := echo.New()
	h.Register(e)

	return &fixture{e: e, repo: repo, sender: sender, provider: provider}
}

// do runs a request through the full router and decodes the envelope.
func (f *fixture) do(t *testing.T, method, path, body string, headers map[string]string) (int, auth.Result) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)

	var res auth.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res), "body: %s", rec.Body.String())
	return rec.Code, res
}

func (f *fixture) waitForMessages(t *testing.T, n int) []mail.Message {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(f.sender.messages()) >= n
	}, 2*time.Second, 10*time.Millisecond)
	return f.sender.messages()
}

func extractToken(t *testing.T, html, param string) string {
	t.Helper()
	idx := strings.Index(html, param+"=")
	require.NotEqual(t, -1, idx)
	rest := html[idx+len(param)+1:]
	if end := strings.IndexAny(rest, `"&`); end != -1 {
		rest = rest[:end]
	}
	return rest
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	status, res := f.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "success", res.Status)
}

// TestAccountLifecycle drives the whole credentials journey through the
// HTTP surface: signup, verify, login, me, refresh, forgot, reset.
func TestAccountLifecycle(t *testing.T) {
	f := newFixture(t)

	// Signup.
	status, res := f.do(t, http.MethodPost, "/api/auth/signup",
		`{"name":"Alice","email":"alice@example.com","password":"s3cret-pass"}`, nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "success", res.Status)
	assert.Equal(t, status, res.Code, "envelope code mirrors the HTTP status")

	// The response must not leak the password hash.
	raw, err := json.Marshal(res.Data)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "password")

	// Verify email using the token from the outbox.
	msgs := f.waitForMessages(t, 1)
	verifyToken := extractToken(t, msgs[0].HTML, "token")
	status, res = f.do(t, http.MethodGet, "/api/auth/verify-email?token="+verifyToken, "", nil)
	require.Equal(t, http.StatusOK, status)

	// Login.
	status, res = f.do(t, http.MethodPost, "/api/auth/login",
		`{"email":"alice@example.com","password":"s3cret-pass"}`, nil)
	require.Equal(t, http.StatusOK, status)
	var session struct {
		User         map[string]any `json:"user"`
		AccessToken  string         `json:"access_token"`
		RefreshToken string         `json:"refresh_token"`
	}
	raw, err = json.Marshal(res.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &session))
	require.NotEmpty(t, session.AccessToken)
	assert.Equal(t, true, session.User["email_verified"])

	// Me with the access token.
	status, res = f.do(t, http.MethodGet, "/api/auth/me", "",
		map[string]string{echo.HeaderAuthorization: "Bearer " + session.AccessToken})
	require.Equal(t, http.StatusOK, status)

	// Me without a token is rejected by the middleware.
	status, _ = f.do(t, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	// Refresh rotates the pair.
	status, res = f.do(t, http.MethodPost, "/api/auth/refresh",
		fmt.Sprintf(`{"refresh_token":%q}`, session.RefreshToken), nil)
	require.Equal(t, http.StatusOK, status)

	// Forgot + reset.
	status, _ = f.do(t, http.MethodPost, "/api/auth/forgot-password",
		`{"email":"alice@example.com"}`, nil)
	require.Equal(t, http.StatusOK, status)
	msgs = f.waitForMessages(t, 2)
	resetToken := extractToken(t, msgs[1].HTML, "token")

	status, _ = f.do(t, http.MethodPost, "/api/auth/reset-password",
		fmt.Sprintf(`{"token":%q,"password":"brand-new-pass"}`, resetToken), nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = f.do(t, http.MethodPost, "/api/auth/login",
		`{"email":"alice@example.com","password":"brand-new-pass"}`, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestSignupRejectsMalformedJSON(t *testing.T) {
	f := newFixture(t)
	status, res := f.do(t, http.MethodPost, "/api/auth/signup", `{"name":`, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "error", res.Status)
}

func TestOAuthRedirect(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/oauth/stub", nil)
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "provider.example.com", location.Host)
	assert.NotEmpty(t, location.Query().Get("state"))

	var found bool
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == "oauth_state" {
			found = true
			assert.True(t, cookie.HttpOnly)
		}
	}
	assert.True(t, found, "state cookie should be set")
}

func TestOAuthRedirectUnknownProvider(t *testing.T) {
	f := newFixture(t)
	status, res := f.do(t, http.MethodGet, "/api/auth/oauth/myspace", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "error", res.Status)
}

// startOAuth performs the redirect leg and returns the issued state and
// the cookie the browser would carry to the callback.
func startOAuth(t *testing.T, f *fixture) (string, *http.Cookie) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/oauth/stub", nil)
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusFound, rec.Code)

	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	state := location.Query().Get("state")
	require.NotEmpty(t, state)

	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == "oauth_state" {
			return state, cookie
		}
	}
	t.Fatal("state cookie not set")
	return "", nil
}

func TestOAuthCallbackAndExchange(t *testing.T) {
	f := newFixture(t)
	state, cookie := startOAuth(t, f)

	req := httptest.NewRequest(http.MethodGet,
		"/api/auth/oauth/stub/callback?state="+url.QueryEscape(state)+"&code=valid-grant", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/oauth-callback", location.Path)
	exchangeCode := location.Query().Get("code")
	require.NotEmpty(t, exchangeCode)
	assert.Empty(t, location.Query().Get("status"))

	// The account was provisioned from the provider profile.
	user, err := f.repo.GetUserByEmail(context.Background(), "carol@example.com")
	require.NoError(t, err)
	assert.True(t, user.EmailVerified)
	assert.False(t, user.HasPassword())

	// Exchange the one-time code for the session.
	status, res := f.do(t, http.MethodPost, "/api/auth/oauth/exchange",
		fmt.Sprintf(`{"code":%q}`, exchangeCode), nil)
	require.Equal(t, http.StatusOK, status)

	raw, err := json.Marshal(res.Data)
	require.NoError(t, err)
	var session struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	require.NoError(t, json.Unmarshal(raw, &session))
	assert.NotEmpty(t, session.AccessToken)
	assert.NotEmpty(t, session.RefreshToken)

	// A duplicate exchange inside the grace window still succeeds.
	status, _ = f.do(t, http.MethodPost, "/api/auth/oauth/exchange",
		fmt.Sprintf(`{"code":%q}`, exchangeCode), nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestOAuthCallbackStateMismatch(t *testing.T) {
	f := newFixture(t)
	_, cookie := startOAuth(t, f)

	req := httptest.NewRequest(http.MethodGet,
		"/api/auth/oauth/stub/callback?state=forged&code=valid-grant", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "error", location.Query().Get("status"))
	assert.Equal(t, "401", location.Query().Get("code"))
}

func TestOAuthCallbackProviderDenied(t *testing.T) {
	f := newFixture(t)
	state, cookie := startOAuth(t, f)

	req := httptest.NewRequest(http.MethodGet,
		"/api/auth/oauth/stub/callback?state="+url.QueryEscape(state)+"&error=access_denied&error_description=User+refused", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "error", location.Query().Get("status"))
	assert.Equal(t, "User refused", location.Query().Get("message"))
}

func TestOAuthExchangeInvalidCode(t *testing.T) {
	f := newFixture(t)

	status, res := f.do(t, http.MethodPost, "/api/auth/oauth/exchange", `{"code":"never-issued"}`, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "error", res.Status)

	status, _ = f.do(t, http.MethodPost, "/api/auth/oauth/exchange", `{"code":""}`, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}
