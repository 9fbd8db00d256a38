// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package oauth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
)

const (
	stateCookieName = "oauth_state"
	stateTTL        = 10 * time.Minute
)

// ErrStateMismatch is returned when the callback state does not match
// the value issued at redirect time.
var ErrStateMismatch = errors.New("oauth: state mismatch")

// StateCookie round-trips the CSRF state of an authorization redirect
// through a signed cookie, so the callback can verify the flow started
// here without any server-side storage.
type StateCookie struct {
	sc     *securecookie.SecureCookie
	secure bool
}

// NewStateCookie creates a state cookie signer. Secure should be true
// whenever the API is served over HTTPS.
func NewStateCookie(secret string, secure bool) *StateCookie {
	return &StateCookie{
		sc:     securecookie.New([]byte(secret), nil),
		secure: secure,
	}
}

// Issue generates a fresh state value and sets the signed cookie.
func (s *StateCookie) Issue(w http.ResponseWriter) (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating oauth state: %w", err)
	}
	state := hex.EncodeToString(buf)

	encoded, err := s.sc.Encode(stateCookieName, state)
	if err != nil {
		return "", fmt.Errorf("encoding oauth state cookie: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(stateTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})

	return state, nil
}

// Verify checks the callback state against the cookie and clears it.
func (s *StateCookie) Verify(w http.ResponseWriter, r *http.Request, state string) error {
	defer s.clear(w)

	cookie, err := r.Cookie(stateCookieName)
	if err != nil {
		return ErrStateMismatch
	}

	var expected string
	if err := s.sc.Decode(stateCookieName, cookie.Value, &expected); err != nil {
		return ErrStateMismatch
	}

	if state == "" || state != expected {
		return ErrStateMismatch
	}

	return nil
}

func (s *StateCookie) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
