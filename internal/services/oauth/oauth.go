// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package oauth abstracts provider-specific OAuth behavior behind a
// minimal interface. Implementations encapsulate protocol details
// (oauth2.Config, token exchange, profile endpoints) and expose only
// what the auth flows need.
package oauth

import (
	"context"
	"errors"
)

// Provider identifiers used for routing and storage.
const (
	ProviderGoogle = "google"
	ProviderGithub = "github"
)

var (
	// ErrInvalidCode covers invalid or already-used authorization codes
	// and failed token exchanges.
	ErrInvalidCode = errors.New("oauth: invalid authorization code")
	// ErrNoEmail is returned when the provider cannot produce an email
	// address for the account.
	ErrNoEmail = errors.New("oauth: provider returned no email")
	// ErrUnknownProvider is returned for an unconfigured provider name.
	ErrUnknownProvider = errors.New("oauth: unknown provider")
)

// Profile is the normalized user profile returned by a provider.
type Profile struct {
	ProviderUserID string
	Email          string
	EmailVerified  bool
	Name           string
	AvatarURL      string
}

// Provider is implemented once per OAuth provider.
type Provider interface {
	// ID returns the stable provider identifier, e.g. "google".
	ID() string

	// AuthURL builds the provider authorization URL for a state token.
	AuthURL(state string) string

	// ResolveProfile exchanges the authorization code, calls the
	// provider's profile endpoint(s) and returns a normalized profile.
	ResolveProfile(ctx context.Context, code string) (Profile, error)
}

// Registry holds the configured providers keyed by their ID.
type Registry map[string]Provider

// Get looks up a provider by name.
func (r Registry) Get(name string) (Provider, error) {
	p, ok := r[name]
	if !ok {
		return nil, ErrUnknownProvider
	}
	return p, nil
}
