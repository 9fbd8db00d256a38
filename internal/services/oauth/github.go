// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"codeberg.org/oliverandrich/go-auth-api/internal/config"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const githubAPIBase = "https://api.github.com"

type githubProvider struct {
	cfg     *oauth2.Config
	apiBase string
}

// NewGithubProvider configures the GitHub adapter.
func NewGithubProvider(creds config.OAuthProviderConfig, redirectURL string) Provider {
	return &githubProvider{
		cfg: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     endpoints.GitHub,
		},
		apiBase: githubAPIBase,
	}
}

func (p *githubProvider) ID() string {
	return ProviderGithub
}

func (p *githubProvider) AuthURL(state string) string {
	return p.cfg.AuthCodeURL(state)
}

func (p *githubProvider) ResolveProfile(ctx context.Context, code string) (Profile, error) {
	tok, err := p.cfg.Exchange(ctx, code)
	if err != nil {
		return Profile{}, fmt.Errorf("%w: %w", ErrInvalidCode, err)
	}

	client := p.cfg.Client(ctx, tok)

	var user struct {
		ID        int64  `json:"id"`
		Name      string `json:"name"`
		Login     string `json:"login"`
		Email     string `json:"email"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := p.getJSON(ctx, client, "/user", &user); err != nil {
		return Profile{}, fmt.Errorf("fetching github profile: %w", err)
	}

	email := user.Email
	verified := false

	// The profile email is often empty; the emails endpoint carries the
	// primary address and its verification state.
	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := p.getJSON(ctx, client, "/user/emails", &emails); err == nil {
		for _, e := range emails {
			if e.Primary {
				email = e.Email
				verified = e.Verified
				break
			}
		}
	}

	if email == "" {
		return Profile{}, ErrNoEmail
	}

	name := user.Name
	if name == "" {
		name = user.Login
	}

	return Profile{
		ProviderUserID: strconv.FormatInt(user.ID, 10),
		Email:          email,
		EmailVerified:  verified,
		Name:           name,
		AvatarURL:      user.AvatarURL,
	}, nil
}

func (p *githubProvider) getJSON(ctx context.Context, client *http.Client, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiBase+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("github API returned status %d for %s", resp.StatusCode, path)
	}

	return json.NewDecoder(resp.Body).Decode(v)
}
