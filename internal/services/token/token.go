// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package token signs and verifies the self-contained bearer tokens
// issued by the auth flows. Access and refresh tokens use independent
// signing keys and audiences, so a refresh token never verifies as an
// access token and vice versa.
package token

import (
	"errors"
	"time"

	"codeberg.org/oliverandrich/go-auth-api/internal/config"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingSecret = errors.New("token: missing signing secret")
	ErrSharedSecret  = errors.New("token: access and refresh secrets must differ")
	ErrInvalidToken  = errors.New("token: invalid token")
)

const (
	audienceAccess  = "access"
	audienceRefresh = "refresh"

	// DefaultAccessTTL keeps access tokens short-lived.
	DefaultAccessTTL = 15 * time.Minute
	// DefaultRefreshTTL bounds how long a session can be silently renewed.
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// Claims carried by both token kinds. Subject holds the user id.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Codec signs and parses access and refresh tokens.
type Codec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewCodec creates a codec from configuration, applying default TTLs
// for unset values.
func NewCodec(cfg config.JWTConfig) (*Codec, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, ErrMissingSecret
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, ErrSharedSecret
	}

	accessTTL := cfg.AccessTTL
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	refreshTTL := cfg.RefreshTTL
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}

	return &Codec{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}, nil
}

// SignAccess mints a short-lived access token for the subject.
func (c *Codec) SignAccess(userID, role string) (string, error) {
	return c.sign(userID, role, audienceAccess, c.accessSecret, c.accessTTL)
}

// SignRefresh mints a long-lived refresh token for the subject.
func (c *Codec) SignRefresh(userID, role string) (string, error) {
	return c.sign(userID, role, audienceRefresh, c.refreshSecret, c.refreshTTL)
}

// ParseAccess verifies an access token. Any error means unauthenticated;
// callers must not distinguish malformed, expired and tampered input.
func (c *Codec) ParseAccess(tokenString string) (*Claims, error) {
	return c.parse(tokenString, audienceAccess, c.accessSecret)
}

// ParseRefresh verifies a refresh token.
func (c *Codec) ParseRefresh(tokenString string) (*Claims, error) {
	return c.parse(tokenString, audienceRefresh, c.refreshSecret)
}

// AccessTTL returns the configured access token lifetime.
func (c *Codec) AccessTTL() time.Duration {
	return c.accessTTL
}

func (c *Codec) sign(userID, role, audience string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (c *Codec) parse(tokenString, audience string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	return claims, nil
}
