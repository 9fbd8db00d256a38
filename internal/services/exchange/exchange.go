// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package exchange implements the one-time exchange-token store that
// bridges the OAuth redirect to a single client-initiated retrieval.
// The token crosses the redirect as a query parameter; the payload never
// does. A consumed token stays replayable for a short grace window so a
// client firing the exchange request twice still gets its result.
package exchange

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

const (
	// DefaultTTL is generous so a slow provider redirect still lands
	// inside the window.
	DefaultTTL = 15 * time.Minute
	// DefaultGrace keeps consumed payloads replayable long enough to
	// absorb duplicate client effects, and no longer.
	DefaultGrace = 60 * time.Second

	tokenBytes = 32 // 256-bit tokens; collisions are not a practical concern
)

// Store maps unguessable one-time tokens to auth-result payloads.
//
// Exchange succeeds exactly once per token, except that calls within the
// grace window after the first success return the same payload again.
// A miss (unknown, expired, or past-grace token) is reported as ok=false,
// never as an error: absence is a normal outcome, not a fault.
type Store interface {
	Generate(ctx context.Context, payload json.RawMessage) (string, error)
	Exchange(ctx context.Context, token string) (json.RawMessage, bool)

	// Size returns the number of active (unconsumed, unexpired) entries.
	// Diagnostics only.
	Size(ctx context.Context) int

	Close() error
}

// NewToken mints a cryptographically random 256-bit hex token.
func NewToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate exchange token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
