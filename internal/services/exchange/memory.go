// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package exchange

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type activeEntry struct {
	payload   json.RawMessage
	expiresAt time.Time
}

type consumedEntry struct {
	payload    json.RawMessage
	consumedAt time.Time
}

// MemoryStore is the single-process Store implementation. All pending
// exchanges are lost on restart; deployments with more than one instance
// must use the Redis store so the callback and the exchange request can
// land on different processes.
type MemoryStore struct {
	mu       sync.Mutex
	active   map[string]activeEntry
	consumed map[string]consumedEntry
	ttl      time.Duration
	grace    time.Duration
	ticker   *time.Ticker
	done     chan struct{}
	once     sync.Once
}

// NewMemoryStore creates an in-memory store. Non-positive durations fall
// back to the package defaults. The cleanup ticker only bounds memory;
// expiry on access is what guarantees correctness.
func NewMemoryStore(ttl, grace, cleanupInterval time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if grace <= 0 {
		grace = DefaultGrace
	}

	store := &MemoryStore{
		active:   make(map[string]activeEntry),
		consumed: make(map[string]consumedEntry),
		ttl:      ttl,
		grace:    grace,
		done:     make(chan struct{}),
	}

	if cleanupInterval > 0 {
		store.ticker = time.NewTicker(cleanupInterval)
		go store.cleanupLoop()
	}

	return store
}

// Generate stores the payload under a fresh token and returns the token.
func (s *MemoryStore) Generate(_ context.Context, payload json.RawMessage) (string, error) {
	token, err := NewToken()
	if err != nil {
		return "", err
	}

	entry := activeEntry{
		payload:   append(json.RawMessage(nil), payload...),
		expiresAt: time.Now().Add(s.ttl),
	}

	s.mu.Lock()
	s.active[token] = entry
	s.mu.Unlock()

	return token, nil
}

// Exchange consumes a token. The whole lookup-and-move runs under the
// store mutex, so two concurrent exchanges of the same fresh token
// serialize: one takes the active path, the other observes the consumed
// copy within the grace window.
func (s *MemoryStore) Exchange(_ context.Context, token string) (json.RawMessage, bool) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.active[token]; ok {
		delete(s.active, token)
		if now.After(entry.expiresAt) {
			return nil, false
		}
		s.consumed[token] = consumedEntry{payload: entry.payload, consumedAt: now}
		return entry.payload, true
	}

	if entry, ok := s.consumed[token]; ok {
		// Replay does not extend the grace countdown.
		if now.Sub(entry.consumedAt) <= s.grace {
			return entry.payload, true
		}
		delete(s.consumed, token)
	}

	return nil, false
}

// Size returns the number of unexpired active entries.
func (s *MemoryStore) Size(_ context.Context) int {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, entry := range s.active {
		if now.Before(entry.expiresAt) {
			count++
		}
	}
	return count
}

// Close stops the cleanup ticker. Safe to call more than once.
func (s *MemoryStore) Close() error {
	s.once.Do(func() {
		if s.ticker != nil {
			s.ticker.Stop()
		}
		close(s.done)
	})
	return nil
}

func (s *MemoryStore) cleanupLoop() {
	for {
		select {
		case <-s.ticker.C:
			s.cleanup()
		case <-s.done:
			return
		}
	}
}

// cleanup sweeps by token value under the same mutex as Exchange, so it
// can never race a concurrent consume into deleting a fresh entry.
func (s *MemoryStore) cleanup() {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for token, entry := range s.active {
		if now.After(entry.expiresAt) {
			delete(s.active, token)
		}
	}
	for token, entry := range s.consumed {
		if now.Sub(entry.consumedAt) > s.grace {
			delete(s.consumed, token)
		}
	}
}
