// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"codeberg.org/oliverandrich/go-auth-api/internal/repository"
)

// tokenSweeper periodically removes expired verification and reset
// tokens. Expiry is enforced at consume time; this is table hygiene.
type tokenSweeper struct {
	repo   *repository.Repository
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

func newTokenSweeper(repo *repository.Repository, interval time.Duration) *tokenSweeper {
	s := &tokenSweeper{
		repo:   repo,
		ticker: time.NewTicker(interval),
		done:   make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *tokenSweeper) run() {
	for {
		select {
		case <-s.ticker.C:
			s.sweep()
		case <-s.done:
			return
		}
	}
}

func (s *tokenSweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.repo.DeleteExpiredEmailVerificationTokens(ctx); err != nil {
		slog.Error("sweeping verification tokens", "error", err)
	}
	if err := s.repo.DeleteExpiredPasswordResetTokens(ctx); err != nil {
		slog.Error("sweeping reset tokens", "error", err)
	}
}

// Stop terminates the sweeper. Safe to call more than once.
func (s *tokenSweeper) Stop() {
	s.once.Do(func() {
		s.ticker.Stop()
		close(s.done)
	})
}
