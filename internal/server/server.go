// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package server wires configuration, storage, services and the HTTP
// layer together and owns the process lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v3"

	"codeberg.org/oliverandrich/go-auth-api/internal/config"
	"codeberg.org/oliverandrich/go-auth-api/internal/database"
	"codeberg.org/oliverandrich/go-auth-api/internal/handlers"
	"codeberg.org/oliverandrich/go-auth-api/internal/i18n"
	"codeberg.org/oliverandrich/go-auth-api/internal/repository"
	"codeberg.org/oliverandrich/go-auth-api/internal/services/auth"
	"codeberg.org/oliverandrich/go-auth-api/internal/services/exchange"
	"codeberg.org/oliverandrich/go-auth-api/internal/services/mail"
	"codeberg.org/oliverandrich/go-auth-api/internal/services/oauth"
	"codeberg.org/oliverandrich/go-auth-api/internal/services/token"
)

// Run starts the server with the given CLI command.
func Run(ctx context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)
	setupLogger(cfg.Log.Level, cfg.Log.Format)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	slog.Info("starting server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"base_url", cfg.Server.BaseURL,
		"frontend_url", cfg.Server.FrontendURL,
	)

	// Database (migrations run inside Open)
	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("failed to close database", "error", closeErr)
		}
	}()

	// i18n
	if initErr := i18n.Init(); initErr != nil {
		return fmt.Errorf("failed to init i18n: %w", initErr)
	}

	repo := repository.New(db)

	// Tokens
	codec, err := token.NewCodec(cfg.JWT)
	if err != nil {
		return fmt.Errorf("failed to set up token codec: %w", err)
	}

	// Mail
	sender, err := mail.NewSMTPSender(&cfg.SMTP)
	if err != nil {
		return fmt.Errorf("failed to set up mail sender: %w", err)
	}
	outbox := mail.NewOutbox(sender, cfg.SMTP.Timeout)
	defer outbox.Close()
	mailer := mail.NewMailer(sender, cfg.Server.FrontendURL)

	// Exchange store
	store, err := newExchangeStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to set up exchange store: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Error("failed to close exchange store", "error", closeErr)
		}
	}()

	// OAuth
	providers := buildProviders(cfg)
	state := oauth.NewStateCookie(cfg.OAuth.StateSecret,
		strings.HasPrefix(cfg.Server.BaseURL, "https://"))

	flows := auth.NewService(repo, codec, mailer, outbox)

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	setupMiddleware(e, cfg)

	h := handlers.New(flows, codec, providers, state, store, cfg.Server.FrontendURL)
	h.Register(e)

	// Expired verification and reset tokens are only consumed lazily;
	// the sweeper keeps the tables from growing unbounded.
	sweeper := newTokenSweeper(repo, time.Hour)
	defer sweeper.Stop()

	return startWithGracefulShutdown(e, cfg)
}

// newExchangeStore builds the one-time code store the configuration
// asks for. Redis is the right choice as soon as more than one
// instance serves OAuth callbacks.
func newExchangeStore(cfg *config.Config) (exchange.Store, error) {
	switch cfg.Exchange.Backend {
	case "redis":
		opts, err := redis.ParseURL(cfg.Exchange.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		return exchange.NewRedisStore(redis.NewClient(opts), cfg.Exchange.TTL, cfg.Exchange.Grace), nil
	default:
		return exchange.NewMemoryStore(cfg.Exchange.TTL, cfg.Exchange.Grace, time.Minute), nil
	}
}

// buildProviders registers every OAuth provider that has credentials
// configured. Unconfigured providers answer 404 at the redirect route.
func buildProviders(cfg *config.Config) oauth.Registry {
	providers := oauth.Registry{}

	if cfg.OAuth.Google.ClientID != "" {
		redirectURL := cfg.Server.BaseURL + "/api/auth/oauth/google/callback"
		providers[oauth.ProviderGoogle] = oauth.NewGoogleProvider(cfg.OAuth.Google, redirectURL)
	}
	if cfg.OAuth.Github.ClientID != "" {
		redirectURL := cfg.Server.BaseURL + "/api/auth/oauth/github/callback"
		providers[oauth.ProviderGithub] = oauth.NewGithubProvider(cfg.OAuth.Github, redirectURL)
	}

	slog.Info("oauth providers configured", "count", len(providers))
	return providers
}

func startWithGracefulShutdown(e *echo.Echo, cfg *config.Config) error {
	errChan := make(chan error, 1)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		slog.Info("server running", "url", cfg.Server.BaseURL)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		slog.Info("shutting down server")
	case err := <-errChan:
		slog.Error("server error", "error", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}

	slog.Info("server stopped")
	return nil
}
