// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	altsrc "github.com/urfave/cli-altsrc/v3"
	"github.com/urfave/cli-altsrc/v3/toml"
	"github.com/urfave/cli/v3"

	"codeberg.org/oliverandrich/go-auth-api/internal/server"
	"codeberg.org/oliverandrich/go-auth-api/internal/services/exchange"
)

// Version information (set via ldflags during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// sources creates a value source chain combining env vars and TOML config
func sources(envKey, tomlKey string, tomlSrc altsrc.Sourcer) cli.ValueSourceChain {
	chain := cli.EnvVars(envKey)
	chain.Chain = append(chain.Chain, toml.TOML(tomlKey, tomlSrc))
	return chain
}

func main() {
	var configFile string

	tomlSrc := altsrc.NewStringPtrSourcer(&configFile)

	cmd := &cli.Command{
		Name:    "server",
		Usage:   "Authentication API backing a single-page frontend",
		Version: fmt.Sprintf("%s (built %s)", Version, BuildTime),
		Flags: []cli.Flag{
			// Config file
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Value:       "config.toml",
				Usage:       "Path to configuration file",
				Destination: &configFile,
				Sources:     cli.EnvVars("CONFIG"),
			},

			// Server settings
			&cli.StringFlag{
				Name:    "host",
				Value:   "localhost",
				Usage:   "Server host",
				Sources: sources("HOST", "server.host", tomlSrc),
			},
			&cli.IntFlag{
				Name:    "port",
				Value:   8080,
				Usage:   "Server port",
				Sources: sources("PORT", "server.port", tomlSrc),
			},
			&cli.StringFlag{
				Name:    "base-url",
				Usage:   "Public URL this API is reachable at",
				Sources: sources("BASE_URL", "server.base_url", tomlSrc),
			},
			&cli.StringFlag{
				Name:    "frontend-url",
				Usage:   "Origin of the frontend (CORS, email links, OAuth redirects)",
				Sources: sources("FRONTEND_URL", "server.frontend_url", tomlSrc),
			},
			&cli.IntFlag{
				Name:    "max-body-size",
				Value:   1,
				Usage:   "Maximum request body size in MB",
				Sources: sources("MAX_BODY_SIZE", "server.max_body_size", tomlSrc),
			},

			// Logging
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level: debug, info, warn, error",
				Sources: sources("LOG_LEVEL", "log.level", tomlSrc),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Value:   "text",
				Usage:   "Log format: text, json",
				Sources: sources("LOG_FORMAT", "log.format", tomlSrc),
			},

			// Database
			&cli.StringFlag{
				Name:    "database-dsn",
				Value:   "./data/auth.db",
				Usage:   "SQLite database path",
				Sources: sources("DATABASE_DSN", "database.dsn", tomlSrc),
			},

			// JWT
			&cli.StringFlag{
				Name:    "jwt-access-secret",
				Usage:   "Signing secret for access tokens",
				Sources: sources("JWT_ACCESS_SECRET", "jwt.access_secret", tomlSrc),
			},
			&cli.StringFlag{
				Name:    "jwt-refresh-secret",
				Usage:   "Signing secret for refresh tokens",
				Sources: sources("JWT_REFRESH_SECRET", "jwt.refresh_secret", tomlSrc),
			},
			&cli.DurationFlag{
				Name:    "jwt-access-ttl",
				Value:   15 * time.Minute,
				Usage:   "Access token lifetime",
				Sources: sources("JWT_ACCESS_TTL", "jwt.access_ttl", tomlSrc),
			},
			&cli.DurationFlag{
				Name:    "jwt-refresh-ttl",
				Value:   7 * 24 * time.Hour,
				Usage:   "Refresh token lifetime",
				Sources: sources("JWT_REFRESH_TTL", "jwt.refresh_ttl", tomlSrc),
			},

			// SMTP
			&cli.StringFlag{
				Name:    "smtp-host",
				Value:   "localhost",
				Usage:   "SMTP server host",
				Sources: sources("SMTP_HOST", "smtp.host", tomlSrc),
			},
			&cli.IntFlag{
				Name:    "smtp-port",
				Value:   587,
				Usage:   "SMTP server port",
				Sources: sources("SMTP_PORT", "smtp.port", tomlSrc),
			},
			&cli.StringFlag{
				Name:    "smtp-username",
				Usage:   "SMTP username",
				Sources: sources("SMTP_USERNAME", "smtp.username", tomlSrc),
			},
			&cli.StringFlag{
				Name:    "smtp-password",
				Usage:   "SMTP password",
				Sources: sources("SMTP_PASSWORD", "smtp.password", tomlSrc),
			},
			&cli.StringFlag{
				Name:    "smtp-from",
				Value:   "noreply@localhost",
				Usage:   "From address for outgoing mail",
				Sources: sources("SMTP_FROM", "smtp.from", tomlSrc),
			},
			&cli.StringFlag{
				Name:    "smtp-from-name",
				Usage:   "Display name for outgoing mail",
				Sources: sources("SMTP_FROM_NAME", "smtp.from_name", tomlSrc),
			},
			&cli.BoolFlag{
				Name:    "smtp-tls",
				Value:   true,
				Usage:   "Require TLS for SMTP",
				Sources: sources("SMTP_TLS", "smtp.tls", tomlSrc),
			},
			&cli.DurationFlag{
				Name:    "smtp-timeout",
				Value:   10 * time.Second,
				Usage:   "Timeout for a single SMTP delivery",
				Sources: sources("SMTP_TIMEOUT", "smtp.timeout", tomlSrc),
			},

			// OAuth
			&cli.StringFlag{
				Name:    "oauth-google-client-id",
				Usage:   "Google OAuth client ID",
				Sources: sources("OAUTH_GOOGLE_CLIENT_ID", "oauth.google.client_id", tomlSrc),
			},
			&cli.StringFlag{
				Name:    "oauth-google-client-secret",
				Usage:   "Google OAuth client secret",
				Sources: sources("OAUTH_GOOGLE_CLIENT_SECRET", "oauth.google.client_secret", tomlSrc),
			},
			&cli.StringFlag{
				Name:    "oauth-github-client-id",
				Usage:   "GitHub OAuth client ID",
				Sources: sources("OAUTH_GITHUB_CLIENT_ID", "oauth.github.client_id", tomlSrc),
			},
			&cli.StringFlag{
				Name:    "oauth-github-client-secret",
				Usage:   "GitHub OAuth client secret",
				Sources: sources("OAUTH_GITHUB_CLIENT_SECRET", "oauth.github.client_secret", tomlSrc),
			},
			&cli.StringFlag{
				Name:    "oauth-state-secret",
				Usage:   "HMAC key for the OAuth state cookie",
				Sources: sources("OAUTH_STATE_SECRET", "oauth.state_secret", tomlSrc),
			},

			// Exchange store
			&cli.StringFlag{
				Name:    "exchange-backend",
				Value:   "memory",
				Usage:   "One-time code store backend: memory, redis",
				Sources: sources("EXCHANGE_BACKEND", "exchange.backend", tomlSrc),
			},
			&cli.StringFlag{
				Name:    "exchange-redis-url",
				Usage:   "Redis URL for the redis exchange backend",
				Sources: sources("EXCHANGE_REDIS_URL", "exchange.redis_url", tomlSrc),
			},
			&cli.DurationFlag{
				Name:    "exchange-ttl",
				Value:   exchange.DefaultTTL,
				Usage:   "Lifetime of an unconsumed exchange code",
				Sources: sources("EXCHANGE_TTL", "exchange.ttl", tomlSrc),
			},
			&cli.DurationFlag{
				Name:    "exchange-grace",
				Value:   exchange.DefaultGrace,
				Usage:   "Replay window after an exchange code is consumed",
				Sources: sources("EXCHANGE_GRACE", "exchange.grace", tomlSrc),
			},
		},
		Action: server.Run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
