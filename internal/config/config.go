// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
)

type Config struct { //nolint:govet // fieldalignment not critical for config structs
	Server   ServerConfig
	Log      LogConfig
	Database DatabaseConfig
	JWT      JWTConfig
	SMTP     SMTPConfig
	OAuth    OAuthConfig
	Exchange ExchangeConfig
}

type ServerConfig struct { //nolint:govet // fieldalignment not critical for config structs
	Host        string
	Port        int
	BaseURL     string
	FrontendURL string // Origin the SPA is served from; used for CORS and redirects
	MaxBodySize int    // in MB
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // text, json
}

type DatabaseConfig struct {
	DSN string
}

type JWTConfig struct { //nolint:govet // fieldalignment not critical
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

type SMTPConfig struct { //nolint:govet // fieldalignment not critical
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	TLS      bool
	Timeout  time.Duration // Upper bound for dial+send of a single message
}

// OAuthProviderConfig holds the client credentials for a single provider.
type OAuthProviderConfig struct {
	ClientID     string
	ClientSecret string
}

type OAuthConfig struct {
	Google      OAuthProviderConfig
	Github      OAuthProviderConfig
	StateSecret string // HMAC key for the signed state cookie
}

type ExchangeConfig struct { //nolint:govet // fieldalignment not critical
	Backend  string // memory, redis
	RedisURL string
	TTL      time.Duration
	Grace    time.Duration
}

func NewFromCLI(cmd *cli.Command) *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host:        cmd.String("host"),
			Port:        int(cmd.Int("port")),
			BaseURL:     cmd.String("base-url"),
			FrontendURL: NormalizeOrigin(cmd.String("frontend-url")),
			MaxBodySize: int(cmd.Int("max-body-size")),
		},
		Log: LogConfig{
			Level:  cmd.String("log-level"),
			Format: cmd.String("log-format"),
		},
		Database: DatabaseConfig{
			DSN: cmd.String("database-dsn"),
		},
		JWT: JWTConfig{
			AccessSecret:  cmd.String("jwt-access-secret"),
			RefreshSecret: cmd.String("jwt-refresh-secret"),
			AccessTTL:     cmd.Duration("jwt-access-ttl"),
			RefreshTTL:    cmd.Duration("jwt-refresh-ttl"),
		},
		SMTP: SMTPConfig{
			Host:     cmd.String("smtp-host"),
			Port:     int(cmd.Int("smtp-port")),
			Username: cmd.String("smtp-username"),
			Password: cmd.String("smtp-password"),
			From:     cmd.String("smtp-from"),
			FromName: cmd.String("smtp-from-name"),
			TLS:      cmd.Bool("smtp-tls"),
			Timeout:  cmd.Duration("smtp-timeout"),
		},
		OAuth: OAuthConfig{
			Google: OAuthProviderConfig{
				ClientID:     cmd.String("oauth-google-client-id"),
				ClientSecret: cmd.String("oauth-google-client-secret"),
			},
			Github: OAuthProviderConfig{
				ClientID:     cmd.String("oauth-github-client-id"),
				ClientSecret: cmd.String("oauth-github-client-secret"),
			},
			StateSecret: cmd.String("oauth-state-secret"),
		},
		Exchange: ExchangeConfig{
			Backend:  cmd.String("exchange-backend"),
			RedisURL: cmd.String("exchange-redis-url"),
			TTL:      cmd.Duration("exchange-ttl"),
			Grace:    cmd.Duration("exchange-grace"),
		},
	}

	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = buildBaseURL(cfg)
	}

	return cfg
}

// NormalizeOrigin strips a trailing slash so redirect targets and CORS
// origins compare equal regardless of how the value was configured.
func NormalizeOrigin(url string) string {
	return strings.TrimSuffix(url, "/")
}

func buildBaseURL(cfg *Config) string {
	host := cfg.Server.Host
	port := cfg.Server.Port

	if port == 80 {
		return fmt.Sprintf("http://%s", host)
	}
	return fmt.Sprintf("http://%s:%d", host, port)
}

// Validate reports configuration that would make the server unable to
// fulfil its contract at runtime rather than at startup.
func (c *Config) Validate() error {
	if c.JWT.AccessSecret == "" || c.JWT.RefreshSecret == "" {
		return fmt.Errorf("jwt access and refresh secrets are required")
	}
	if c.JWT.AccessSecret == c.JWT.RefreshSecret {
		return fmt.Errorf("jwt access and refresh secrets must differ")
	}
	if c.Server.FrontendURL == "" {
		return fmt.Errorf("frontend url is required")
	}
	switch c.Exchange.Backend {
	case "", "memory":
	case "redis":
		if c.Exchange.RedisURL == "" {
			return fmt.Errorf("exchange redis url is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown exchange backend %q", c.Exchange.Backend)
	}
	return nil
}
