// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package config_test

import (
	"testing"

	"codeberg.org/oliverandrich/go-auth-api/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeOrigin(t *testing.T) {
	assert.Equal(t, "https://app.example.com", config.NormalizeOrigin("https://app.example.com/"))
	assert.Equal(t, "https://app.example.com", config.NormalizeOrigin("https://app.example.com"))
	assert.Equal(t, "", config.NormalizeOrigin(""))
}

func TestValidate(t *testing.T) {
	base := func() *config.Config {
		return &config.Config{
			Server: config.ServerConfig{FrontendURL: "http://localhost:3000"},
			JWT: config.JWTConfig{
				AccessSecret:  "access-secret",
				RefreshSecret: "refresh-secret",
			},
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("missing secrets", func(t *testing.T) {
		cfg := base()
		cfg.JWT.AccessSecret = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("identical secrets", func(t *testing.T) {
		cfg := base()
		cfg.JWT.RefreshSecret = cfg.JWT.AccessSecret
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing frontend url", func(t *testing.T) {
		cfg := base()
		cfg.Server.FrontendURL = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("redis backend requires url", func(t *testing.T) {
		cfg := base()
		cfg.Exchange.Backend = "redis"
		assert.Error(t, cfg.Validate())

		cfg.Exchange.RedisURL = "redis://localhost:6379/0"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := base()
		cfg.Exchange.Backend = "memcached"
		assert.Error(t, cfg.Validate())
	})
}
