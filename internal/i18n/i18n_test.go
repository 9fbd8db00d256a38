// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package i18n_test

import (
	"context"
	"testing"

	"codeberg.org/oliverandrich/go-auth-api/internal/i18n"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestTranslations(t *testing.T) {
	require.NoError(t, i18n.Init())

	en := i18n.WithLocale(context.Background(), language.English)
	de := i18n.WithLocale(context.Background(), language.German)

	assert.Equal(t, "Verify your email address", i18n.T(en, "email_verification_subject"))
	assert.Equal(t, "Bestätige deine E-Mail-Adresse", i18n.T(de, "email_verification_subject"))

	intro := i18n.TData(en, "email_verification_intro", map[string]any{"Name": "Ana"})
	assert.Contains(t, intro, "Ana")
}

func TestMatchLanguage(t *testing.T) {
	require.NoError(t, i18n.Init())

	// The matcher may return region-qualified tags; the base language is
	// what selects the catalog.
	base := func(acceptLang string) string {
		b, _ := i18n.MatchLanguage(acceptLang).Base()
		return b.String()
	}
	assert.Equal(t, "de", base("de-DE,de;q=0.9"))
	assert.Equal(t, "en", base("fr-FR"))
	assert.Equal(t, "en", base(""))
}

func TestFallbackWithoutLocale(t *testing.T) {
	require.NoError(t, i18n.Init())

	// A bare context falls back to English instead of erroring.
	assert.Equal(t, "en", i18n.GetLocale(context.Background()))
	assert.Equal(t, "Reset your password", i18n.T(context.Background(), "email_reset_subject"))
}
