// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"time"

	"codeberg.org/oliverandrich/go-auth-api/internal/i18n"
)

//go:embed templates/*.html
var templateFS embed.FS

var transactionalTmpl = template.Must(template.ParseFS(templateFS, "templates/transactional.html"))

// Mailer composes the auth-related transactional emails. Links point at
// the frontend, which proxies the token back to this API.
type Mailer struct {
	sender      Sender
	frontendURL string
}

// NewMailer creates a mailer. The frontend URL must already be
// normalized (no trailing slash).
func NewMailer(sender Sender, frontendURL string) *Mailer {
	return &Mailer{sender: sender, frontendURL: frontendURL}
}

type templateData struct {
	Lang         string
	LogoURL      string
	Intro        string
	ActionURL    string
	ActionLabel  string
	Expiry       string
	IgnoreNotice string
}

// VerificationMessage builds the email-verification message for a
// freshly minted token.
func (m *Mailer) VerificationMessage(ctx context.Context, to, name, token string, expiresAt time.Time) (Message, error) {
	actionURL := fmt.Sprintf("%s/verify-email?token=%s", m.frontendURL, url.QueryEscape(token))

	html, err := m.render(ctx, templateData{
		Lang:         i18n.GetLocale(ctx),
		LogoURL:      m.frontendURL + "/logo.jpg",
		Intro:        i18n.TData(ctx, "email_verification_intro", map[string]any{"Name": displayName(name)}),
		ActionURL:    actionURL,
		ActionLabel:  i18n.T(ctx, "email_verification_button"),
		Expiry:       i18n.TData(ctx, "email_verification_expiry", map[string]any{"ExpiresAt": expiresAt.UTC().Format(time.RFC1123)}),
		IgnoreNotice: i18n.T(ctx, "email_ignore_notice"),
	})
	if err != nil {
		return Message{}, err
	}

	return Message{
		To:      to,
		Subject: i18n.T(ctx, "email_verification_subject"),
		HTML:    html,
	}, nil
}

// SendPasswordReset delivers the password-reset message synchronously;
// the caller decides how to surface failures.
func (m *Mailer) SendPasswordReset(ctx context.Context, to, name, token string, expiresAt time.Time) error {
	actionURL := fmt.Sprintf("%s/reset-password?token=%s", m.frontendURL, url.QueryEscape(token))

	html, err := m.render(ctx, templateData{
		Lang:         i18n.GetLocale(ctx),
		LogoURL:      m.frontendURL + "/logo.jpg",
		Intro:        i18n.TData(ctx, "email_reset_intro", map[string]any{"Name": displayName(name)}),
		ActionURL:    actionURL,
		ActionLabel:  i18n.T(ctx, "email_reset_button"),
		Expiry:       i18n.TData(ctx, "email_reset_expiry", map[string]any{"ExpiresAt": expiresAt.UTC().Format(time.RFC1123)}),
		IgnoreNotice: i18n.T(ctx, "email_ignore_notice"),
	})
	if err != nil {
		return err
	}

	return m.sender.Send(ctx, Message{
		To:      to,
		Subject: i18n.T(ctx, "email_reset_subject"),
		HTML:    html,
	})
}

func (m *Mailer) render(_ context.Context, data templateData) (string, error) {
	var buf bytes.Buffer
	if err := transactionalTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering email template: %w", err)
	}
	return buf.String(), nil
}

func displayName(name string) string {
	if name == "" {
		return "there"
	}
	return name
}
