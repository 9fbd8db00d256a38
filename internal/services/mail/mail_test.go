// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package mail_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"codeberg.org/oliverandrich/go-auth-api/internal/i18n"
	"codeberg.org/oliverandrich/go-auth-api/internal/services/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (f *fakeSender) Send(_ context.Context, msg mail.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeSender) messages() []mail.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]mail.Message(nil), f.sent...)
}

func TestVerificationMessage(t *testing.T) {
	require.NoError(t, i18n.Init())
	ctx := i18n.WithLocale(context.Background(), language.English)

	sender := &fakeSender{}
	mailer := mail.NewMailer(sender, "http://localhost:3000")

	msg, err := mailer.VerificationMessage(ctx, "ana@example.com", "Ana", "tok/with+chars", time.Now().Add(24*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, "ana@example.com", msg.To)
	assert.Equal(t, "Verify your email address", msg.Subject)
	assert.Contains(t, msg.HTML, "http://localhost:3000/verify-email?token=tok%2Fwith%2Bchars")
	assert.Contains(t, msg.HTML, "Ana")
}

func TestSendPasswordReset(t *testing.T) {
	require.NoError(t, i18n.Init())
	ctx := i18n.WithLocale(context.Background(), language.German)

	sender := &fakeSender{}
	mailer := mail.NewMailer(sender, "http://localhost:3000")

	err := mailer.SendPasswordReset(ctx, "ana@example.com", "", "tok", time.Now().Add(time.Hour))
	require.NoError(t, err)

	sent := sender.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "Setze dein Passwort zurück", sent[0].Subject)
	assert.Contains(t, sent[0].HTML, "http://localhost:3000/reset-password?token=tok")
}

func TestSendPasswordResetPropagatesFailure(t *testing.T) {
	require.NoError(t, i18n.Init())

	sender := &fakeSender{err: errors.New("smtp unreachable")}
	mailer := mail.NewMailer(sender, "http://localhost:3000")

	err := mailer.SendPasswordReset(context.Background(), "ana@example.com", "Ana", "tok", time.Now())
	assert.Error(t, err)
}

func TestOutboxDeliversInBackground(t *testing.T) {
	sender := &fakeSender{}
	outbox := mail.NewOutbox(sender, time.Second)

	outbox.Enqueue(mail.Message{To: "a@example.com", Subject: "s", HTML: "<p>hi</p>"})
	outbox.Enqueue(mail.Message{To: "b@example.com", Subject: "s", HTML: "<p>hi</p>"})
	outbox.Close()

	assert.Len(t, sender.messages(), 2)
}

func TestOutboxSwallowsFailures(t *testing.T) {
	sender := &fakeSender{err: errors.New("smtp unreachable")}
	outbox := mail.NewOutbox(sender, time.Second)

	// Must not panic or block.
	outbox.Enqueue(mail.Message{To: "a@example.com"})
	outbox.Close()
}
