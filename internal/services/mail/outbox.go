// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package mail

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	defaultOutboxBuffer  = 64
	defaultOutboxTimeout = 30 * time.Second
)

// Outbox is a best-effort background dispatcher for emails whose
// delivery must not block an HTTP response. Failures are logged for
// operators and otherwise swallowed; callers that need delivery
// guarantees send synchronously instead.
type Outbox struct {
	sender  Sender
	jobs    chan Message
	timeout time.Duration
	wg      sync.WaitGroup
	once    sync.Once
}

// NewOutbox starts the dispatcher goroutine.
func NewOutbox(sender Sender, timeout time.Duration) *Outbox {
	if timeout <= 0 {
		timeout = defaultOutboxTimeout
	}

	o := &Outbox{
		sender:  sender,
		jobs:    make(chan Message, defaultOutboxBuffer),
		timeout: timeout,
	}

	o.wg.Add(1)
	go o.run()

	return o
}

// Enqueue hands a message to the dispatcher without blocking. When the
// buffer is full the message is dropped and logged; best-effort mail
// must never apply backpressure to request handling.
func (o *Outbox) Enqueue(msg Message) {
	select {
	case o.jobs <- msg:
	default:
		slog.Warn("outbox full, dropping email", "to", msg.To, "subject", msg.Subject)
	}
}

// Close drains queued messages and stops the dispatcher.
func (o *Outbox) Close() {
	o.once.Do(func() {
		close(o.jobs)
	})
	o.wg.Wait()
}

func (o *Outbox) run() {
	defer o.wg.Done()

	for msg := range o.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
		if err := o.sender.Send(ctx, msg); err != nil {
			slog.Error("background email delivery failed",
				"to", msg.To,
				"subject", msg.Subject,
				"error", err,
			)
		}
		cancel()
	}
}
