package dispatch

import (
	"context"
	"log/slog"
)

// Transport delivers outbound messages to the user (Telegram, web UI).
// The wire protocol is external; the core only formats and routes.
type Transport interface {
	Send(ctx context.Context, principalID, text string) error
}

// InboundCommand is a user message arriving over the transport.
type InboundCommand struct {
	PrincipalID string
	Text        string
}

// ConsoleTransport logs outbound messages. Used in development and in
// tests.
type ConsoleTransport struct {
	Log *slog.Logger
}

func (t *ConsoleTransport) Send(ctx context.Context, principalID, text string) error {
	_ = ctx
	log := t.Log
	if log == nil {
		log = slog.Default()
	}
	log.Info("notify", "principal_id", principalID, "text", text)
	return nil
}
