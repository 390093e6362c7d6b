package mailer

import (
	"context"
	"log/slog"
)

// LogMailer implements Mailer by logging the message envelope instead of
// sending it. Used for local development. The message body is never logged
// because it can carry passcodes and invitation codes.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a logging Mailer.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send logs the message envelope.
func (m *LogMailer) Send(_ context.Context, message Message) error {
	m.logger.Info("mail delivery skipped, log mailer active",
		"to", message.To,
		"subject", message.Subject,
	)
	return nil
}
