// Package mailer delivers transactional email: one-time passcodes and
// invitation notices.
package mailer

import (
	"context"
)

// Message is a single outbound email.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Mailer sends transactional email.
type Mailer interface {
	Send(ctx context.Context, message Message) error
}
