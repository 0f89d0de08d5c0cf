// Package notify delivers account emails (verification links, password reset
// codes) through a pluggable Sender.
package notify

import (
	"context"
	"errors"
)

var (
	ErrNotConfigured = errors.New("notify: sender not configured")
	ErrNoRecipient   = errors.New("notify: message has no recipient")
)

// Message is a rendered email ready for delivery.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Sender delivers a single message. Implementations must be safe for
// concurrent use.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

func (m Message) validate() error {
	if m.To == "" {
		return ErrNoRecipient
	}
	return nil
}
