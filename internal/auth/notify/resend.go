package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/resend/resend-go"
)

// resendEmails is the slice of the Resend client we use.
type resendEmails interface {
	Send(params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// ResendSender delivers mail through the Resend HTTP API.
type ResendSender struct {
	From   string
	emails resendEmails
}

func NewResendSender(apiKey, from string) (*ResendSender, error) {
	if strings.TrimSpace(apiKey) == "" || strings.TrimSpace(from) == "" {
		return nil, ErrNotConfigured
	}

	client := resend.NewClient(apiKey)
	return &ResendSender{From: from, emails: client.Emails}, nil
}

func (s *ResendSender) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := s.emails.Send(&resend.SendEmailRequest{
		From:    s.From,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	})
	if err != nil {
		return fmt.Errorf("resend: send: %w", err)
	}
	return nil
}
