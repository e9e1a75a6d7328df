package relay

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

// ResendSender delivers mail through the Resend API instead of a raw SMTP
// relay.
type ResendSender struct {
	client *resend.Client
	from   string
	logger *slog.Logger
}

// NewResendSender creates a Resend-backed sender. from should be a full
// sender address, optionally with a display name.
func NewResendSender(apiKey, from string, logger *slog.Logger) *ResendSender {
	return &ResendSender{
		client: resend.NewClient(apiKey),
		from:   from,
		logger: logger,
	}
}

// Send delivers one plain-text message to a single recipient.
func (s *ResendSender) Send(ctx context.Context, to, subject, body string) error {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Text:    body,
	}

	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("resend send to %s: %w", to, err)
	}

	s.logger.Info("email sent", "provider", "resend", "message_id", sent.Id, "to", to)
	return nil
}
