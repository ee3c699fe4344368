package services

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const sendPath = "/v3/mail/send"

// SendGridMailer sends plain-text mail through the SendGrid v3 API.
type SendGridMailer struct {
	client *sendgrid.Client
	from   *mail.Email
}

// NewSendGridMailer returns a mailer sending as from. An empty baseURL keeps
// the public SendGrid endpoint.
func NewSendGridMailer(apiKey, from, baseURL string) *SendGridMailer {
	client := sendgrid.NewSendClient(apiKey)
	if baseURL != "" {
		client.BaseURL = baseURL + sendPath
	}
	return &SendGridMailer{
		client: client,
		from:   mail.NewEmail("Starboard Write", from),
	}
}

// Send delivers one message. Any non-2xx answer is an error so the delivery
// gets requeued.
func (m *SendGridMailer) Send(ctx context.Context, toName, toEmail, subject, body string) error {
	const op = "services.sender.Send"
	message := mail.NewSingleEmail(m.from, subject, mail.NewEmail(toName, toEmail), body, body)
	resp, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s: sendgrid answered %d: %s", op, resp.StatusCode, resp.Body)
	}
	return nil
}
