// Package services turns queued trial reminders into emails.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/chrisminnick/starboard2/internal/lib/rabbitmq"
	"github.com/chrisminnick/starboard2/internal/lib/sl"
	"github.com/chrisminnick/starboard2/internal/models"
)

const sendTimeout = 30 * time.Second

// Mailer delivers a plain-text email.
type Mailer interface {
	Send(ctx context.Context, toName, toEmail, subject, body string) error
}

// SenderService handles trial reminder deliveries.
type SenderService struct {
	mailer    Mailer
	clientURL string
	log       *slog.Logger
}

// NewSenderService returns a SenderService. With a nil mailer reminders are
// only logged.
func NewSenderService(mailer Mailer, clientURL string, log *slog.Logger) *SenderService {
	return &SenderService{
		mailer:    mailer,
		clientURL: clientURL,
		log:       log,
	}
}

// SendTrialExpiring is the consumer handler for the trial_expiring queue.
// A returned error makes the delivery go back to the queue.
func (s *SenderService) SendTrialExpiring(body []byte) error {
	const op = "services.sender.SendTrialExpiring"
	var reminder models.TrialReminder
	if err := json.Unmarshal(body, &reminder); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("%s: error unmarshalling message: %w: %w", op, rabbitmq.ErrDiscard, err)
	}

	subject, text := trialExpiringMessage(reminder, s.clientURL)
	if s.mailer == nil {
		s.log.Warn("mail is not configured, reminder dropped",
			slog.String("user_id", reminder.UserID),
			slog.String("email", reminder.Email),
		)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()
	if err := s.mailer.Send(ctx, reminder.Name, reminder.Email, subject, text); err != nil {
		s.log.Error("failed to send email", slog.String("email", reminder.Email), sl.Err(err))
		return err
	}
	s.log.Info("email sent successfully", slog.String("email", reminder.Email))
	return nil
}

func trialExpiringMessage(r models.TrialReminder, clientURL string) (string, string) {
	subject := "Your Starboard Write trial ends soon"
	text := fmt.Sprintf(`Hello %s,

Your free trial of Starboard Write ends on %s.
Your projects stay safe, but you will need an active subscription to keep
writing with your advisors after that date.

Upgrade here: %s

The Starboard Write team
`, r.Name, r.TrialEndDate.UTC().Format("January 2, 2006 at 15:04 MST"), clientURL)
	return subject, text
}
