// Package services finds trials that are about to end and publishes a
// reminder for each of them.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/chrisminnick/starboard2/internal/lib/rabbitmq"
	"github.com/chrisminnick/starboard2/internal/lib/sl"
	"github.com/chrisminnick/starboard2/internal/models"
)

// TrialRepository finds trial users by trial end and remembers who was
// already reminded.
type TrialRepository interface {
	FindTrialsEndingBetween(ctx context.Context, from, to time.Time) ([]models.TrialReminder, error)
	MarkTrialReminded(ctx context.Context, userID string, at time.Time) error
}

// Publisher sends a message with a routing key.
type Publisher interface {
	Publish(routingKey string, message any) error
}

// SchedulerService runs the reminder sweep on a ticker.
type SchedulerService struct {
	repo      TrialRepository
	publisher Publisher
	log       *slog.Logger
	interval  time.Duration
	window    time.Duration
	now       func() time.Time
}

// NewSchedulerService returns a SchedulerService sweeping every interval
// for trials ending within window.
func NewSchedulerService(repo TrialRepository, publisher Publisher, log *slog.Logger, interval, window time.Duration) *SchedulerService {
	return &SchedulerService{
		repo:      repo,
		publisher: publisher,
		log:       log,
		interval:  interval,
		window:    window,
		now:       time.Now,
	}
}

// RemindExpiringTrials sweeps once immediately and then on every tick until
// ctx is done.
func (s *SchedulerService) RemindExpiringTrials(ctx context.Context) {
	s.runRemindExpiringTrials(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runRemindExpiringTrials(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// runRemindExpiringTrials returns the number of reminders published.
func (s *SchedulerService) runRemindExpiringTrials(ctx context.Context) int {
	s.log.Info("starting search for expiring trials")
	now := s.now().UTC()
	reminders, err := s.repo.FindTrialsEndingBetween(ctx, now, now.Add(s.window))
	if err != nil {
		s.log.Error("failed to find expiring trials", sl.Err(err))
		return 0
	}
	if len(reminders) == 0 {
		s.log.Info("no expiring trials found")
		return 0
	}
	s.log.Info("found expiring trials", slog.Int("count", len(reminders)))

	published := 0
	for _, reminder := range reminders {
		if err := s.publisher.Publish(rabbitmq.TrialExpiringKey, reminder); err != nil {
			s.log.Error("failed to publish message", slog.String("user_id", reminder.UserID), sl.Err(err))
			continue
		}
		if err := s.repo.MarkTrialReminded(ctx, reminder.UserID, now); err != nil {
			s.log.Error("failed to mark trial reminded", slog.String("user_id", reminder.UserID), sl.Err(err))
		}
		published++
	}
	return published
}
