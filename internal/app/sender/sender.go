// Package sender consumes trial reminders and emails them.
package sender

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/chrisminnick/starboard2/internal/config"
	"github.com/chrisminnick/starboard2/internal/lib/rabbitmq"
	"github.com/chrisminnick/starboard2/internal/lib/sl"
	senderservice "github.com/chrisminnick/starboard2/internal/services/sender"
)

// App is the sender process.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.SenderService
	logger        *slog.Logger
}

// New connects to RabbitMQ and configures SendGrid. Without an API key
// reminders are logged and acknowledged.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	var mailer senderservice.Mailer
	if cfg.SendGridKey != "" {
		mailer = senderservice.NewSendGridMailer(cfg.SendGridKey, cfg.MailFrom, cfg.SendGridURL)
	} else {
		logger.Warn("SENDGRID_API_KEY is not set, reminders are only logged")
	}

	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderservice.NewSenderService(mailer, cfg.ClientURL, logger),
		logger:        logger,
	}, nil
}

// Run consumes until ctx is done.
func (a *App) Run(ctx context.Context) error {
	err := rabbitmq.ConsumerMessage(ctx, a.logger, a.ch, rabbitmq.TrialExpiringQueue, a.senderService.SendTrialExpiring)
	if err != nil {
		a.logger.Error("failed to start consumer",
			slog.String("queue", rabbitmq.TrialExpiringQueue), sl.Err(err))
		return err
	}

	<-ctx.Done()
	a.logger.Info("sender service shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	return nil
}
