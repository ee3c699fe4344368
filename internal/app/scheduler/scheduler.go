// Package scheduler runs the trial reminder sweep.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/chrisminnick/starboard2/internal/config"
	"github.com/chrisminnick/starboard2/internal/lib/rabbitmq"
	"github.com/chrisminnick/starboard2/internal/lib/sl"
	schedulerservice "github.com/chrisminnick/starboard2/internal/services/scheduler"
	"github.com/chrisminnick/starboard2/internal/storage"
)

const (
	dbReadyRetries = 10
	dbReadyDelay   = 3 * time.Second
)

// App is the scheduler process.
type App struct {
	schedulerService *schedulerservice.SchedulerService
	db               *storage.Storage
	conn             *amqp.Connection
	ch               *amqp.Channel
	logger           *slog.Logger
}

// waitForDB blocks until the API has migrated the schema.
func waitForDB(ctx context.Context, db *storage.Storage) error {
	var err error
	for range dbReadyRetries {
		if err = storage.CheckDatabaseReady(ctx, db); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(dbReadyDelay):
		}
	}
	return fmt.Errorf("database not ready after retries: %w", err)
}

// New connects to PostgreSQL and RabbitMQ.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := storage.New(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	if err := waitForDB(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		closeResources(nil, conn, logger)
		_ = db.Close()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	publisher := rabbitmq.NewPublisher(ch, rabbitmq.Exchange)
	schedulerService := schedulerservice.NewSchedulerService(db, publisher, logger, cfg.ReminderInterval, cfg.ReminderWindow)

	return &App{
		schedulerService: schedulerService,
		db:               db,
		conn:             conn,
		ch:               ch,
		logger:           logger,
	}, nil
}

func closeResources(ch *amqp.Channel, conn *amqp.Connection, logger *slog.Logger) {
	if ch != nil {
		if err := ch.Close(); err != nil {
			logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close connection", sl.Err(err))
		}
	}
}

// Run sweeps until ctx is done.
func (a *App) Run(ctx context.Context) error {
	a.schedulerService.RemindExpiringTrials(ctx)

	a.logger.Info("shutting down scheduler service")
	closeResources(a.ch, a.conn, a.logger)
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
	return nil
}
