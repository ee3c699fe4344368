package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/chrisminnick/starboard2/internal/lib/sl"
)

// MaxInFlight bounds both the channel prefetch and the number of handlers
// running at once.
const MaxInFlight = 10

// ErrDiscard marks a handler error for a message that can never succeed.
// Such deliveries are dropped instead of requeued.
var ErrDiscard = errors.New("discard message")

// ConsumerMessage consumes queueName until ctx is done. A delivery is acked
// when handler returns nil and nacked with requeue otherwise, unless the
// error wraps ErrDiscard.
func ConsumerMessage(ctx context.Context, log *slog.Logger, ch *amqp.Channel, queueName string, handler func([]byte) error) error {
	const op = "rabbitmq.ConsumerMessage"
	delivery, err := ch.Consume(
		queueName,
		"",
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	go dispatch(ctx, log.With(slog.String("op", op), slog.String("queue", queueName)), delivery, handler)
	return nil
}

type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func dispatch(ctx context.Context, log *slog.Logger, deliveries <-chan amqp.Delivery, handler func([]byte) error) {
	sem := make(chan struct{}, MaxInFlight)
	for {
		select {
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			sem <- struct{}{}
			go func(d amqp.Delivery) {
				defer func() { <-sem }()
				handle(log, &d, d.Body, handler)
			}(d)
		case <-ctx.Done():
			return
		}
	}
}

func handle(log *slog.Logger, ack acknowledger, body []byte, handler func([]byte) error) {
	if err := handler(body); err != nil {
		requeue := !errors.Is(err, ErrDiscard)
		log.Error("handler failed", slog.Bool("requeue", requeue), sl.Err(err))
		if nackErr := ack.Nack(false, requeue); nackErr != nil {
			log.Error("failed to nack message", sl.Err(nackErr))
		}
		return
	}
	if ackErr := ack.Ack(false); ackErr != nil {
		log.Error("failed to ack message", sl.Err(ackErr))
	}
}
