package queue

import (
	"context"
	"errors"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrDrop marks a message that can never be handled; it is rejected without
// requeueing. Any other handler error requeues the message.
var ErrDrop = errors.New("drop message")

type Handler func(ctx context.Context, body []byte) error

// Consume handles deliveries one at a time until ctx is cancelled or the
// channel closes.
func Consume(ctx context.Context, deliveries <-chan amqp.Delivery, queue string, handle Handler) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-deliveries:
			if !ok {
				slog.Warn("delivery channel closed", "queue", queue)
				return
			}
			slog.Info("message received", "queue", queue, "size", len(msg.Body))

			if err := handle(ctx, msg.Body); err != nil {
				requeue := !errors.Is(err, ErrDrop)
				slog.Error("failed to handle message", "queue", queue, "requeue", requeue, "error", err)
				_ = msg.Nack(false, requeue)
				continue
			}

			_ = msg.Ack(false)
		}
	}
}
