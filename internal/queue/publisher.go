// Package queue moves audit entries and mail requests through RabbitMQ.
package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shiftsync/backend/internal/domain"
)

// Channel is the part of *amqp.Channel the publisher needs.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type Publisher struct {
	ch         Channel
	timeout    time.Duration
	auditQueue string
	mailQueue  string
}

func NewPublisher(ch Channel, timeout time.Duration, auditQueue, mailQueue string) *Publisher {
	return &Publisher{
		ch:         ch,
		timeout:    timeout,
		auditQueue: auditQueue,
		mailQueue:  mailQueue,
	}
}

func (p *Publisher) PublishAudit(ctx context.Context, entry domain.AuditLog) error {
	return p.publish(ctx, p.auditQueue, entry)
}

func (p *Publisher) PublishMail(ctx context.Context, msg domain.MailMessage) error {
	return p.publish(ctx, p.mailQueue, msg)
}

func (p *Publisher) publish(ctx context.Context, queue string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	return p.ch.PublishWithContext(
		ctx,
		"",
		queue,
		true,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
}

// Discard stands in for the publisher when RABBITMQ_DSN is not set.
type Discard struct{}

func (Discard) PublishAudit(ctx context.Context, entry domain.AuditLog) error {
	slog.Debug("audit publishing disabled", "action", entry.Action, "user", entry.User, "shift", entry.TargetShiftID)
	return nil
}

func (Discard) PublishMail(ctx context.Context, msg domain.MailMessage) error {
	slog.Debug("mail publishing disabled", "type", msg.Type, "to", msg.To)
	return nil
}

// DeclareQueues declares durable queues with the given names.
func DeclareQueues(ch *amqp.Channel, names ...string) error {
	for _, name := range names {
		_, err := ch.QueueDeclare(
			name,
			true,  // durable
			false, // keep the queue when no consumer is attached
			false, // shared between consumers
			false, // wait for the broker to confirm
			nil,
		)
		if err != nil {
			return err
		}
	}
	return nil
}
