package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shiftsync/backend/internal/config"
	"github.com/shiftsync/backend/internal/domain"
	"github.com/shiftsync/backend/internal/mailer"
	"github.com/shiftsync/backend/internal/queue"
	"github.com/shiftsync/backend/internal/repository"
	"github.com/wneessen/go-mail"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	/**********************************************
	 * logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	/**********************************************
	 * config
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load config", slog.String("error", err.Error()))
		return
	}
	if cfg.RabbitMQ.DSN == "" {
		logger.Error("RABBITMQ_DSN is required for the worker")
		return
	}
	if cfg.Database.Driver != "postgres" {
		logger.Error("the worker stores audit logs and needs DATABASE_DRIVER=postgres")
		return
	}

	/**********************************************
	 * database
	 **********************************************/
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("failed to create database pool", slog.String("error", err.Error()))
		return
	}
	defer dbpool.Close()

	pingCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()
	if err := dbpool.PingContext(pingCtx); err != nil {
		logger.Error("failed to connect to database", slog.String("error", err.Error()))
		return
	}
	repo := repository.NewRepository(cfg, dbpool)

	/**********************************************
	 * mail client
	 **********************************************/
	var client *mail.Client
	if cfg.Email.SMTP.Host != "" {
		client, err = mail.NewClient(cfg.Email.SMTP.Host,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithSSL(),
			mail.WithPort(cfg.Email.SMTP.Port),
			mail.WithUsername(cfg.Email.SMTP.Username),
			mail.WithPassword(cfg.Email.SMTP.Password),
			mail.WithTimeout(time.Duration(cfg.Email.SMTP.DialTimeout)*time.Second),
		)
		if err != nil {
			logger.Error("failed to create mail client", slog.String("error", err.Error()))
			return
		}
		defer client.Close()
	} else {
		logger.Warn("EMAIL_SMTP_HOST not set, review mails are logged and dropped")
	}

	/**********************************************
	 * rabbitmq
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("failed to connect to rabbitmq", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("failed to open channel", slog.String("error", err.Error()))
		return
	}
	defer ch.Close()

	if err := queue.DeclareQueues(ch, cfg.RabbitMQ.AuditQueue, cfg.RabbitMQ.MailQueue); err != nil {
		logger.Error("failed to declare queues", slog.String("error", err.Error()))
		return
	}

	// one unacknowledged message per consumer
	if err := ch.Qos(1, 0, false); err != nil {
		logger.Error("failed to set qos", slog.String("error", err.Error()))
		return
	}

	handlers := map[string]queue.Handler{
		cfg.RabbitMQ.AuditQueue: storeAuditLog(repo),
		cfg.RabbitMQ.MailQueue:  sendMail(cfg, client),
	}

	ctx, stop := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}

	for name, handle := range handlers {
		name, handle := name, handle
		msgs, err := ch.Consume(
			name,
			"",    // let the broker name the consumer
			false, // manual ack
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			logger.Error("failed to consume queue", slog.String("queue", name), slog.String("error", err.Error()))
			stop()
			wg.Wait()
			return
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			queue.Consume(ctx, msgs, name, handle)
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("waiting for messages (CTRL+C to quit)")
	<-sigChan

	slog.Info("stopping worker...")
	stop()
	wg.Wait()
	slog.Info("worker stopped")
}

func storeAuditLog(repo *repository.Repository) queue.Handler {
	return func(ctx context.Context, body []byte) error {
		entry := &domain.AuditLog{}
		if err := json.Unmarshal(body, entry); err != nil {
			return fmt.Errorf("%w: %v", queue.ErrDrop, err)
		}
		if entry.Action == "" || entry.User == "" {
			return fmt.Errorf("%w: audit entry without action or user", queue.ErrDrop)
		}

		return repo.CreateAuditLog(ctx, entry)
	}
}

func sendMail(cfg *config.Config, client *mail.Client) queue.Handler {
	return func(ctx context.Context, body []byte) error {
		msg, err := mailer.Decode(body)
		if err != nil {
			return fmt.Errorf("%w: %v", queue.ErrDrop, err)
		}

		m, err := mailer.Build(cfg.Email.SMTP.Username, msg)
		if err != nil {
			// unknown types and bad addresses will never render
			return fmt.Errorf("%w: %v", queue.ErrDrop, err)
		}

		if client == nil {
			slog.Info("mail not sent, no smtp server configured", "type", msg.Type, "to", msg.To)
			return nil
		}

		return client.DialAndSendWithContext(ctx, m)
	}
}
