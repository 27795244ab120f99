package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/shiftsync/backend/internal/config"
	"github.com/shiftsync/backend/internal/domain"
	"github.com/shiftsync/backend/internal/handler"
	"github.com/shiftsync/backend/internal/hub"
	"github.com/shiftsync/backend/internal/queue"
	"github.com/shiftsync/backend/internal/repository"
	"github.com/shiftsync/backend/internal/session"
	"github.com/shiftsync/backend/internal/store"
	"golang.org/x/crypto/bcrypt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type backend interface {
	store.Persistence
	handler.UserRepository
	handler.ReportRepository
}

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
		logger.Error("failed to load config", "error", err)
		return
	}

	/**********************************************
	 * database
	 **********************************************/
	var db backend
	var memory *repository.Memory
	switch cfg.Database.Driver {
	case "memory":
		logger.Warn("using the in-memory database, data is lost on restart")
		memory = repository.NewMemory()
		db = memory
	default:
		dbpool, err := sql.Open("pgx", cfg.Database.DSN)
		if err != nil {
			logger.Error("failed to create database pool", "error", err)
			return
		}
		defer dbpool.Close()

		dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
		defer cancel()

		// sql.Open does not connect, so ping once to fail fast
		if err := dbpool.PingContext(ctx); err != nil {
			logger.Error("failed to connect to database", "error", err)
			return
		}

		db = repository.NewRepository(cfg, dbpool)
	}

	/**********************************************
	 * initial manager
	 **********************************************/
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(cfg.InitialManager.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("failed to hash initial manager password", "error", err)
		return
	}
	initialManager := &domain.User{
		Username:     cfg.InitialManager.Username,
		PasswordHash: string(passwordHash),
		Email:        cfg.InitialManager.Email,
		Role:         domain.RoleManager,
	}
	if err := db.CreateUser(context.Background(), initialManager); err != nil && !errors.Is(err, domain.ErrDuplicateUsername) {
		logger.Error("failed to create initial manager", "error", err)
		return
	}

	/**********************************************
	 * rabbitmq
	 **********************************************/
	var publisher handler.EventQueue = queue.Discard{}
	switch {
	case memory != nil:
		// the worker cannot reach this process's storage, so audit entries are
		// written in place and review mails are not sent
		logger.Warn("in-memory database: audit logs are stored directly, mail is disabled")
		publisher = queue.NewDirect(memory)
	case cfg.RabbitMQ.DSN != "":
		conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			return
		}
		defer conn.Close()

		ch, err := conn.Channel()
		if err != nil {
			logger.Error("failed to open channel", "error", err)
			return
		}
		defer ch.Close()

		if err := queue.DeclareQueues(ch, cfg.RabbitMQ.AuditQueue, cfg.RabbitMQ.MailQueue); err != nil {
			logger.Error("failed to declare queues", "error", err)
			return
		}

		publisher = queue.NewPublisher(ch, time.Duration(cfg.RabbitMQ.PublishTimeout)*time.Second, cfg.RabbitMQ.AuditQueue, cfg.RabbitMQ.MailQueue)
	default:
		logger.Warn("RABBITMQ_DSN not set, audit logs and mail are disabled")
	}

	/**********************************************
	 * redis
	 **********************************************/
	rdb := redis.NewClient(&redis.Options{
		Addr:        fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password:    cfg.Redis.Password,
		DB:          0,
		DialTimeout: time.Duration(cfg.Redis.ConnectTimeout) * time.Second,
	})
	defer rdb.Close()

	pingCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Redis.ConnectTimeout)*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Error("failed to connect to redis", "error", err)
		return
	}
	denylist := session.NewDenylist(rdb, time.Duration(cfg.Redis.OperationExpiration)*time.Second)

	/**********************************************
	 * hub and store
	 **********************************************/
	h := hub.New(time.Duration(cfg.Hub.SendTimeout) * time.Millisecond)
	hubCtx, stopHub := context.WithCancel(context.Background())
	hubDone := make(chan struct{})
	go func() {
		h.Run(hubCtx)
		close(hubDone)
	}()

	shifts := store.New(db, h)

	/**********************************************
	 * handler
	 **********************************************/
	handler, err := handler.NewHandler(cfg, shifts, h, db, db, denylist, publisher)
	if err != nil {
		logger.Error("failed to create handler", "error", err)
		return
	}
	handler.RegisterRoutes()

	/**********************************************
	 * http server
	 **********************************************/
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      handler.Mux,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("starting server", "port", cfg.Server.Port, "database", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", slog.String("error", err.Error()))
			return
		}
	}()

	<-quit
	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", slog.String("error", err.Error()))
	}

	// Shutdown does not wait for hijacked websocket connections; stopping the
	// hub closes them
	stopHub()
	<-hubDone
	logger.Info("server stopped")
}
