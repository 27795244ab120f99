package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/shiftsync/backend/internal/config"
	"github.com/shiftsync/backend/internal/domain"
	"github.com/shiftsync/backend/internal/repository"
	"github.com/shiftsync/backend/internal/seed"
	"github.com/shiftsync/backend/internal/store"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// logPublisher stands in for the hub; nobody is subscribed to a seed run.
type logPublisher struct{}

func (logPublisher) Broadcast(event domain.ChangeEvent) {
	slog.Debug("seeded", "action", event.Action, "shift", event.TargetID())
}

func main() {
	var op int
	var n int
	var days int
	var randSeed int64

	flag.IntVar(&op, "op", 0, "operation to run (1: insert random employees, 2: insert random shifts)")
	flag.IntVar(&n, "n", 5, "number of employees to insert")
	flag.IntVar(&days, "days", 7, "number of days, starting tomorrow, to fill with shifts")
	flag.Int64Var(&randSeed, "seed", time.Now().UnixNano(), "random seed")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if cfg.Database.Driver != "postgres" {
		logger.Error("seeding only makes sense with DATABASE_DRIVER=postgres")
		os.Exit(1)
	}

	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		return
	}
	defer dbpool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open does not connect, so ping once to fail fast
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("failed to connect to database", "error", err)
		return
	}

	repo := repository.NewRepository(cfg, dbpool)
	g := seed.NewGenerator(randSeed)

	switch op {
	case 0:
		slog.Error("no operation given")
	case 1:
		if n <= 0 {
			slog.Error("employee count must be positive")
			return
		}

		cnt := 0
		for i := 0; i < n; i++ {
			user, err := g.Employee(cfg.Seed.User.Password, cfg.Seed.User.EmailDomain)
			if err != nil {
				slog.Error("failed to generate employee", slog.String("error", err.Error()))
				continue
			}

			if err := repo.CreateUser(context.Background(), user); err != nil {
				if errors.Is(err, domain.ErrDuplicateUsername) {
					slog.Warn("username taken, skipping", slog.String("username", user.Username))
				} else {
					slog.Error("failed to insert employee", slog.String("error", err.Error()))
				}
				continue
			}

			cnt++
		}

		slog.Info("employees inserted", slog.Int("count", cnt))
	case 2:
		if days <= 0 {
			slog.Error("day count must be positive")
			return
		}

		// shifts go through the store so they get the same validation as the API
		shifts := store.New(repo, logPublisher{})
		actor := domain.Actor{Username: cfg.InitialManager.Username, Role: domain.RoleManager}

		cnt := 0
		for _, p := range g.Week(time.Now().AddDate(0, 0, 1), days, seed.DefaultSlots) {
			if _, err := shifts.Create(context.Background(), actor, p.Title, p.Start, p.End); err != nil {
				slog.Error("failed to insert shift", slog.String("title", p.Title), slog.String("error", err.Error()))
				continue
			}

			cnt++
		}

		slog.Info("shifts inserted", slog.Int("count", cnt))
	default:
		slog.Error("unknown operation", slog.Int("op", op))
	}
}
