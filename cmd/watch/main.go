package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/shiftsync/backend/internal/client"
	"github.com/shiftsync/backend/internal/projection"
)

func main() {
	var addr string
	var username string
	var password string
	var token string

	flag.StringVar(&addr, "addr", "http://localhost:8000", "server base url")
	flag.StringVar(&username, "username", "", "login username")
	flag.StringVar(&password, "password", os.Getenv("SHIFTSYNC_PASSWORD"), "login password (defaults to $SHIFTSYNC_PASSWORD)")
	flag.StringVar(&token, "token", os.Getenv("SHIFTSYNC_TOKEN"), "access token, skips login")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := client.New(addr, token)
	if token == "" {
		if username == "" {
			logger.Error("either -token or -username is required")
			os.Exit(2)
		}
		if err := c.Login(ctx, username, password); err != nil {
			logger.Error("login failed", "error", err)
			os.Exit(1)
		}
	}

	logger.Info("watching shifts", "addr", addr)
	if err := c.Sync(ctx, render); err != nil {
		logger.Error("sync stopped", "error", err)
		os.Exit(1)
	}
}

func render(p *projection.Projection) {
	// clear the screen and home the cursor
	fmt.Print("\033[H\033[2J")
	fmt.Printf("%d shifts, updated %s\n\n", p.Len(), time.Now().Format(time.TimeOnly))

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "START\tEND\tTITLE\tASSIGNED\tPENDING\tDROP REQUESTS")
	for _, s := range p.Shifts() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			s.StartTime.Local().Format("Mon 01-02 15:04"),
			s.EndTime.Local().Format("15:04"),
			s.Title,
			list(s.AssignedEmployees),
			list(s.PendingEmployees),
			list(s.DropRequests),
		)
	}
	tw.Flush()
}

func list(names []string) string {
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ", ")
}
