// Package main is the entry point for the taskmagic CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"taskmagic/internal/backend/taskapi"
	"taskmagic/internal/cli"
	"taskmagic/internal/commands"
	"taskmagic/internal/config"
	"taskmagic/internal/service"
	"taskmagic/internal/session"
)

func main() {
	// TASKMAGIC_* settings may come from a .env in the working directory.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	factory := func(ctx context.Context, cfg *config.Config, sess *session.Session) (service.Service, error) {
		return taskapi.New(ctx, cfg, sess)
	}

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, factory)

	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
