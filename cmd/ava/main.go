// Package main is the entry point for the terminal client.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ava-companion/ava/internal/cli"
	"github.com/ava-companion/ava/internal/config"
	"github.com/ava-companion/ava/pkg/logger"
)

func main() {
	cfg := config.LoadClient()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := cli.NewApp(cfg, log)
	if err := app.Root().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
