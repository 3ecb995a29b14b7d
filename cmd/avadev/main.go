// Package main runs the development stub server: a local stand-in for the
// companion-chat backend implementing the REST surface the client consumes.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/ava-companion/ava/internal/config"
	"github.com/ava-companion/ava/internal/devserver"
	"github.com/ava-companion/ava/pkg/logger"
)

func main() {
	cfg := config.LoadServer()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting development server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server, err := devserver.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to assemble server", zap.Error(err))
		os.Exit(1)
	}

	if err := server.Run(ctx); err != nil {
		log.Error("server error", zap.Error(err))
		os.Exit(1)
	}

	log.Info("server stopped")
}
