package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joseph-ayodele/jobapply/internal/app"
	"github.com/joseph-ayodele/jobapply/internal/common"
)

func main() {
	cfg, err := common.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(2)
	}
	logger := common.NewLogger(os.Stdout, cfg.Log).With("component", "applyworker")
	slog.SetDefault(logger)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(2)
	}
	if cfg.Queue.Backend != "redis" {
		logger.Error("applyworker needs QUEUE_BACKEND=redis", "backend", cfg.Queue.Backend)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}
	if err := a.StartConsumers(ctx); err != nil {
		logger.Error("failed to start queue consumers", "error", err)
		a.Close(context.Background())
		os.Exit(1)
	}
	logger.Info("worker running", "workers", cfg.Queue.Workers)

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	a.Close(shutdownCtx)
	logger.Info("stopped")
}
