package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/jobapply/internal/app"
	"github.com/joseph-ayodele/jobapply/internal/common"
	"github.com/joseph-ayodele/jobapply/internal/server"
	"github.com/joseph-ayodele/jobapply/internal/templates"
)

func main() {
	cfg, err := common.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(2)
	}
	logger := common.NewLogger(os.Stdout, cfg.Log)
	slog.SetDefault(logger)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(2)
	}
	gin.SetMode(cfg.Server.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}

	if err := a.DB.HealthCheck(ctx, 5*time.Second); err != nil {
		logger.Error("failed to ping database", "error", err)
		a.Close(context.Background())
		os.Exit(1)
	}

	if cfg.Queue.Backend == "redis" && cfg.Queue.EmbeddedWorkers {
		if err := a.StartConsumers(ctx); err != nil {
			logger.Error("failed to start queue consumers", "error", err)
			a.Close(context.Background())
			os.Exit(1)
		}
	}

	if path := cfg.Generation.PromptsFile; path != "" {
		if err := templates.WatchPromptsFile(ctx, path, a.Templates, 500*time.Millisecond, logger); err != nil {
			logger.Warn("prompts file will not be reloaded", "path", path, "error", err)
		}
	}

	deps := server.Deps{
		Generation: a.Generation,
		Matching:   a.Matching,
		Ledger:     a.Ledger,
		Export:     a.Export,
		Catalog:    a.Templates,
		DB:         a.DB,
	}
	router := server.NewRouter(deps, logger)
	httpServer := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcServer, healthServer := server.NewGRPCHealth(ctx, a.DB, 15*time.Second, logger)
	server.RegisterApplyServiceServer(grpcServer, server.NewApplyServer(deps, logger))
	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
		a.Close(context.Background())
		os.Exit(1)
	}

	go func() {
		logger.Info("gRPC listening", "addr", cfg.Server.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC serve error", "error", err)
			stop()
		}
	}()
	go func() {
		logger.Info("applyd listening", "addr", cfg.Server.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	healthServer.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", "error", err)
	}
	grpcServer.GracefulStop()
	a.Close(shutdownCtx)
	logger.Info("stopped")
}
