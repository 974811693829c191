package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const healthTimeout = 2 * time.Second

type HealthHandler struct {
	db     HealthChecker
	logger *slog.Logger
}

func NewHealthHandler(db HealthChecker, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{db: db, logger: logger}
}

// Healthz handles GET /healthz.
func (h *HealthHandler) Healthz(c *gin.Context) {
	if h.db != nil {
		if err := h.db.HealthCheck(c.Request.Context(), healthTimeout); err != nil {
			h.logger.Warn("health.db.fail", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// NewGRPCHealth registers the standard health service on a new gRPC server
// and keeps its status in step with the database until ctx ends. Further
// services can be registered on the returned server before it serves.
func NewGRPCHealth(ctx context.Context, db HealthChecker, interval time.Duration, logger *slog.Logger) (*grpc.Server, *health.Server) {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(UnaryRequestLog(logger)))
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	if db != nil && interval > 0 {
		go func() {
			t := time.NewTicker(interval)
			defer t.Stop()
			last := healthpb.HealthCheckResponse_SERVING
			for {
				select {
				case <-ctx.Done():
					return
				case <-t.C:
				}
				next := healthpb.HealthCheckResponse_SERVING
				if err := db.HealthCheck(ctx, healthTimeout); err != nil {
					next = healthpb.HealthCheckResponse_NOT_SERVING
				}
				if next != last {
					logger.Info("health.grpc.status", "status", next.String())
					hs.SetServingStatus("", next)
					last = next
				}
			}
		}()
	}
	return srv, hs
}
