package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/jobapply/internal/credits"
	"github.com/joseph-ayodele/jobapply/internal/export"
	"github.com/joseph-ayodele/jobapply/internal/generation"
	"github.com/joseph-ayodele/jobapply/internal/matching"
	"github.com/joseph-ayodele/jobapply/internal/templates"
)

// HealthChecker is satisfied by *repository.DB.
type HealthChecker interface {
	HealthCheck(ctx context.Context, timeout time.Duration) error
}

// CatalogSource is satisfied by *templates.Resolver, whose catalog can be
// reloaded at runtime.
type CatalogSource interface {
	Catalog() *templates.Catalog
}

// Deps are the services the HTTP API exposes.
type Deps struct {
	Generation *generation.Service
	Matching   *matching.Service
	Ledger     *credits.Ledger
	Export     *export.Service
	Catalog    CatalogSource
	DB         HealthChecker
}

// NewRouter wires every route onto a fresh gin engine.
func NewRouter(d Deps, logger *slog.Logger) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}
	r := gin.New()
	r.Use(RequestID(), AccessLog(logger), Recovery(logger))

	health := NewHealthHandler(d.DB, logger)
	r.GET("/healthz", health.Healthz)

	catalog := NewCatalogHandler(d.Catalog, logger)
	r.GET("/documents/catalog", catalog.Get)

	admin := NewAdminHandler(d.Ledger, logger)
	r.POST("/admin/users/:id/credits", admin.GrantCredits)

	gen := NewGenerationHandler(d.Generation, d.Catalog, logger)
	match := NewMatchingHandler(d.Matching, logger)
	exp := NewExportHandler(d.Export, logger)

	user := r.Group("/", RequireUser(logger))
	user.POST("/applications/:id/generate", gen.Create)
	user.DELETE("/applications/:id/documents", gen.DeleteDocuments)
	user.GET("/generation-tasks/:id", gen.Status)
	user.POST("/applications/:id/matching-score", match.Create)
	user.GET("/matching-score-tasks/:id", match.Status)
	user.GET("/exports/applications.xlsx", exp.Applications)

	return r
}
