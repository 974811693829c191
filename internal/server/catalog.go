package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

type CatalogHandler struct {
	catalog CatalogSource
	logger  *slog.Logger
}

func NewCatalogHandler(catalog CatalogSource, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, logger: logger}
}

// Get handles GET /documents/catalog.
func (h *CatalogHandler) Get(c *gin.Context) {
	catalog := h.catalog.Catalog()
	c.JSON(http.StatusOK, gin.H{
		"sections": catalog.Sections(),
		"packages": catalog.Packages(),
	})
}
