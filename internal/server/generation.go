package server

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/jobapply/internal/common"
	"github.com/joseph-ayodele/jobapply/internal/generation"
)

const (
	maxDocTypes    = 32
	maxDocumentIDs = 500
)

type GenerationHandler struct {
	svc     *generation.Service
	catalog CatalogSource
	logger  *slog.Logger
}

func NewGenerationHandler(svc *generation.Service, catalog CatalogSource, logger *slog.Logger) *GenerationHandler {
	return &GenerationHandler{svc: svc, catalog: catalog, logger: logger}
}

type generateRequest struct {
	DocTypes []string `json:"doc_types"`
	// Package expands to the doc types of a catalog package; explicit
	// doc_types are appended after it.
	Package string `json:"package"`
}

// requestedDocTypes expands the optional package in front of the explicit
// doc types and bounds the result.
func requestedDocTypes(catalog CatalogSource, pkgName string, docTypes []string) ([]string, error) {
	if name := strings.TrimSpace(pkgName); name != "" {
		pkg, found := catalog.Catalog().PackageDocTypes(name)
		if !found {
			return nil, common.InvalidArgumentErrorf("unknown package %q", name)
		}
		docTypes = append(pkg, docTypes...)
	}
	v := common.NewValidator().Field("doc_types", docTypes, common.Required, common.MaxItems(maxDocTypes))
	if err := v.Error(); err != nil {
		return nil, err
	}
	return docTypes, nil
}

// Create handles POST /applications/:id/generate.
func (h *GenerationHandler) Create(c *gin.Context) {
	appID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req generateRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	docTypes, err := requestedDocTypes(h.catalog, req.Package, req.DocTypes)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	res, err := h.svc.CreateTask(c.Request.Context(), userID(c), appID, docTypes)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusAccepted, res)
}

// Status handles GET /generation-tasks/:id.
func (h *GenerationHandler) Status(c *gin.Context) {
	taskID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	view, err := h.svc.Status(c.Request.Context(), userID(c), taskID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type deleteDocumentsRequest struct {
	DocumentIDs []string `json:"document_ids"`
}

// DeleteDocuments handles DELETE /applications/:id/documents. An empty id
// list removes every generated document of the application.
func (h *GenerationHandler) DeleteDocuments(c *gin.Context) {
	appID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req deleteDocumentsRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		respondError(c, h.logger, err)
		return
	}
	if err := common.NewValidator().Field("document_ids", req.DocumentIDs, common.MaxItems(maxDocumentIDs)).Error(); err != nil {
		respondError(c, h.logger, err)
		return
	}
	ids := make([]uuid.UUID, 0, len(req.DocumentIDs))
	for _, raw := range req.DocumentIDs {
		id, err := common.ParseUUID("document_ids", raw)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		ids = append(ids, id)
	}

	n, err := h.svc.DeleteDocuments(c.Request.Context(), userID(c), appID, ids)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}
