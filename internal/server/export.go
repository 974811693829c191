package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/jobapply/internal/export"
	"github.com/joseph-ayodele/jobapply/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ExportHandler struct {
	svc    *export.Service
	logger *slog.Logger
}

func NewExportHandler(svc *export.Service, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{svc: svc, logger: logger}
}

// Applications handles GET /exports/applications.xlsx?from_date=&to_date=.
// - only from -> from..today (inclusive)
// - only to   -> beginning..to (inclusive)
// - none      -> all.
func (h *ExportHandler) Applications(c *gin.Context) {
	from, to, err := utils.DateRange(c.Query("from_date"), c.Query("to_date"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	uid := userID(c)
	xlsx, err := h.svc.ExportApplicationsXLSX(c.Request.Context(), uid, from, to)
	if err != nil {
		h.logger.Error("export.xlsx.failed", "user_id", uid, "error", err)
		respondError(c, h.logger, err)
		return
	}
	name := fmt.Sprintf("applications_%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, xlsxContentType, xlsx)
}
