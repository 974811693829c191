package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/jobapply/constants"
	"github.com/joseph-ayodele/jobapply/internal/matching"
)

type MatchingHandler struct {
	svc    *matching.Service
	logger *slog.Logger
}

func NewMatchingHandler(svc *matching.Service, logger *slog.Logger) *MatchingHandler {
	return &MatchingHandler{svc: svc, logger: logger}
}

type matchingRequest struct {
	Recalculate bool `json:"recalculate"`
}

// Create handles POST /applications/:id/matching-score.
func (h *MatchingHandler) Create(c *gin.Context) {
	appID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req matchingRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		respondError(c, h.logger, err)
		return
	}
	res, err := h.svc.CreateTask(c.Request.Context(), userID(c), appID, req.Recalculate)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	status := http.StatusAccepted
	if res.Status == constants.StatusAlreadyCalculated {
		status = http.StatusOK
	}
	c.JSON(status, res)
}

// Status handles GET /matching-score-tasks/:id.
func (h *MatchingHandler) Status(c *gin.Context) {
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
